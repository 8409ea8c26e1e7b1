package tenantid

import (
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeIsDeterministicAndIdempotent(t *testing.T) {
	inputs := []string{
		"tenant-123",
		"550E8400-E29B-41D4-A716-446655440000",
		"acme-corp",
		"",
	}

	for _, raw := range inputs {
		a := Normalize(raw)
		b := Normalize(raw)
		if a != b {
			t.Fatalf("Normalize(%q) not deterministic: %q != %q", raw, a, b)
		}
		if c := Normalize(a); c != a {
			t.Fatalf("Normalize(Normalize(%q)) = %q, want %q", raw, c, a)
		}
	}
}

func TestNormalizeCanonicalizesValidUUID(t *testing.T) {
	got := Normalize("550E8400-E29B-41D4-A716-446655440000")
	want := "550e8400-e29b-41d4-a716-446655440000"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestNormalizeHashesNonUUIDStably(t *testing.T) {
	got := Normalize("tenant-123")
	again := Normalize("tenant-123")
	if got != again {
		t.Errorf("hash of non-UUID input is not stable across calls: %q != %q", got, again)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("Normalize(%q) did not produce a valid UUID: %v", "tenant-123", err)
	}
}

func TestDatabaseName(t *testing.T) {
	id := Normalize("tenant-123")
	got := DatabaseName(id)
	want := "google-analytics-" + id
	if got != want {
		t.Errorf("DatabaseName() = %q, want %q", got, want)
	}
}
