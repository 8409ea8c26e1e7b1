package sftpclient

import "testing"

func TestNormalizeHeaderMapsKnownVariants(t *testing.T) {
	header := []string{"Warehouse ID", "Location Name", "City", "Zip Code", "Unrecognized Column"}
	got := normalizeHeader(header)
	want := []string{"warehouse_id", "warehouse_name", "city", "zip", ""}

	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalizeHeader(%v)[%d] = %q, want %q", header, i, got[i], want[i])
		}
	}
}

func TestNormalizeHeaderKeepsWarehouseCodeDistinctFromWarehouseName(t *testing.T) {
	header := []string{"Warehouse Code", "Location Name"}
	got := normalizeHeader(header)
	want := []string{"warehouse_code", "warehouse_name"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalizeHeader(%v)[%d] = %q, want %q", header, i, got[i], want[i])
		}
	}
}

func TestCleanCellCollapsesLiteralNaN(t *testing.T) {
	cases := map[string]string{
		"  Seattle  ": "Seattle",
		"nan":         "",
		"NaN":         "",
		"":            "",
	}
	for in, want := range cases {
		if got := cleanCell(in); got != want {
			t.Errorf("cleanCell(%q) = %q, want %q", in, got, want)
		}
	}
}
