// Package tenantid implements the deterministic mapping from an arbitrary
// tenant identifier to a canonical UUID string.
package tenantid

import (
	"crypto/md5" //nolint:gosec // used only as a deterministic hash, not for security
	"strings"

	"github.com/google/uuid"
)

// Normalize maps raw to a canonical TenantID. It is pure, total, and
// deterministic: if raw parses as a UUID in any standard textual form, the
// canonicalized (lower-case, hyphenated) form is returned. Otherwise the
// first 16 bytes of MD5(utf8(raw)) are interpreted as a big-endian UUID and
// its canonical form returned.
//
// Normalize(Normalize(raw)) == Normalize(raw) for all raw, because a
// canonical UUID string parses back to the same UUID.
func Normalize(raw string) string {
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}

	sum := md5.Sum([]byte(raw)) //nolint:gosec
	var id uuid.UUID
	copy(id[:], sum[:16])
	return id.String()
}

// DatabaseName returns the per-tenant database name for a normalized tenant
// ID: "google-analytics-<tenant-uuid>".
func DatabaseName(tenantID string) string {
	return "google-analytics-" + strings.ToLower(tenantID)
}
