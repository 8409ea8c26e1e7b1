package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestDescribeFailureTemplates(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		prefix string
	}{
		{"transport", errors.New("dial tcp: lookup sftp.example.com: no such host"), "Failed to download locations from sftp server - Network/DNS error."},
		{"auth", errors.New("authentication failed"), "Failed to download locations from sftp server - Authentication error."},
		{"missing", errors.New("Locations_List.xlsx: no such file"), "Failed to download locations from sftp server - File not found."},
		{"unknown", errors.New("unexpected EOF"), "Failed to download locations from sftp server - unknown:"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := describeFailure("download locations", "sftp server", tc.err)
			if !strings.HasPrefix(got, tc.prefix) {
				t.Errorf("describeFailure() = %q, want prefix %q", got, tc.prefix)
			}
		})
	}
}

