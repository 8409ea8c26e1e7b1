package domainerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind string
	}{
		{"dns", errors.New(`dial tcp: lookup sftp.example.com: no such host`), KindTransport},
		{"auth", errors.New("authentication failed for user bq-ingest"), KindAuthN},
		{"permission", errors.New("permission denied on table purchase"), KindAuthN},
		{"missing file", errors.New("Locations_List.xlsx: no such file"), KindSourceMissing},
		{"unknown", errors.New("unexpected EOF"), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, _ := Classify(tc.err)
			assert.Equal(t, tc.kind, kind)
		})
	}
}
