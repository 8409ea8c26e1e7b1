package ingest

import (
	"fmt"

	"github.com/ingestio/enginecore/internal/domainerr"
)

// describeFailure builds the human-readable error_message a phase or batch
// failure is recorded under: "Failed to <action> from <source> -
// <description>. <hint>" for network, authentication, and missing-file
// failures, and "Failed to <action> from <source> - <kind>: <message>" for
// anything else.
func describeFailure(action, source string, err error) string {
	kind, hint := domainerr.Classify(err)

	switch kind {
	case domainerr.KindTransport:
		return fmt.Sprintf("Failed to %s from %s - Network/DNS error. %s", action, source, hint)
	case domainerr.KindAuthN:
		return fmt.Sprintf("Failed to %s from %s - Authentication error. %s", action, source, hint)
	case domainerr.KindSourceMissing:
		return fmt.Sprintf("Failed to %s from %s - File not found. %s", action, source, hint)
	default:
		return fmt.Sprintf("Failed to %s from %s - %s: %s", action, source, kind, err.Error())
	}
}
