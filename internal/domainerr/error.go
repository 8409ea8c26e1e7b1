// Package domainerr implements the error-kind taxonomy the ingestion engine
// uses for every failure that must be classified rather than simply wrapped:
// config gaps, transport failures, auth failures, missing sources, parse
// failures, batch conflicts, and timeouts.
package domainerr

import (
	"errors"
	"fmt"
)

// Error kinds. These are not HTTP status codes; they describe why a phase or
// batch failed so the job engine can pick a human-readable error_message and
// decide whether the failure is fatal to the phase.
const (
	KindConfigMissing = "config_missing"
	KindTransport     = "transport"
	KindAuthN         = "authn"
	KindSourceMissing = "source_missing"
	KindParse         = "parse"
	KindBatchConflict = "batch_conflict"
	KindTimeout       = "timeout"
	KindUnknown       = "unknown"
)

// Error is a classified application error.
type Error struct {
	// Kind is one of the Kind* constants above.
	Kind string

	// Message is a human-readable message safe to surface as a job's
	// error_message.
	Message string

	// Op is the operation where the error occurred, e.g. "warehouse.extract".
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind extracts the error kind from err. Returns "" for nil and KindUnknown
// for non-domainerr errors.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err has the given kind.
func Is(err error, kind string) bool {
	return Kind(err) == kind
}

// Errorf creates a new classified error with a formatted message.
func Errorf(kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a kind, operation, and message,
// preserving the original for logging/unwrapping.
func Wrap(err error, kind, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// ConfigMissing reports that a tenant's sub-configuration is absent,
// disabled, or missing a required field.
func ConfigMissing(op, message string) error {
	return &Error{Kind: KindConfigMissing, Op: op, Message: message}
}

// Timeout reports the 30-minute job wall-clock budget was exceeded.
func Timeout(op, message string) error {
	return &Error{Kind: KindTimeout, Op: op, Message: message}
}
