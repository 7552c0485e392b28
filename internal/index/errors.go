package index

import (
	"errors"
	"fmt"
)

const (
	// CodeNotBuilt distinguishes "no snapshot exists yet" from an
	// empty result so callers know to trigger a rebuild.
	CodeNotBuilt = "not_built"
	// CodeStale marks a snapshot older than the freshness window.
	CodeStale = "stale"
	// CodeNoDocuments means a rebuild was requested but the source
	// had nothing to index. Unrecoverable for that request.
	CodeNoDocuments = "no_documents"
	// CodeStorage covers persistence failures.
	CodeStorage = "storage"
	// CodeValidation covers malformed requests.
	CodeValidation = "validation"
)

// Error is a coded pipeline error. Transient errors are safe to retry
// unchanged.
type Error struct {
	Code      string
	Message   string
	Transient bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...any) *Error {
	transient := code == CodeStorage || code == CodeStale
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Transient: transient}
}

// CodeOf extracts the error code, or "" for uncoded errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
