package common

import (
	"errors"
	"fmt"
)

// The engine distinguishes four error kinds. InputError and NotFoundError
// surface to the caller; UpstreamError only ever triggers escalation to the
// next prediction tier; ErrExhaustedFallback marks a defect in the
// deterministic tier and is fatal.

// InputError marks a request the caller must fix: out-of-range years,
// negative counts, non-finite feature values. Never triggers fallback.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// NewInputError creates an InputError with a formatted reason
func NewInputError(format string, args ...interface{}) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is (or wraps) an InputError
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}

// NotFoundError marks a well-formed spatial unit id absent from the
// feature registry
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("spatial unit not found: %s", e.ID)
}

// NewNotFoundError creates a NotFoundError for a unit id
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// UpstreamError marks a failed external prediction tier: connection
// refused, timeout, or a semantically invalid response. Never surfaced to
// the caller directly.
type UpstreamError struct {
	Strategy string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("prediction strategy %s unavailable: %v", e.Strategy, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps a tier failure
func NewUpstreamError(strategy string, err error) *UpstreamError {
	return &UpstreamError{Strategy: strategy, Err: err}
}

// ErrExhaustedFallback should be unreachable: the deterministic tier cannot
// fail on valid input. Reaching it means the heuristic has a defect.
var ErrExhaustedFallback = errors.New("prediction fallback chain exhausted")
