package reason

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// ErrorKind enumerates the concept-level error kinds this package can
// return. Kind is carried on every *Error returned by this package so
// callers can
// discriminate with errors.As without string-matching messages.
type ErrorKind int

const (
	ErrMaxIterationsExceeded ErrorKind = iota
	ErrMaxFactsExceeded
	ErrTaskTimeout
	ErrTaskCrashed
	ErrInvalidRule
	ErrBindingLimitExceeded
	ErrInvalidIRI
	ErrUnknownRule
	ErrUnknownProfile
	ErrNotFound
	ErrBackendError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMaxIterationsExceeded:
		return "max_iterations_exceeded"
	case ErrMaxFactsExceeded:
		return "max_facts_exceeded"
	case ErrTaskTimeout:
		return "task_timeout"
	case ErrTaskCrashed:
		return "task_crashed"
	case ErrInvalidRule:
		return "invalid_rule"
	case ErrBindingLimitExceeded:
		return "binding_limit_exceeded"
	case ErrInvalidIRI:
		return "invalid_iri"
	case ErrUnknownRule:
		return "unknown_rule"
	case ErrUnknownProfile:
		return "unknown_profile"
	case ErrNotFound:
		return "not_found"
	case ErrBackendError:
		return "backend_error"
	default:
		return "unknown_error_kind"
	}
}

// Error is the concrete error type this package returns. Kind
// classifies the failure into a recoverability category; Cause
// preserves a wrapped backend or inner error when present.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, SomeKindSentinel)-style matching against
// another *Error by Kind alone, so callers can do
// errors.Is(err, &Error{Kind: ErrNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newErrorWithCause(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// wrapBackendError implements the propagation policy: all errors
// from store_fn/lookup_fn abort the current operation with the backend
// error preserved unchanged.
func wrapBackendError(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return newErrorWithCause(ErrBackendError, err, "storage backend error")
}

// KindOf extracts the ErrorKind from err, if err is (or wraps) an
// *Error, and reports whether one was found.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// newVersionID mints an opaque version/registry-key identifier using
// hashicorp/go-uuid, matching the nomad-style idiom of delegating
// random-id generation to a dedicated small library rather than
// hand-rolling one over crypto/rand.
func newVersionID() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", newErrorWithCause(ErrBackendError, err, "failed to generate version id")
	}
	return id, nil
}
