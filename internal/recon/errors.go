package recon

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the pipeline and its collaborators.
type Kind string

const (
	KindBadClientRequest       Kind = "BadClientRequest"
	KindNotFound               Kind = "TaskNotFound"
	KindConnectionError        Kind = "ConnectionError"
	KindInternalError          Kind = "InternalError"
	KindResponseUnmarshalError Kind = "ResponseUnmarshalError"
)

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("%s - [%s]", e.Kind, e.Message) }

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error without a cause.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an *Error whose message is cause's text.
func WrapError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternalError for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalError
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
