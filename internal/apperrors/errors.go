package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can map it without string matching.
type Kind string

const (
	UnknownUser     Kind = "UnknownUser"
	UnknownPost     Kind = "UnknownPost"
	SelfFollow      Kind = "SelfFollow"
	EmptyComment    Kind = "EmptyComment"
	CommentTooLong  Kind = "CommentTooLong"
	Conflict        Kind = "Conflict"
	Unavailable     Kind = "Unavailable"
	InvalidArgument Kind = "InvalidArgument"
	Unauthenticated Kind = "Unauthenticated"
	Forbidden       Kind = "Forbidden"
	Internal        Kind = "Internal"
)

// Error is the structured error returned by stores and services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperrors.New(Conflict, ""))
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err is of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether a caller may safely retry the whole intent.
func Retryable(err error) bool {
	switch KindOf(err) {
	case Conflict, Unavailable:
		return true
	}
	return false
}

// Infrastructure reports whether err came from the storage layer rather than
// from validating the request. Only these failures count against the breaker.
func Infrastructure(err error) bool {
	switch KindOf(err) {
	case Unavailable, Internal:
		return true
	}
	return false
}
