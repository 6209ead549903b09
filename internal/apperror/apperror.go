// Package apperror defines the error taxonomy shared by services and HTTP
// handlers.  Every failure a caller can observe carries a stable Kind and a
// human-readable message; handlers translate the Kind into a status code
// without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of a failure.
type Kind string

const (
	MissingToken       Kind = "missing_token"
	InvalidToken       Kind = "invalid_token"
	ExpiredToken       Kind = "expired_token"
	InvalidUser        Kind = "invalid_user"
	Forbidden          Kind = "forbidden"
	NotFound           Kind = "not_found"
	DuplicateUsername  Kind = "duplicate_username"
	InvalidCredentials Kind = "invalid_credentials"
	Validation         Kind = "validation_error"
	Internal           Kind = "internal_error"
)

// Unauthenticated reports whether k means the caller could not be
// identified.
func (k Kind) Unauthenticated() bool {
	switch k {
	case MissingToken, InvalidToken, ExpiredToken, InvalidUser:
		return true
	}
	return false
}

// Error is a classified failure.  Err, when set, is the underlying cause and
// is never shown to the caller.
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

// Is matches any *Error of the same Kind, so errors.Is(err, apperror.E(k, ""))
// and Is(err, k) behave alike.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// E builds an *Error of kind k.
func E(k Kind, msg string) *Error { return &Error{Kind: k, Message: msg} }

// Wrap builds an *Error of kind k around cause.
func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal
// when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// MessageOf returns the caller-facing message for err.  Unclassified errors
// get a generic text so internal details never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
