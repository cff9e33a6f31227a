package domain

import "errors"

// Error kinds. Service errors unwrap to exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// ErrAlreadyExists is returned by a CredentialStore when inserting an email
// that already has a record.
var ErrAlreadyExists = errors.New("already exists")

// Error is a failure with a fixed, user-safe message. It unwraps to its Kind
// so callers can branch with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError creates an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation returns an ErrValidation error with the given message.
func Validation(message string) *Error { return NewError(ErrValidation, message) }

// Conflict returns an ErrConflict error with the given message.
func Conflict(message string) *Error { return NewError(ErrConflict, message) }

// Unauthorized returns an ErrUnauthorized error with the given message.
func Unauthorized(message string) *Error { return NewError(ErrUnauthorized, message) }

// NotFound returns an ErrNotFound error with the given message.
func NotFound(message string) *Error { return NewError(ErrNotFound, message) }

// PublicMessage returns the user-safe message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}
