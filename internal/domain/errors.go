package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("please provide a valid email")

	// ErrInvalidPassword is returned when a password doesn't meet requirements.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidLocation is returned for malformed coordinates or units.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field.
// It always matches ErrValidation, plus Err when a more specific sentinel is supplied.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field.
// A nil err defaults to ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface. The message is client-facing.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap exposes both the specific sentinel and ErrValidation to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Err == ErrValidation {
		return []error{ErrValidation}
	}
	return []error{e.Err, ErrValidation}
}

// FieldError is a convenience for validators reporting on a named field.
func FieldError(field string, sentinel error) *ValidationError {
	return NewValidationError(field, sentinel.Error(), sentinel)
}
