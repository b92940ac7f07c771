package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps each to a status code.
var (
	// ErrForbidden indicates the actor may not act on the resource, such as
	// a user editing another user's review. Maps to 403.
	ErrForbidden = errors.New("you do not have permission to perform this action")

	// ErrMissingCredentials indicates a login without email or password. Maps to 400.
	ErrMissingCredentials = errors.New("please provide email and password")

	// ErrIncorrectCredentials indicates an unknown email or a wrong password.
	// The two cases are deliberately indistinguishable. Maps to 401.
	ErrIncorrectCredentials = errors.New("incorrect email or password")

	// ErrWrongCurrentPassword is returned by UpdatePassword. Maps to 401.
	ErrWrongCurrentPassword = errors.New("your current password is wrong")

	// ErrResetTokenInvalid indicates an unknown or expired reset token. Maps to 400.
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")

	// ErrNoUserWithEmail is returned by ForgotPassword for an unknown address. Maps to 404.
	ErrNoUserWithEmail = errors.New("there is no user with email address")

	// ErrPasswordRoute indicates a password change sent to updateMe. Maps to 400.
	ErrPasswordRoute = errors.New("this route is not for password updates")

	// ErrEmailDelivery indicates the reset email could not be sent. Maps to 500.
	ErrEmailDelivery = errors.New("there was an error sending the email")

	// ErrNotImplemented marks an operation a resource does not support.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrUserGone indicates a valid token whose user was deleted or
	// deactivated. Maps to 401.
	ErrUserGone = errors.New("the user belonging to this token no longer exists")

	// ErrPasswordChanged indicates a token issued before the last password
	// change. Maps to 401.
	ErrPasswordChanged = errors.New("user recently changed password")
)

// ServiceError records the service and operation an unexpected error came from.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(service, op string, err error) error {
	return &ServiceError{Service: service, Op: op, Err: err}
}
