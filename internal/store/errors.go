package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by every backend. Callers match them with errors.Is;
// the entity variants below wrap the generic ones.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrReferenceNotFound = errors.New("referenced entity not found")
	ErrTransactionFailed = errors.New("transaction failed")

	ErrUserNotFound   = fmt.Errorf("%w: user", ErrNotFound)
	ErrTourNotFound   = fmt.Errorf("%w: tour", ErrNotFound)
	ErrReviewNotFound = fmt.Errorf("%w: review", ErrNotFound)

	ErrEmailExists    = fmt.Errorf("%w: email", ErrDuplicate)
	ErrTourNameExists = fmt.Errorf("%w: tour name", ErrDuplicate)
	// ErrReviewExists means the user already reviewed the tour.
	ErrReviewExists = fmt.Errorf("%w: review", ErrDuplicate)
)

// StoreError records which operation on which entity failed. Err is the
// store sentinel or, for unmapped failures, the driver error.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Entity, e.Operation, e.Message)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Entity, e.Operation, e.Message, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
