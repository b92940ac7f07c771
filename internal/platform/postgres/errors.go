package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors names the store error reported for each constraint the
// migrations declare. Constraints missing here fall back to the error class
// of their SQLSTATE.
var constraintErrors = map[string]error{
	"users_email_key":            store.ErrEmailExists,
	"tours_name_key":             store.ErrTourNameExists,
	"reviews_tour_user_key":      store.ErrReviewExists,
	"reviews_tour_id_fkey":       fmt.Errorf("%w: tour", store.ErrReferenceNotFound),
	"reviews_user_id_fkey":       fmt.Errorf("%w: user", store.ErrReferenceNotFound),
	"tours_price_discount_check": errDiscountAbovePrice,
}

var errDiscountAbovePrice = domain.NewValidationError("priceDiscount",
	"discount price should be below regular price", store.ErrInvalidEntity)

// MapError translates a driver error into the store error taxonomy. The
// driver error stays in the chain for logging; API responses only use the
// store sentinel.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %w", mapped, err)
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %s: %w", store.ErrDuplicate, pgErr.ConstraintName, err)
	case foreignKeyViolationCode:
		return fmt.Errorf("%w: %s: %w", store.ErrReferenceNotFound, pgErr.ConstraintName, err)
	case checkViolationCode:
		return fmt.Errorf("%w: %s: %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: %s is required: %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected returns notFound, or store.ErrNotFound when notFound is
// nil, if the statement touched no rows. UPDATE and DELETE use it to detect a
// missing target row.
func CheckRowsAffected(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}
