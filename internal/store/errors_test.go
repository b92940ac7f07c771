package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelHierarchy(t *testing.T) {
	tests := []struct {
		err    error
		parent error
	}{
		{ErrUserNotFound, ErrNotFound},
		{ErrTourNotFound, ErrNotFound},
		{ErrReviewNotFound, ErrNotFound},
		{ErrEmailExists, ErrDuplicate},
		{ErrTourNameExists, ErrDuplicate},
		{ErrReviewExists, ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.parent)
			assert.ErrorIs(t, fmt.Errorf("service: %w", tt.err), tt.parent)
		})
	}
	assert.NotErrorIs(t, ErrEmailExists, ErrNotFound)
	assert.NotErrorIs(t, ErrTourNotFound, ErrDuplicate)
}

func TestStoreError(t *testing.T) {
	t.Run("wraps a sentinel", func(t *testing.T) {
		err := NewStoreError("tour", "update", "no matching document", ErrTourNotFound)
		assert.Equal(t, "tour update: no matching document: entity not found: tour", err.Error())
		assert.ErrorIs(t, err, ErrTourNotFound)
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewStoreError("review", "delete", "nothing to delete", nil)
		assert.Equal(t, "review delete: nothing to delete", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("found through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("signup: %w", NewStoreError("user", "create", "E11000", ErrEmailExists))
		var se *StoreError
		require.ErrorAs(t, wrapped, &se)
		assert.Equal(t, "user", se.Entity)
		assert.ErrorIs(t, wrapped, ErrDuplicate)
	})
}
