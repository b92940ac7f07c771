package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore_Create_OK_and_EmailTaken(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(rowArgs(u.ID, 11)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.Create(ctx, u))

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(rowArgs(u.ID, 11)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	require.ErrorIs(t, s.Create(ctx, u), store.ErrEmailExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_Create_RequiresHash(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)

	u := sampleUser()
	u.HashedPassword = ""
	require.ErrorIs(t, s.Create(context.Background(), u), domain.ErrEmptyHashedPassword)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_GetByEmail_ActiveOnly(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectQuery(`FROM users WHERE email = \$1 AND active = TRUE`).
		WithArgs("leo@example.io").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(userRow(u)...))
	got, err := s.GetByEmail(ctx, "  LEO@example.io ")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	mock.ExpectQuery(`FROM users WHERE email = \$1 AND active = TRUE`).
		WithArgs("ghost@example.io").
		WillReturnError(pgx.ErrNoRows)
	_, err = s.GetByEmail(ctx, "ghost@example.io")
	require.ErrorIs(t, err, store.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_GetByResetToken(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(5 * time.Minute)

	u := sampleUser()
	u.PasswordResetToken = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"
	u.PasswordResetExpires = &expires

	mock.ExpectQuery(`password_reset_token = \$1 AND password_reset_expires > \$2 AND active = TRUE`).
		WithArgs(u.PasswordResetToken, now).
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(userRow(u)...))

	got, err := s.GetByResetToken(context.Background(), u.PasswordResetToken, now)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordResetToken, got.PasswordResetToken)
	require.NotNil(t, got.PasswordResetExpires)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_Find_FiltersInactive(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)

	spec, err := store.UserSchema.Resolve(
		query.FromValues(map[string][]string{"role": {"guide", "lead-guide"}, "sort": {"name"}}, query.Options{}))
	require.NoError(t, err)

	mock.ExpectQuery(`FROM users WHERE active = TRUE AND role IN \(\$1, \$2\) ORDER BY name ASC, id ASC LIMIT \$3 OFFSET \$4`).
		WithArgs("guide", "lead-guide", 100, 0).
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(userRow(sampleUser())...))

	users, err := s.Find(context.Background(), spec)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_Summaries_PreservesOrder(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)
	a, b, missing := uuid.New(), uuid.New(), uuid.New()
	ids := []uuid.UUID{b, missing, a}

	mock.ExpectQuery(`FROM users WHERE id = ANY\(\$1\)`).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "photo", "role"}).
			AddRow(a, "Ann", "ann@example.io", "ann.jpg", "lead-guide").
			AddRow(b, "Bob", "bob@example.io", "bob.jpg", "guide"))

	out, err := s.Summaries(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, b, out[0].ID)
	assert.Equal(t, domain.RoleGuide, out[0].Role)
	assert.Equal(t, a, out[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_Summaries_Empty(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)

	out, err := s.Summaries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_UpdateAndDelete_NotFound(t *testing.T) {
	db, mock := newDB(t)
	s := NewPostgresUserStore(db, nil)
	u := sampleUser()

	mock.ExpectExec(`UPDATE users`).
		WithArgs(rowArgs(u.ID, 10)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, s.Update(context.Background(), u), store.ErrUserNotFound)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(u.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, s.Delete(context.Background(), u.ID), store.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
