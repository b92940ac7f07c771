package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
)

var userColumns = columns{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"photo":     "photo",
	"role":      "role",
	"createdAt": "created_at",
}

const userSelect = `SELECT id, name, email, photo, role, hashed_password, password_changed_at, ` +
	`password_reset_token, password_reset_expires, active, created_at FROM users`

const activeOnly = "active = TRUE"

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     *DB
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db *DB, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	var resetToken *string
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Photo,
		&role,
		&u.HashedPassword,
		&u.PasswordChangedAt,
		&resetToken,
		&u.PasswordResetExpires,
		&u.Active,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	if resetToken != nil {
		u.PasswordResetToken = *resetToken
	}
	return &u, nil
}

func (s *PostgresUserStore) getOne(ctx context.Context, where string, arg ...any) (*domain.User, error) {
	user, err := scanUser(s.db.conn(ctx).QueryRow(ctx, userSelect+" WHERE "+where+" AND "+activeOnly, arg...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}
	return user, nil
}

// Find implements store.UserStore.Find
func (s *PostgresUserStore) Find(ctx context.Context, spec query.Spec) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sql, args, err := renderList(userSelect, spec, userColumns, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to render user query: %w", err)
	}
	rows, err := s.db.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		log.Error("failed to query users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("retrieving user by ID", slog.String("user_id", id.String()))

	return s.getOne(ctx, "id = $1", id)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, "email = $1", domain.NormalizeEmail(email))
}

// GetByResetToken implements store.UserStore.GetByResetToken
func (s *PostgresUserStore) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return s.getOne(ctx, "password_reset_token = $1 AND password_reset_expires > $2", tokenHash, now)
}

// Summaries implements store.UserStore.Summaries
func (s *PostgresUserStore) Summaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}

	rows, err := s.db.conn(ctx).Query(ctx,
		`SELECT id, name, email, photo, role FROM users WHERE id = ANY($1) AND `+activeOnly, ids)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]domain.UserSummary, len(ids))
	for rows.Next() {
		var sum domain.UserSummary
		var role string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Email, &sum.Photo, &role); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		sum.Role = domain.Role(role)
		byID[sum.ID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.UserSummary, 0, len(byID))
	for _, id := range ids {
		if sum, ok := byID[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create implements store.UserStore.Create
// Returns store.ErrEmailExists if the email is already taken.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.FieldError("password", domain.ErrEmptyHashedPassword)
	}
	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	const sql = `
		INSERT INTO users (id, name, email, photo, role, hashed_password, password_changed_at,
			password_reset_token, password_reset_expires, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.conn(ctx).Exec(ctx, sql,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		string(user.Role),
		user.HashedPassword,
		user.PasswordChangedAt,
		nullable(user.PasswordResetToken),
		user.PasswordResetExpires,
		user.Active,
		user.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("email already exists", slog.String("user_id", user.ID.String()))
			return MapError(err)
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return nil
}

// Update implements store.UserStore.Update
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	const sql = `
		UPDATE users
		SET name = $2, email = $3, photo = $4, role = $5, hashed_password = $6,
			password_changed_at = $7, password_reset_token = $8, password_reset_expires = $9,
			active = $10
		WHERE id = $1
	`
	tag, err := s.db.conn(ctx).Exec(ctx, sql,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		string(user.Role),
		user.HashedPassword,
		user.PasswordChangedAt,
		nullable(user.PasswordResetToken),
		user.PasswordResetExpires,
		user.Active,
	)
	if err != nil {
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(tag, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Debug("user updated", slog.String("user_id", user.ID.String()))
	return nil
}

// Delete implements store.UserStore.Delete
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tag, err := s.db.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(tag, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user deleted", slog.String("user_id", id.String()))
	return nil
}

// DeleteAll implements store.UserStore.DeleteAll
func (s *PostgresUserStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.conn(ctx).Exec(ctx, `DELETE FROM users`)
	return MapError(err)
}
