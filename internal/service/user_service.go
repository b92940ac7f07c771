package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// UserService provides administrative user CRUD and the self-service
// profile operations.
type UserService interface {
	Find(ctx context.Context, spec query.Spec) ([]*domain.User, error)
	Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.User, error)

	// Create registers a user with an explicit role.
	Create(ctx context.Context, in *UserInput) (*domain.User, error)

	// Update applies an administrative patch. Passwords never change here.
	Update(ctx context.Context, id uuid.UUID, in *domain.UserPatch) (*domain.User, error)

	// Delete removes a user permanently.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateMe changes the actor's name, email or photo.
	// Returns ErrPasswordRoute if the input carries a password.
	UpdateMe(ctx context.Context, actor *domain.User, in *MeInput) (*domain.User, error)

	// DeleteMe deactivates the actor's account.
	DeleteMe(ctx context.Context, actor *domain.User) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users  store.UserStore
	hasher auth.PasswordHasher
	tx     store.Transactor
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	tx store.Transactor,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		tx = store.NoTx
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		users:  users,
		hasher: hasher,
		tx:     tx,
		logger: logger.With("component", "user_service"),
	}, nil
}

// Find lists active users matching spec.
func (s *UserServiceImpl) Find(ctx context.Context, spec query.Spec) ([]*domain.User, error) {
	resolved, err := store.UserSchema.Resolve(spec)
	if err != nil {
		return nil, err
	}

	users, err := s.users.Find(ctx, resolved)
	if err != nil {
		return nil, newServiceError("user", "find", err)
	}
	return users, nil
}

// Get retrieves a user by their ID
func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID, _ ...string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("user not found", "user_id", id)
		} else {
			log.Error("failed to retrieve user",
				"error", err,
				"user_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// Create registers a user with the role in the input. An empty role
// defaults to user.
func (s *UserServiceImpl) Create(ctx context.Context, in *UserInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.register(ctx, &in.SignupInput, in.Role, in.Photo)
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create user", "error", err, "email", in.Email)
		}
		return nil, err
	}

	log.Info("user created by administrator",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

// register validates, hashes and stores a new user.
func (s *UserServiceImpl) register(ctx context.Context, in *SignupInput, role domain.Role, photo string) (*domain.User, error) {
	if in.Password != in.PasswordConfirm {
		return nil, errPasswordsDiffer
	}

	user, err := domain.NewUser(in.Name, in.Email, in.Password, role)
	if err != nil {
		return nil, err
	}
	if photo != "" {
		user.Photo = photo
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, newServiceError("user", "hash password", err)
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update applies an administrative patch.
// Following the pattern of getting the complete user first, then updating
// the specific fields inside one transaction.
func (s *UserServiceImpl) Update(ctx context.Context, id uuid.UUID, in *domain.UserPatch) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.modify(ctx, id, in)
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update user", "error", err, "user_id", id)
		}
		return nil, err
	}

	log.Info("user updated", "user_id", id)
	return user, nil
}

func (s *UserServiceImpl) modify(ctx context.Context, id uuid.UUID, patch *domain.UserPatch) (*domain.User, error) {
	var updated *domain.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		patch.Apply(user)
		if err := user.Validate(); err != nil {
			return err
		}

		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user permanently.
func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.users.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to delete user", "error", err, "user_id", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted", "user_id", id)
	return nil
}

// UpdateMe implements UserService.UpdateMe
func (s *UserServiceImpl) UpdateMe(ctx context.Context, actor *domain.User, in *MeInput) (*domain.User, error) {
	if in.Password != nil || in.PasswordConfirm != nil {
		return nil, ErrPasswordRoute
	}

	user, err := s.modify(ctx, actor.ID, in.patch())
	if err != nil {
		if !isExpected(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to update own profile",
				"error", err,
				"user_id", actor.ID)
		}
		return nil, err
	}
	return user, nil
}

// DeleteMe implements UserService.DeleteMe
func (s *UserServiceImpl) DeleteMe(ctx context.Context, actor *domain.User) error {
	inactive := false
	if _, err := s.modify(ctx, actor.ID, &domain.UserPatch{Active: &inactive}); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user deactivated", "user_id", actor.ID)
	return nil
}

var errPasswordsDiffer = domain.NewValidationError("passwordConfirm", "passwords are not the same", nil)

var _ UserService = (*UserServiceImpl)(nil)
