package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/platform/mailer"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// DefaultResetTokenLifetime bounds how long an emailed reset token is accepted.
const DefaultResetTokenLifetime = 10 * time.Minute

// AuthResult is a user together with a freshly issued access token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// ResetURLFunc renders the link emailed for a plaintext reset token.
type ResetURLFunc func(token string) string

// AuthService implements the authentication flows.
type AuthService interface {
	// Signup registers a user with role user and logs them in.
	Signup(ctx context.Context, in *SignupInput) (*AuthResult, error)

	// Login checks credentials. Returns ErrMissingCredentials or
	// ErrIncorrectCredentials.
	Login(ctx context.Context, in *LoginInput) (*AuthResult, error)

	// Protect verifies an access token and returns its active user.
	// Returns an auth token error, ErrUserGone or ErrPasswordChanged.
	Protect(ctx context.Context, token string) (*domain.User, error)

	// ForgotPassword emails a reset link built by resetURL.
	// Returns ErrNoUserWithEmail or ErrEmailDelivery.
	ForgotPassword(ctx context.Context, email string, resetURL ResetURLFunc) error

	// ResetPassword sets a new password using an emailed token.
	// Returns ErrResetTokenInvalid for unknown or expired tokens.
	ResetPassword(ctx context.Context, token string, in *ResetPasswordInput) (*AuthResult, error)

	// UpdatePassword changes the actor's password after checking the
	// current one. Returns ErrWrongCurrentPassword.
	UpdatePassword(ctx context.Context, actor *domain.User, in *PasswordUpdateInput) (*AuthResult, error)
}

// AuthServiceConfig holds the tunables of an AuthService.
type AuthServiceConfig struct {
	ResetTokenLifetime time.Duration
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// PasswordHashVerifier hashes and verifies passwords.
type PasswordHashVerifier interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

type authServiceImpl struct {
	users     store.UserStore
	registrar *UserServiceImpl
	jwt       auth.JWTService
	passwords PasswordHashVerifier
	mail      mailer.Sender
	tx        store.Transactor
	cfg       AuthServiceConfig
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users store.UserStore,
	jwtService auth.JWTService,
	passwords PasswordHashVerifier,
	mail mailer.Sender,
	tx store.Transactor,
	cfg AuthServiceConfig,
	logger *slog.Logger,
) (AuthService, error) {
	if jwtService == nil {
		return nil, domain.NewValidationError("jwtService", "cannot be nil", domain.ErrValidation)
	}
	if mail == nil {
		return nil, domain.NewValidationError("mail", "cannot be nil", domain.ErrValidation)
	}
	registrar, err := NewUserService(users, passwords, tx, logger)
	if err != nil {
		return nil, err
	}
	if cfg.ResetTokenLifetime <= 0 {
		cfg.ResetTokenLifetime = DefaultResetTokenLifetime
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &authServiceImpl{
		users:     users,
		registrar: registrar,
		jwt:       jwtService,
		passwords: passwords,
		mail:      mail,
		tx:        registrar.tx,
		cfg:       cfg,
		logger:    logger.With("component", "auth_service"),
	}, nil
}

// Signup implements AuthService.Signup
func (s *authServiceImpl) Signup(ctx context.Context, in *SignupInput) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.registrar.register(ctx, in, domain.RoleUser, "")
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to sign up user", "error", err)
		}
		return nil, err
	}

	log.Info("user signed up", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Login implements AuthService.Login
func (s *authServiceImpl) Login(ctx context.Context, in *LoginInput) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			return nil, ErrIncorrectCredentials
		}
		log.Error("failed to look up user for login", "error", err)
		return nil, newServiceError("auth", "login", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Debug("login with wrong password", "user_id", user.ID)
			return nil, ErrIncorrectCredentials
		}
		return nil, newServiceError("auth", "login", err)
	}

	log.Info("user logged in", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Protect implements AuthService.Protect
func (s *authServiceImpl) Protect(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, auth.ErrMissingToken
	}

	claims, err := s.jwt.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserGone
		}
		return nil, newServiceError("auth", "protect", err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

// ForgotPassword implements AuthService.ForgotPassword
// The token is stored as a hash; only the emailed link carries it in clear.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, email string, resetURL ResetURLFunc) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrNoUserWithEmail
		}
		return newServiceError("auth", "forgot password", err)
	}

	plain, hash, err := auth.NewResetToken()
	if err != nil {
		return newServiceError("auth", "forgot password", err)
	}
	expires := s.cfg.Now().Add(s.cfg.ResetTokenLifetime).UTC()
	user.PasswordResetToken = hash
	user.PasswordResetExpires = &expires

	if err := s.users.Update(ctx, user); err != nil {
		return newServiceError("auth", "store reset token", err)
	}

	msg := mailer.PasswordReset(user.Email, user.Name, resetURL(plain), s.cfg.ResetTokenLifetime)
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Error("failed to send password reset email", "error", err, "user_id", user.ID)

		user.ClearPasswordReset()
		if clearErr := s.users.Update(ctx, user); clearErr != nil {
			log.Error("failed to clear reset token after email failure",
				"error", clearErr,
				"user_id", user.ID)
		}
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	log.Info("password reset token sent", "user_id", user.ID)
	return nil
}

// ResetPassword implements AuthService.ResetPassword
func (s *authServiceImpl) ResetPassword(ctx context.Context, token string, in *ResetPasswordInput) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if token == "" {
		return nil, ErrResetTokenInvalid
	}
	if in.Password != in.PasswordConfirm {
		return nil, errPasswordsDiffer
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByResetToken(ctx, auth.HashResetToken(token), s.cfg.Now())
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		if err := s.setPassword(ctx, u, in.Password); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrResetTokenInvalid) {
			log.Error("failed to reset password", "error", err)
		}
		return nil, err
	}

	log.Info("password reset", "user_id", user.ID)
	return s.issue(ctx, user)
}

// UpdatePassword implements AuthService.UpdatePassword
func (s *authServiceImpl) UpdatePassword(
	ctx context.Context,
	actor *domain.User,
	in *PasswordUpdateInput,
) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if in.Password != in.PasswordConfirm {
		return nil, errPasswordsDiffer
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if err := s.passwords.Compare(u.HashedPassword, in.PasswordCurrent); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return ErrWrongCurrentPassword
			}
			return err
		}
		if err := s.setPassword(ctx, u, in.Password); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrWrongCurrentPassword) && !isExpected(err) {
			log.Error("failed to update password", "error", err, "user_id", actor.ID)
		}
		return nil, err
	}

	log.Info("password updated", "user_id", user.ID)
	return s.issue(ctx, user)
}

// setPassword hashes password onto u, stamps passwordChangedAt, clears
// any reset token and persists u.
func (s *authServiceImpl) setPassword(ctx context.Context, u *domain.User, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return err
	}
	u.SetPassword(hash, s.cfg.Now())
	return s.users.Update(ctx, u)
}

func (s *authServiceImpl) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.IssueToken(ctx, user.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to issue token",
			"error", err,
			"user_id", user.ID)
		return nil, newServiceError("auth", "issue token", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
