package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/mailer"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/store"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type authFixture struct {
	users *MockUserStore
	jwt   *MockJWTService
	mail  *MockMailer
	tx    *recordingTx
	svc   AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users: new(MockUserStore),
		jwt:   new(MockJWTService),
		mail:  new(MockMailer),
		tx:    &recordingTx{},
	}
	svc, err := NewAuthService(f.users, f.jwt, plainHasher{}, f.mail, f.tx, AuthServiceConfig{
		ResetTokenLifetime: 10 * time.Minute,
		Now:                func() time.Time { return fixedNow },
	}, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *authFixture) expectToken(userID uuid.UUID) {
	f.jwt.On("IssueToken", mock.Anything, userID).Return("signed.jwt.token", fixedNow.Add(time.Hour), nil)
}

func TestNewAuthService(t *testing.T) {
	_, err := NewAuthService(new(MockUserStore), nil, plainHasher{}, new(MockMailer), nil, AuthServiceConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewAuthService(new(MockUserStore), new(MockJWTService), plainHasher{}, nil, nil, AuthServiceConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewAuthService(nil, new(MockJWTService), plainHasher{}, new(MockMailer), nil, AuthServiceConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Role == domain.RoleUser && u.HashedPassword == "hashed:pass1234"
	})).Return(nil)
	f.jwt.On("IssueToken", ctx, mock.AnythingOfType("uuid.UUID")).Return("signed.jwt.token", fixedNow.Add(time.Hour), nil)

	result, err := f.svc.Signup(ctx, &SignupInput{
		Name:            "Max Smith",
		Email:           "max@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})

	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", result.Token)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.Equal(t, fixedNow.Add(time.Hour), result.ExpiresAt)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   LoginInput
		setup   func(f *authFixture, user *domain.User)
		wantErr error
	}{
		{
			name:    "missing password",
			input:   LoginInput{Email: "leo@example.com"},
			setup:   func(*authFixture, *domain.User) {},
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "missing email",
			input:   LoginInput{Password: "test1234"},
			setup:   func(*authFixture, *domain.User) {},
			wantErr: ErrMissingCredentials,
		},
		{
			name:  "unknown email",
			input: LoginInput{Email: "nobody@example.com", Password: "test1234"},
			setup: func(f *authFixture, _ *domain.User) {
				f.users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, store.ErrUserNotFound)
			},
			wantErr: ErrIncorrectCredentials,
		},
		{
			name:  "wrong password",
			input: LoginInput{Email: "leo@example.com", Password: "wrongpass"},
			setup: func(f *authFixture, u *domain.User) {
				f.users.On("GetByEmail", ctx, "leo@example.com").Return(u, nil)
			},
			wantErr: ErrIncorrectCredentials,
		},
		{
			name:  "success with normalized email",
			input: LoginInput{Email: " LEO@example.com", Password: "test1234"},
			setup: func(f *authFixture, u *domain.User) {
				f.users.On("GetByEmail", ctx, "leo@example.com").Return(u, nil)
				f.expectToken(u.ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			user := sampleUser()
			tt.setup(f, user)

			result, err := f.svc.Login(ctx, &tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				f.jwt.AssertNotCalled(t, "IssueToken", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
			assert.Equal(t, "signed.jwt.token", result.Token)
		})
	}
}

func TestAuthService_Protect(t *testing.T) {
	ctx := context.Background()
	issuedAt := fixedNow.Add(-time.Hour)

	t.Run("missing token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Protect(ctx, "")
		assert.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("invalid token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.jwt.On("ValidateToken", ctx, "bad").Return(nil, auth.ErrInvalidToken)

		_, err := f.svc.Protect(ctx, "bad")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("user no longer exists", func(t *testing.T) {
		f := newAuthFixture(t)
		id := uuid.New()
		f.jwt.On("ValidateToken", ctx, "tok").Return(&auth.Claims{UserID: id, IssuedAt: issuedAt}, nil)
		f.users.On("GetByID", ctx, id).Return(nil, store.ErrUserNotFound)

		_, err := f.svc.Protect(ctx, "tok")

		assert.ErrorIs(t, err, ErrUserGone)
	})

	t.Run("password changed after issue", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		changed := fixedNow.Add(-time.Minute)
		user.PasswordChangedAt = &changed
		f.jwt.On("ValidateToken", ctx, "tok").Return(&auth.Claims{UserID: user.ID, IssuedAt: issuedAt}, nil)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)

		_, err := f.svc.Protect(ctx, "tok")

		assert.ErrorIs(t, err, ErrPasswordChanged)
	})

	t.Run("valid token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		changed := issuedAt.Add(-time.Hour)
		user.PasswordChangedAt = &changed
		f.jwt.On("ValidateToken", ctx, "tok").Return(&auth.Claims{UserID: user.ID, IssuedAt: issuedAt}, nil)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)

		got, err := f.svc.Protect(ctx, "tok")

		require.NoError(t, err)
		assert.Equal(t, user, got)
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	ctx := context.Background()
	resetURL := func(token string) string { return "http://localhost/api/v1/users/resetPassword/" + token }

	t.Run("stores hashed token and emails the plain one", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		var storedHash string
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		f.users.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
			storedHash = u.PasswordResetToken
			return u.PasswordResetToken != "" &&
				u.PasswordResetExpires != nil &&
				u.PasswordResetExpires.Equal(fixedNow.Add(10*time.Minute))
		})).Return(nil).Once()
		var sent mailer.Message
		f.mail.On("Send", ctx, mock.Anything).Run(func(args mock.Arguments) {
			sent = args.Get(1).(mailer.Message)
		}).Return(nil)

		require.NoError(t, f.svc.ForgotPassword(ctx, user.Email, resetURL))

		assert.Equal(t, user.Email, sent.To)
		idx := strings.Index(sent.Text, "resetPassword/")
		require.GreaterOrEqual(t, idx, 0)
		plain := strings.TrimSuffix(strings.Fields(sent.Text[idx+len("resetPassword/"):])[0], ".")
		assert.NotEqual(t, storedHash, plain, "the clear token is never stored")
		assert.Equal(t, storedHash, auth.HashResetToken(plain))
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, store.ErrUserNotFound)

		err := f.svc.ForgotPassword(ctx, "nobody@example.com", resetURL)

		assert.ErrorIs(t, err, ErrNoUserWithEmail)
		f.mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("mail failure clears the token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		f.users.On("Update", ctx, mock.Anything).Return(nil).Twice()
		f.mail.On("Send", ctx, mock.Anything).Return(mailer.ErrUnavailable)

		err := f.svc.ForgotPassword(ctx, user.Email, resetURL)

		assert.ErrorIs(t, err, ErrEmailDelivery)
		assert.ErrorIs(t, err, mailer.ErrUnavailable)
		assert.Empty(t, user.PasswordResetToken)
		assert.Nil(t, user.PasswordResetExpires)
		f.users.AssertNumberOfCalls(t, "Update", 2)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	input := &ResetPasswordInput{Password: "newpass123", PasswordConfirm: "newpass123"}

	t.Run("valid token sets the password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		expires := fixedNow.Add(5 * time.Minute)
		user.PasswordResetToken = auth.HashResetToken("plain-token")
		user.PasswordResetExpires = &expires
		f.users.On("GetByResetToken", ctx, auth.HashResetToken("plain-token"), fixedNow).Return(user, nil)
		f.users.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.HashedPassword == "hashed:newpass123" &&
				u.PasswordResetToken == "" &&
				u.PasswordChangedAt != nil
		})).Return(nil)
		f.expectToken(user.ID)

		result, err := f.svc.ResetPassword(ctx, "plain-token", input)

		require.NoError(t, err)
		assert.Equal(t, "signed.jwt.token", result.Token)
		assert.True(t, user.PasswordChangedAt.Before(fixedNow))
		assert.Equal(t, 1, f.tx.calls)
	})

	t.Run("unknown or expired token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetByResetToken", ctx, mock.Anything, fixedNow).Return(nil, store.ErrUserNotFound)

		_, err := f.svc.ResetPassword(ctx, "stale", input)

		assert.ErrorIs(t, err, ErrResetTokenInvalid)
	})

	t.Run("passwords differ", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.ResetPassword(ctx, "tok", &ResetPasswordInput{Password: "newpass123", PasswordConfirm: "other1234"})

		assert.ErrorIs(t, err, domain.ErrValidation)
		f.users.AssertNotCalled(t, "GetByResetToken", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)

		_, err := f.svc.UpdatePassword(ctx, user, &PasswordUpdateInput{
			PasswordCurrent: "nottheone",
			Password:        "newpass123",
			PasswordConfirm: "newpass123",
		})

		assert.ErrorIs(t, err, ErrWrongCurrentPassword)
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("success issues a fresh token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.users.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.HashedPassword == "hashed:newpass123"
		})).Return(nil)
		f.expectToken(user.ID)

		result, err := f.svc.UpdatePassword(ctx, user, &PasswordUpdateInput{
			PasswordCurrent: "test1234",
			Password:        "newpass123",
			PasswordConfirm: "newpass123",
		})

		require.NoError(t, err)
		assert.Equal(t, "signed.jwt.token", result.Token)
		require.NotNil(t, result.User.PasswordChangedAt)
		assert.False(t, result.User.ChangedPasswordAfter(fixedNow), "token issued now stays valid")
	})

	t.Run("token issue failure", func(t *testing.T) {
		f := newAuthFixture(t)
		user := sampleUser()
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.users.On("Update", ctx, mock.Anything).Return(nil)
		f.jwt.On("IssueToken", ctx, user.ID).Return("", time.Time{}, errors.New("signing failed"))

		_, err := f.svc.UpdatePassword(ctx, user, &PasswordUpdateInput{
			PasswordCurrent: "test1234",
			Password:        "newpass123",
			PasswordConfirm: "newpass123",
		})

		var se *ServiceError
		assert.ErrorAs(t, err, &se)
	})
}
