package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestJWTService(t *testing.T, secret string, lifetime time.Duration, now func() time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(secret, lifetime, now)
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 0})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestIssueToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	userID := uuid.New()

	svc := newTestJWTService(t, testSecret, tokenLifetime, func() time.Time { return fixedTime })

	token, expires, err := svc.IssueToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, fixedTime.Add(tokenLifetime), expires)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(tokenLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	t.Run("wire claims", func(t *testing.T) {
		parsed := jwt.MapClaims{}
		_, _, err := jwt.NewParser().ParseUnverified(token, parsed)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), parsed["id"])
		assert.Contains(t, parsed, "iat")
		assert.Contains(t, parsed, "exp")
		assert.Contains(t, parsed, "jti")
	})

	t.Run("unique jti", func(t *testing.T) {
		other, _, err := svc.IssueToken(context.Background(), userID)
		require.NoError(t, err)
		assert.NotEqual(t, token, other)
	})
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	wrongSecret := "wrong-secret-that-is-long-enough-for-testing"
	userID := uuid.New()

	issue := func(t *testing.T, secret string, at time.Time) string {
		svc := newTestJWTService(t, secret, tokenLifetime, func() time.Time { return at })
		token, _, err := svc.IssueToken(context.Background(), userID)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		at      time.Time
		secret  string
		wantErr error
	}{
		{
			name:   "valid token",
			token:  func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			at:     fixedTime.Add(time.Minute),
			secret: testSecret,
		},
		{
			name:    "expired token",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			at:      fixedTime.Add(tokenLifetime + time.Hour),
			secret:  testSecret,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "issued in the future",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime.Add(time.Hour)) },
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "invalid signature",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			at:      fixedTime,
			secret:  wrongSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   func(t *testing.T) string { return "this.is.not.a.valid.jwt.token" },
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtCustomClaims{
					UserID: userID,
					RegisteredClaims: jwt.RegisteredClaims{
						IssuedAt:  jwt.NewNumericDate(fixedTime),
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				})
				s, err := tok.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing user id",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(fixedTime),
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
				})
				s, err := tok.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			token := tt.token(t)
			at := tt.at
			svc := newTestJWTService(t, tt.secret, tokenLifetime, func() time.Time { return at })

			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}
