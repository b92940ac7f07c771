package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and verifies the stateless access tokens.
type JWTService interface {
	// IssueToken creates a signed token for the user.
	// Returns the token string and its expiry.
	IssueToken(ctx context.Context, userID uuid.UUID) (string, time.Time, error)

	// ValidateToken checks the signature and time claims of tokenString.
	// Returns ErrInvalidToken, ErrExpiredToken or ErrTokenNotYetValid on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the verified contents of an access token.
type Claims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
