package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/phrazzld/tourbook-api/internal/domain"
)

// ContextKey is the key type for request-scoped values.
type ContextKey string

// Context keys for request-scoped values.
const (
	// IdentityContextKey holds the authenticated *domain.User.
	IdentityContextKey ContextKey = "identity"

	// TraceIDKey holds the trace ID correlating logs and error responses.
	TraceIDKey ContextKey = "traceID"

	// VerboseErrorsKey marks requests whose error responses carry full detail.
	VerboseErrorsKey ContextKey = "verboseErrors"

	// TraceIDLength is the number of random bytes in a trace ID.
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the request's trace ID, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithIdentity stores the authenticated user in the context.
func WithIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, IdentityContextKey, user)
}

// IdentityFrom returns the authenticated user, if any.
func IdentityFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(IdentityContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// WithVerboseErrors switches error responses for the request to
// development mode: the error chain and a stack are included.
func WithVerboseErrors(ctx context.Context, verbose bool) context.Context {
	return context.WithValue(ctx, VerboseErrorsKey, verbose)
}

// VerboseErrors reports whether error responses include full detail.
// Requests without the flag get the guarded production form.
func VerboseErrors(ctx context.Context) bool {
	verbose, _ := ctx.Value(VerboseErrorsKey).(bool)
	return verbose
}

// generateTraceID returns 32 hex characters from crypto/rand, falling back
// to a time-derived ID if the random source fails.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if n, err := rand.Read(b); err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "time-based generation")
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func generateFallbackTraceID() string {
	b := make([]byte, TraceIDLength)
	now := time.Now()
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(b[12:], uint32(now.Unix()))
	return hex.EncodeToString(b)
}
