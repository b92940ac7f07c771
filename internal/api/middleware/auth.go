package middleware

import (
	"context"
	"net/http"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/service"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
)

// Protector resolves an access token to its active user.
// service.AuthService satisfies it.
type Protector interface {
	Protect(ctx context.Context, token string) (*domain.User, error)
}

// ErrorHandler writes the response for a failed request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AuthMiddleware provides JWT authentication and role checks for routes.
type AuthMiddleware struct {
	protector Protector
	onError   ErrorHandler
}

// NewAuthMiddleware creates a new AuthMiddleware. onError reports every
// rejection; the wrapped handler never runs after it.
func NewAuthMiddleware(protector Protector, onError ErrorHandler) *AuthMiddleware {
	return &AuthMiddleware{
		protector: protector,
		onError:   onError,
	}
}

// Authenticate resolves the bearer token, or the session cookie when no
// Authorization header is sent, and stores the user as the request identity.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := shared.TokenFromRequest(r)
		if !ok {
			m.onError(w, r, auth.ErrMissingToken)
			return
		}

		user, err := m.protector.Protect(r.Context(), token)
		if err != nil {
			m.onError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithIdentity(r.Context(), user)))
	})
}

// Authorize admits only identities holding one of roles. It must run
// after Authenticate.
func (m *AuthMiddleware) Authorize(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := shared.IdentityFrom(r.Context())
			if !ok {
				m.onError(w, r, auth.ErrMissingToken)
				return
			}
			if !user.HasRole(roles...) {
				m.onError(w, r, service.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
