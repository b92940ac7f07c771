package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// Session cookie settings.
const (
	TokenCookieName = shared.TokenCookieName
	loggedOutValue  = shared.LoggedOutCookieValue
	loggedOutTTL    = 10 * time.Second
	resetPathPrefix = "/api/v1/users/resetPassword/"
)

// AuthHandlerConfig holds the cookie and link settings of an AuthHandler.
type AuthHandlerConfig struct {
	// SecureCookies marks the session cookie Secure. Enabled in production.
	SecureCookies bool
	// CookieLifetime overrides the token expiry as the cookie lifetime.
	CookieLifetime time.Duration
	// BaseURL prefixes reset links. Empty derives it from the request.
	BaseURL string
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	auth   service.AuthService
	cfg    AuthHandlerConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(authService service.AuthService, cfg AuthHandlerConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}
	return &AuthHandler{
		auth:   authService,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// Signup handles POST /users/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.auth.Signup(r.Context(), &req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, result)
}

// Login handles POST /users/login. Presence of both fields is checked by
// the service so that either missing yields the same message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, result)
}

// Logout handles GET /users/logout by overwriting the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  h.now().Add(loggedOutTTL),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Envelope{Status: shared.StatusSuccess})
}

// ForgotPassword handles POST /users/forgotPassword.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ForgotPasswordInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	base := h.baseURL(r)
	resetURL := func(token string) string { return base + resetPathPrefix + token }

	if err := h.auth.ForgotPassword(r.Context(), req.Email, resetURL); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Envelope{
		Status:  shared.StatusSuccess,
		Message: "Token sent to email!",
	})
}

// ResetPassword handles PATCH /users/resetPassword/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req service.ResetPasswordInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.auth.ResetPassword(r.Context(), token, &req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, result)
}

// UpdatePassword handles PATCH /users/updateMyPassword.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var req service.PasswordUpdateInput
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.auth.UpdatePassword(r.Context(), actor, &req)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, result)
}

// respondWithToken sets the session cookie and writes
// {status, token, data:{user}}.
func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, result *service.AuthResult) {
	expires := result.ExpiresAt
	if h.cfg.CookieLifetime > 0 {
		expires = h.now().Add(h.cfg.CookieLifetime)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	logger.FromContextOrDefault(r.Context(), h.logger).
		Debug("issued session token", slog.String("user_id", result.User.ID.String()))

	shared.RespondWithJSON(w, r, status, shared.Envelope{
		Status: shared.StatusSuccess,
		Token:  result.Token,
		Data:   map[string]any{"user": result.User},
	})
}

// baseURL is the configured public URL, or scheme://host of the request.
func (h *AuthHandler) baseURL(r *http.Request) string {
	if h.cfg.BaseURL != "" {
		return strings.TrimSuffix(h.cfg.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
