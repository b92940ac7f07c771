package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/mocks"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/service"
)

var authNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthHandler(t *testing.T, svc *mocks.MockAuthService, cfg AuthHandlerConfig) *AuthHandler {
	t.Helper()
	log, _ := logger.NewTestLogger()
	h := NewAuthHandler(svc, cfg, log)
	h.now = func() time.Time { return authNow }
	return h
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == TokenCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", TokenCookieName)
	return nil
}

func authResult() *service.AuthResult {
	return &service.AuthResult{
		User:      &domain.User{ID: uuid.New(), Name: "Jonas", Email: "jonas@example.com", Role: domain.RoleUser},
		Token:     "signed.jwt.token",
		ExpiresAt: authNow.Add(90 * 24 * time.Hour),
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	svc := &mocks.MockAuthService{SignupFn: func(_ context.Context, in *service.SignupInput) (*service.AuthResult, error) {
		assert.Equal(t, "jonas@example.com", in.Email)
		return authResult(), nil
	}}
	h := newTestAuthHandler(t, svc, AuthHandlerConfig{SecureCookies: true})

	rr := serve(http.MethodPost, "/users/signup", "/users/signup",
		`{"name":"Jonas","email":"jonas@example.com","password":"pass1234","passwordConfirm":"pass1234","role":"admin"}`,
		h.Signup)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "signed.jwt.token", body["token"])
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Jonas", user["name"])

	cookie := sessionCookie(t, rr)
	assert.Equal(t, "signed.jwt.token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.WithinDuration(t, authNow.Add(90*24*time.Hour), cookie.Expires, time.Second)
}

func TestAuthHandler_SignupPasswordsDiffer(t *testing.T) {
	h := newTestAuthHandler(t, &mocks.MockAuthService{}, AuthHandlerConfig{})

	rr := serve(http.MethodPost, "/users/signup", "/users/signup",
		`{"name":"Jonas","email":"jonas@example.com","password":"pass1234","passwordConfirm":"pass4321"}`, h.Signup)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "missing fields", err: service.ErrMissingCredentials, expectedStatus: http.StatusBadRequest,
			expectedMessage: "Please provide email and password!"},
		{name: "wrong password", err: service.ErrIncorrectCredentials, expectedStatus: http.StatusUnauthorized,
			expectedMessage: "Incorrect email or password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mocks.MockAuthService{Err: tc.err}
			if tc.err == nil {
				svc.Result = authResult()
			}
			h := newTestAuthHandler(t, svc, AuthHandlerConfig{CookieLifetime: 24 * time.Hour})

			rr := serve(http.MethodPost, "/users/login", "/users/login", `{"email":"jonas@example.com","password":"x"}`, h.Login)

			require.Equal(t, tc.expectedStatus, rr.Code)
			if tc.err != nil {
				assert.Equal(t, tc.expectedMessage, decodeBody(t, rr)["message"])
				return
			}
			cookie := sessionCookie(t, rr)
			assert.False(t, cookie.Secure)
			assert.WithinDuration(t, authNow.Add(24*time.Hour), cookie.Expires, time.Second)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := newTestAuthHandler(t, &mocks.MockAuthService{}, AuthHandlerConfig{})

	rr := serve(http.MethodGet, "/users/logout", "/users/logout", "", h.Logout)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", decodeBody(t, rr)["status"])
	cookie := sessionCookie(t, rr)
	assert.Equal(t, "loggedout", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.WithinDuration(t, authNow.Add(10*time.Second), cookie.Expires, time.Second)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	t.Run("link derived from request host", func(t *testing.T) {
		var link string
		svc := &mocks.MockAuthService{ForgotPasswordFn: func(_ context.Context, email string, resetURL service.ResetURLFunc) error {
			assert.Equal(t, "jonas@example.com", email)
			link = resetURL("abc123")
			return nil
		}}
		h := newTestAuthHandler(t, svc, AuthHandlerConfig{})

		req := httptest.NewRequest(http.MethodPost, "/users/forgotPassword", strings.NewReader(`{"email":"jonas@example.com"}`))
		req.Host = "tours.example.com"
		rr := httptest.NewRecorder()
		h.ForgotPassword(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Token sent to email!", decodeBody(t, rr)["message"])
		assert.Equal(t, "http://tours.example.com/api/v1/users/resetPassword/abc123", link)
	})

	t.Run("configured base URL", func(t *testing.T) {
		var link string
		svc := &mocks.MockAuthService{ForgotPasswordFn: func(_ context.Context, _ string, resetURL service.ResetURLFunc) error {
			link = resetURL("abc123")
			return nil
		}}
		h := newTestAuthHandler(t, svc, AuthHandlerConfig{BaseURL: "https://natours.dev/"})

		serve(http.MethodPost, "/users/forgotPassword", "/users/forgotPassword", `{"email":"jonas@example.com"}`, h.ForgotPassword)

		assert.Equal(t, "https://natours.dev/api/v1/users/resetPassword/abc123", link)
	})

	t.Run("unknown email", func(t *testing.T) {
		h := newTestAuthHandler(t, &mocks.MockAuthService{Err: service.ErrNoUserWithEmail}, AuthHandlerConfig{})

		rr := serve(http.MethodPost, "/users/forgotPassword", "/users/forgotPassword", `{"email":"ghost@example.com"}`, h.ForgotPassword)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("mail failure keeps message in production", func(t *testing.T) {
		h := newTestAuthHandler(t, &mocks.MockAuthService{Err: service.ErrEmailDelivery}, AuthHandlerConfig{})

		rr := serve(http.MethodPost, "/users/forgotPassword", "/users/forgotPassword", `{"email":"jonas@example.com"}`, h.ForgotPassword)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "There was an error sending the email. Try again later!", body["message"])
	})
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	var gotToken string
	svc := &mocks.MockAuthService{ResetPasswordFn: func(_ context.Context, token string, _ *service.ResetPasswordInput) (*service.AuthResult, error) {
		gotToken = token
		if token != "good" {
			return nil, service.ErrResetTokenInvalid
		}
		return authResult(), nil
	}}
	h := newTestAuthHandler(t, svc, AuthHandlerConfig{})
	body := `{"password":"newpass123","passwordConfirm":"newpass123"}`

	rr := serve(http.MethodPatch, "/users/resetPassword/{token}", "/users/resetPassword/good", body, h.ResetPassword)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "good", gotToken)
	assert.Equal(t, "signed.jwt.token", decodeBody(t, rr)["token"])

	rr = serve(http.MethodPatch, "/users/resetPassword/{token}", "/users/resetPassword/stale", body, h.ResetPassword)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Token is invalid or has expired", decodeBody(t, rr)["message"])
}

func TestAuthHandler_UpdatePassword(t *testing.T) {
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	svc := &mocks.MockAuthService{UpdatePasswordFn: func(
		_ context.Context, got *domain.User, in *service.PasswordUpdateInput,
	) (*service.AuthResult, error) {
		assert.Same(t, actor, got)
		if in.PasswordCurrent != "pass1234" {
			return nil, service.ErrWrongCurrentPassword
		}
		return authResult(), nil
	}}
	h := newTestAuthHandler(t, svc, AuthHandlerConfig{})

	call := func(body string, withIdentity bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/users/updateMyPassword", strings.NewReader(body))
		if withIdentity {
			req = req.WithContext(shared.WithIdentity(req.Context(), actor))
		}
		rr := httptest.NewRecorder()
		h.UpdatePassword(rr, req)
		return rr
	}

	rr := call(`{"passwordCurrent":"pass1234","password":"newpass123","passwordConfirm":"newpass123"}`, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "signed.jwt.token", sessionCookie(t, rr).Value)

	rr = call(`{"passwordCurrent":"wrong","password":"newpass123","passwordConfirm":"newpass123"}`, true)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Your current password is wrong.", decodeBody(t, rr)["message"])

	rr = call(`{"passwordCurrent":"pass1234","password":"newpass123","passwordConfirm":"newpass123"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
