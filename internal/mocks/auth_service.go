package mocks

import (
	"context"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// MockAuthService implements service.AuthService for testing
type MockAuthService struct {
	SignupFn         func(ctx context.Context, in *service.SignupInput) (*service.AuthResult, error)
	LoginFn          func(ctx context.Context, in *service.LoginInput) (*service.AuthResult, error)
	ProtectFn        func(ctx context.Context, token string) (*domain.User, error)
	ForgotPasswordFn func(ctx context.Context, email string, resetURL service.ResetURLFunc) error
	ResetPasswordFn  func(ctx context.Context, token string, in *service.ResetPasswordInput) (*service.AuthResult, error)
	UpdatePasswordFn func(ctx context.Context, actor *domain.User, in *service.PasswordUpdateInput) (*service.AuthResult, error)

	// Default values used when functions aren't explicitly defined
	Result *service.AuthResult
	User   *domain.User
	Err    error
}

var _ service.AuthService = (*MockAuthService)(nil)

// Signup implements service.AuthService
func (m *MockAuthService) Signup(ctx context.Context, in *service.SignupInput) (*service.AuthResult, error) {
	if m.SignupFn != nil {
		return m.SignupFn(ctx, in)
	}
	return m.Result, m.Err
}

// Login implements service.AuthService
func (m *MockAuthService) Login(ctx context.Context, in *service.LoginInput) (*service.AuthResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, in)
	}
	return m.Result, m.Err
}

// Protect implements service.AuthService
func (m *MockAuthService) Protect(ctx context.Context, token string) (*domain.User, error) {
	if m.ProtectFn != nil {
		return m.ProtectFn(ctx, token)
	}
	return m.User, m.Err
}

// ForgotPassword implements service.AuthService
func (m *MockAuthService) ForgotPassword(ctx context.Context, email string, resetURL service.ResetURLFunc) error {
	if m.ForgotPasswordFn != nil {
		return m.ForgotPasswordFn(ctx, email, resetURL)
	}
	return m.Err
}

// ResetPassword implements service.AuthService
func (m *MockAuthService) ResetPassword(
	ctx context.Context,
	token string,
	in *service.ResetPasswordInput,
) (*service.AuthResult, error) {
	if m.ResetPasswordFn != nil {
		return m.ResetPasswordFn(ctx, token, in)
	}
	return m.Result, m.Err
}

// UpdatePassword implements service.AuthService
func (m *MockAuthService) UpdatePassword(
	ctx context.Context,
	actor *domain.User,
	in *service.PasswordUpdateInput,
) (*service.AuthResult, error) {
	if m.UpdatePasswordFn != nil {
		return m.UpdatePasswordFn(ctx, actor, in)
	}
	return m.Result, m.Err
}
