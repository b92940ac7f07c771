package service

import "github.com/phrazzld/tourbook-api/internal/domain"

// SignupInput is the public registration payload. The role is never
// accepted from it.
type SignupInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UserInput is the administrative create payload.
type UserInput struct {
	SignupInput
	Role  domain.Role `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Photo string      `json:"photo"`
}

// LoginInput is the login payload. Presence is checked by the service so
// that a missing field yields ErrMissingCredentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordInput carries the address to send a reset link to.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput sets a new password with a reset token.
type ResetPasswordInput struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// PasswordUpdateInput changes the password of the authenticated user.
type PasswordUpdateInput struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// MeInput is the self-service profile update. Password fields are only
// decoded so that their presence can be rejected.
type MeInput struct {
	Name            *string `json:"name" validate:"omitempty,min=1"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Photo           *string `json:"photo"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// patch returns the allowed subset of the input as a UserPatch.
func (in *MeInput) patch() *domain.UserPatch {
	return &domain.UserPatch{Name: in.Name, Email: in.Email, Photo: in.Photo}
}
