package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyName           = errors.New("please tell us your name")
	ErrEmptyEmail          = errors.New("please provide your email")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrInvalidRole         = errors.New("invalid role")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// Password length bounds. 72 is bcrypt's input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// DefaultPhoto is assigned to users that never uploaded one.
const DefaultPhoto = "default.jpg"

// Role is a user's authorization level.
type Role string

// Roles known to the system.
const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account. Credentials and reset state
// never appear in JSON.
type User struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Photo                string     `json:"photo"`
	Role                 Role       `json:"role"`
	Password             string     `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword       string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"` // sha256 hex of the emailed token
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Photo string    `json:"photo,omitempty"`
	Role  Role      `json:"role,omitempty"`
}

// NewUser creates an active User with a fresh ID.
// An empty role defaults to RoleUser. The caller hashes the password before storage.
func NewUser(name, email, password string, role Role) (*User, error) {
	if role == "" {
		role = RoleUser
	}

	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Photo:     DefaultPhoto,
		Role:      role,
		Password:  password,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return FieldError("id", ErrEmptyUserID)
	}
	if strings.TrimSpace(u.Name) == "" {
		return FieldError("name", ErrEmptyName)
	}
	if u.Email == "" {
		return FieldError("email", ErrEmptyEmail)
	}
	if !validateEmailFormat(u.Email) {
		return FieldError("email", ErrInvalidEmail)
	}
	if !u.Role.Valid() {
		return FieldError("role", ErrInvalidRole)
	}

	if u.Password != "" {
		return ValidatePassword(u.Password)
	}
	if u.HashedPassword == "" {
		return FieldError("password", ErrEmptyPassword)
	}

	return nil
}

// ValidatePassword checks plaintext password length.
func ValidatePassword(password string) error {
	switch n := len(password); {
	case n == 0:
		return FieldError("password", ErrEmptyPassword)
	case n < MinPasswordLength:
		return FieldError("password", ErrPasswordTooShort)
	case n > MaxPasswordLength:
		return FieldError("password", ErrPasswordTooLong)
	}
	return nil
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat. Comparison is at second granularity, matching JWT iat.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// SetPassword installs a new hash, stamps PasswordChangedAt one second in
// the past so a token issued in the same second stays valid, and clears any
// pending reset.
func (u *User) SetPassword(hash string, now time.Time) {
	changed := now.Add(-time.Second).UTC()
	u.HashedPassword = hash
	u.Password = ""
	u.PasswordChangedAt = &changed
	u.ClearPasswordReset()
}

// ClearPasswordReset removes any pending reset token.
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role}
}

// UserPatch is an administrative partial update.
type UserPatch struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Photo  *string `json:"photo"`
	Role   *Role   `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Active *bool   `json:"active"`
}

// Apply copies the set fields onto u.
func (p *UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.Photo != nil {
		u.Photo = *p.Photo
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmailFormat performs basic validation of email format: a non-empty
// local part, an @, and a domain containing an inner dot.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domainPart := email[at+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && dot < len(domainPart)-1
}
