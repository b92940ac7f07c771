package mocks

import (
	"fmt"

	"github.com/phrazzld/tourbook-api/internal/service/auth"
)

// hashPrefix marks values produced by MockPasswords.Hash.
const hashPrefix = "hashed:"

// MockPasswords implements auth.PasswordHasher and auth.PasswordVerifier
// with a reversible, prefix based "hash".
type MockPasswords struct {
	// HashFn and CompareFn override the default behavior.
	HashFn    func(password string) (string, error)
	CompareFn func(hashedPassword, password string) error

	// CompareCalledWith stores the arguments passed to Compare for verification
	CompareCalledWith struct {
		HashedPassword string
		Password       string
	}

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var (
	_ auth.PasswordHasher   = (*MockPasswords)(nil)
	_ auth.PasswordVerifier = (*MockPasswords)(nil)
)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswords) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return hashPrefix + password, nil
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswords) Compare(hashedPassword, password string) error {
	m.CompareCalledWith.HashedPassword = hashedPassword
	m.CompareCalledWith.Password = password
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if hashedPassword != hashPrefix+password {
		return fmt.Errorf("mock compare: %w", auth.ErrPasswordMismatch)
	}
	return nil
}
