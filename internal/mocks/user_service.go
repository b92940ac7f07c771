package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// MockUserService implements service.UserService for testing
type MockUserService struct {
	FindFn     func(ctx context.Context, spec query.Spec) ([]*domain.User, error)
	GetFn      func(ctx context.Context, id uuid.UUID, expand ...string) (*domain.User, error)
	CreateFn   func(ctx context.Context, in *service.UserInput) (*domain.User, error)
	UpdateFn   func(ctx context.Context, id uuid.UUID, in *domain.UserPatch) (*domain.User, error)
	DeleteFn   func(ctx context.Context, id uuid.UUID) error
	UpdateMeFn func(ctx context.Context, actor *domain.User, in *service.MeInput) (*domain.User, error)
	DeleteMeFn func(ctx context.Context, actor *domain.User) error

	Err error
}

var _ service.UserService = (*MockUserService)(nil)

// Find implements service.UserService
func (m *MockUserService) Find(ctx context.Context, spec query.Spec) ([]*domain.User, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, spec)
	}
	return nil, m.Err
}

// Get implements service.UserService
func (m *MockUserService) Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.User, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id, expand...)
	}
	return nil, m.Err
}

// Create implements service.UserService
func (m *MockUserService) Create(ctx context.Context, in *service.UserInput) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, in)
	}
	return nil, m.Err
}

// Update implements service.UserService
func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, in *domain.UserPatch) (*domain.User, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, in)
	}
	return nil, m.Err
}

// Delete implements service.UserService
func (m *MockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.Err
}

// UpdateMe implements service.UserService
func (m *MockUserService) UpdateMe(ctx context.Context, actor *domain.User, in *service.MeInput) (*domain.User, error) {
	if m.UpdateMeFn != nil {
		return m.UpdateMeFn(ctx, actor, in)
	}
	return nil, m.Err
}

// DeleteMe implements service.UserService
func (m *MockUserService) DeleteMe(ctx context.Context, actor *domain.User) error {
	if m.DeleteMeFn != nil {
		return m.DeleteMeFn(ctx, actor)
	}
	return m.Err
}
