package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// MockReviewService implements service.ReviewService for testing
type MockReviewService struct {
	FindFn      func(ctx context.Context, spec query.Spec) ([]*domain.Review, error)
	GetFn       func(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Review, error)
	CreateFn    func(ctx context.Context, in *domain.ReviewInput) (*domain.Review, error)
	UpdateFn    func(ctx context.Context, id uuid.UUID, in *domain.ReviewPatch) (*domain.Review, error)
	DeleteFn    func(ctx context.Context, id uuid.UUID) error
	AuthorizeFn func(ctx context.Context, id uuid.UUID, actor *domain.User) error

	Err error

	// UpdateCount and DeleteCount track mutating calls so tests can assert
	// that a rejected guard stopped the request.
	UpdateCount int
	DeleteCount int
}

var _ service.ReviewService = (*MockReviewService)(nil)

// Find implements service.ReviewService
func (m *MockReviewService) Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, spec)
	}
	return nil, m.Err
}

// Get implements service.ReviewService
func (m *MockReviewService) Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Review, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id, expand...)
	}
	return nil, m.Err
}

// Create implements service.ReviewService
func (m *MockReviewService) Create(ctx context.Context, in *domain.ReviewInput) (*domain.Review, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, in)
	}
	return nil, m.Err
}

// Update implements service.ReviewService
func (m *MockReviewService) Update(ctx context.Context, id uuid.UUID, in *domain.ReviewPatch) (*domain.Review, error) {
	m.UpdateCount++
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, in)
	}
	return nil, m.Err
}

// Delete implements service.ReviewService
func (m *MockReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	m.DeleteCount++
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.Err
}

// Authorize implements service.ReviewService. Without AuthorizeFn every
// actor is allowed.
func (m *MockReviewService) Authorize(ctx context.Context, id uuid.UUID, actor *domain.User) error {
	if m.AuthorizeFn != nil {
		return m.AuthorizeFn(ctx, id, actor)
	}
	return nil
}
