package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// MockTourService implements service.TourService for testing. Methods
// without a function field return zero values and Err.
type MockTourService struct {
	FindFn        func(ctx context.Context, spec query.Spec) ([]*domain.Tour, error)
	GetFn         func(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Tour, error)
	CreateFn      func(ctx context.Context, in *domain.TourInput) (*domain.Tour, error)
	UpdateFn      func(ctx context.Context, id uuid.UUID, in *domain.TourPatch) (*domain.Tour, error)
	DeleteFn      func(ctx context.Context, id uuid.UUID) error
	StatsFn       func(ctx context.Context) ([]domain.TourStats, error)
	MonthlyPlanFn func(ctx context.Context, year int) ([]domain.MonthlyPlan, error)
	WithinFn      func(ctx context.Context, distance float64, center domain.GeoPoint, unit domain.DistanceUnit) ([]*domain.Tour, error)
	DistancesFn   func(ctx context.Context, center domain.GeoPoint, unit domain.DistanceUnit) ([]domain.TourDistance, error)

	Err error

	// FindCalls records the specs passed to Find.
	FindCalls struct {
		mu    sync.Mutex
		Specs []query.Spec
	}
}

var _ service.TourService = (*MockTourService)(nil)

// Find implements service.TourService
func (m *MockTourService) Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error) {
	m.FindCalls.mu.Lock()
	m.FindCalls.Specs = append(m.FindCalls.Specs, spec)
	m.FindCalls.mu.Unlock()

	if m.FindFn != nil {
		return m.FindFn(ctx, spec)
	}
	return nil, m.Err
}

// Get implements service.TourService
func (m *MockTourService) Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Tour, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id, expand...)
	}
	return nil, m.Err
}

// Create implements service.TourService
func (m *MockTourService) Create(ctx context.Context, in *domain.TourInput) (*domain.Tour, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, in)
	}
	return nil, m.Err
}

// Update implements service.TourService
func (m *MockTourService) Update(ctx context.Context, id uuid.UUID, in *domain.TourPatch) (*domain.Tour, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, in)
	}
	return nil, m.Err
}

// Delete implements service.TourService
func (m *MockTourService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.Err
}

// Stats implements service.TourService
func (m *MockTourService) Stats(ctx context.Context) ([]domain.TourStats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return nil, m.Err
}

// MonthlyPlan implements service.TourService
func (m *MockTourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	if m.MonthlyPlanFn != nil {
		return m.MonthlyPlanFn(ctx, year)
	}
	return nil, m.Err
}

// Within implements service.TourService
func (m *MockTourService) Within(
	ctx context.Context,
	distance float64,
	center domain.GeoPoint,
	unit domain.DistanceUnit,
) ([]*domain.Tour, error) {
	if m.WithinFn != nil {
		return m.WithinFn(ctx, distance, center, unit)
	}
	return nil, m.Err
}

// Distances implements service.TourService
func (m *MockTourService) Distances(
	ctx context.Context,
	center domain.GeoPoint,
	unit domain.DistanceUnit,
) ([]domain.TourDistance, error) {
	if m.DistancesFn != nil {
		return m.DistancesFn(ctx, center, unit)
	}
	return nil, m.Err
}
