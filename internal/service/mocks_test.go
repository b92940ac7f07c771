package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/events"
	"github.com/phrazzld/tourbook-api/internal/platform/mailer"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTourStore mocks the store.TourStore interface
type MockTourStore struct {
	mock.Mock
}

func (m *MockTourStore) Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tour), args.Error(1)
}

func (m *MockTourStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *MockTourStore) Create(ctx context.Context, tour *domain.Tour) error {
	return m.Called(ctx, tour).Error(0)
}

func (m *MockTourStore) Update(ctx context.Context, tour *domain.Tour) error {
	return m.Called(ctx, tour).Error(0)
}

func (m *MockTourStore) SetRatings(ctx context.Context, stats domain.RatingStats) error {
	return m.Called(ctx, stats).Error(0)
}

func (m *MockTourStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTourStore) Stats(ctx context.Context, minRating float64) ([]domain.TourStats, error) {
	args := m.Called(ctx, minRating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TourStats), args.Error(1)
}

func (m *MockTourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyPlan), args.Error(1)
}

func (m *MockTourStore) Within(ctx context.Context, center domain.GeoPoint, radius float64) ([]*domain.Tour, error) {
	args := m.Called(ctx, center, radius)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tour), args.Error(1)
}

func (m *MockTourStore) Distances(ctx context.Context, center domain.GeoPoint, multiplier float64) ([]domain.TourDistance, error) {
	args := m.Called(ctx, center, multiplier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TourDistance), args.Error(1)
}

func (m *MockTourStore) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Find(ctx context.Context, spec query.Spec) ([]*domain.User, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) Summaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserSummary), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockReviewStore mocks the store.ReviewStore interface
type MockReviewStore struct {
	mock.Mock
}

func (m *MockReviewStore) Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewStore) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewStore) Update(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewStore) RecomputeTourRating(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).(domain.RatingStats), args.Error(1)
}

func (m *MockReviewStore) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockJWTService mocks the auth.JWTService interface
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) IssueToken(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

// MockMailer mocks the mailer.Sender interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockEmitter mocks the events.EventEmitter interface
type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	return m.Called(ctx, event).Error(0)
}

// plainHasher is a reversible stand-in for bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hashed, password string) error {
	if hashed != "hashed:"+password {
		return auth.ErrPasswordMismatch
	}
	return nil
}

// recordingTx counts transactions and runs fn directly.
type recordingTx struct {
	calls int
}

func (r *recordingTx) RunInTx(ctx context.Context, fn store.TxFn) error {
	r.calls++
	return fn(ctx)
}
