package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// MockVisitStore implements store.VisitStore in memory.
type MockVisitStore struct {
	mu     sync.Mutex
	visits []domain.Visit

	CreateFn func(ctx context.Context, visit *domain.Visit) error
}

// NewMockVisitStore creates an empty mock visit store.
func NewMockVisitStore() *MockVisitStore {
	return &MockVisitStore{}
}

func (m *MockVisitStore) Create(ctx context.Context, visit *domain.Visit) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, visit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, *visit)
	return nil
}

func (m *MockVisitStore) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Visit
	for i := len(m.visits) - 1; i >= 0; i-- {
		if m.visits[i].ParticipantID == participantID {
			out = append(out, m.visits[i])
		}
	}
	return out, nil
}

// All returns every recorded visit in creation order.
func (m *MockVisitStore) All() []domain.Visit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Visit(nil), m.visits...)
}

var _ store.VisitStore = (*MockVisitStore)(nil)
