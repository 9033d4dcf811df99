package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/store"
)

// MockStaffStore implements store.StaffStore over a seeded map.
type MockStaffStore struct {
	mu    sync.Mutex
	staff map[uuid.UUID][]uuid.UUID

	VerifiedStaffIDsFn func(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

// NewMockStaffStore creates an empty mock staff store.
func NewMockStaffStore() *MockStaffStore {
	return &MockStaffStore{staff: make(map[uuid.UUID][]uuid.UUID)}
}

// SetStaff seeds the verified staff IDs of a company.
func (m *MockStaffStore) SetStaff(companyID uuid.UUID, staffIDs []uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[companyID] = staffIDs
}

func (m *MockStaffStore) VerifiedStaffIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	if m.VerifiedStaffIDsFn != nil {
		return m.VerifiedStaffIDsFn(ctx, companyID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.staff[companyID]...), nil
}

var _ store.StaffStore = (*MockStaffStore)(nil)
