// Package mocks provides hand-written test doubles for the store
// interfaces. Each mock is a small in-memory fake with optional Fn
// overrides for injecting errors or custom behavior.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// MockParticipantStore implements store.ParticipantStore in memory.
type MockParticipantStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID]*domain.Participant
	order        []uuid.UUID
	visited      map[uuid.UUID][]uuid.UUID

	// Custom behavior overrides. When set, the override replaces the
	// in-memory behavior entirely.
	GetByIDFn             func(ctx context.Context, id uuid.UUID) (*domain.Participant, error)
	UpdateExtractedTextFn func(ctx context.Context, id uuid.UUID, text string) error
	UpsertFn              func(ctx context.Context, p *domain.Participant) (store.UpsertResult, error)
}

// NewMockParticipantStore creates an empty mock participant store.
func NewMockParticipantStore() *MockParticipantStore {
	return &MockParticipantStore{
		participants: make(map[uuid.UUID]*domain.Participant),
		visited:      make(map[uuid.UUID][]uuid.UUID),
	}
}

// Add seeds a participant, overwriting any existing one with the same ID.
func (m *MockParticipantStore) Add(p domain.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.participants[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	cp := p
	m.participants[p.ID] = &cp
}

// SetVisited seeds the participant IDs returned for a company's visited
// query.
func (m *MockParticipantStore) SetVisited(companyID uuid.UUID, participantIDs []uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited[companyID] = participantIDs
}

// Get returns the stored participant, or nil.
func (m *MockParticipantStore) Get(id uuid.UUID) *domain.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (m *MockParticipantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, store.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockParticipantStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Participant
	for _, id := range ids {
		if p, ok := m.participants[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockParticipantStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.order...), nil
}

func (m *MockParticipantStore) VisitedCompanyIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.visited[companyID]...), nil
}

func (m *MockParticipantStore) MissingExtractedText(ctx context.Context) ([]domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Participant
	for _, id := range m.order {
		p := m.participants[id]
		if p.Resume.HasFile() && p.Resume.ExtractedText == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockParticipantStore) UpdateExtractedText(ctx context.Context, id uuid.UUID, text string) error {
	if m.UpdateExtractedTextFn != nil {
		return m.UpdateExtractedTextFn(ctx, id, text)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return store.ErrParticipantNotFound
	}
	p.Resume.ExtractedText = &text
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockParticipantStore) Upsert(ctx context.Context, p *domain.Participant) (store.UpsertResult, error) {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.participants[p.ID]
	cp := *p
	if ok && existing.Resume.Path == cp.Resume.Path {
		// Same upload, keep any text already extracted.
		cp.Resume.ExtractedText = existing.Resume.ExtractedText
	} else {
		cp.Resume.ExtractedText = nil
	}
	if !ok {
		m.order = append(m.order, cp.ID)
	}
	m.participants[cp.ID] = &cp

	return store.UpsertResult{
		Created:         !ok,
		NeedsExtraction: cp.Resume.HasFile() && cp.Resume.ExtractedText == nil,
	}, nil
}

// Ensure interface compliance.
var _ store.ParticipantStore = (*MockParticipantStore)(nil)
