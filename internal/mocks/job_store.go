package mocks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// MockJobStore implements jobs.Store in memory with the same ordering
// contract as the Postgres store.
type MockJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*jobs.Job

	UpdatePayloadFn func(ctx context.Context, id uuid.UUID, payload json.RawMessage) error
}

// NewMockJobStore creates an empty mock job store.
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{jobs: make(map[uuid.UUID]*jobs.Job)}
}

func (m *MockJobStore) Create(_ context.Context, job *jobs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MockJobStore) GetByID(_ context.Context, id uuid.UUID) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobStore) Due(_ context.Context, limit int) ([]jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []jobs.Job
	for _, job := range m.jobs {
		if job.Status == jobs.StatusScheduled {
			due = append(due, *job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority.Rank() != due[j].Priority.Rank() {
			return due[i].Priority.Rank() > due[j].Priority.Rank()
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockJobStore) MarkRunning(_ context.Context, id uuid.UUID, lockedUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = jobs.StatusRunning
	job.LockedUntil = &lockedUntil
	return nil
}

func (m *MockJobStore) MarkFinished(_ context.Context, id uuid.UUID, status jobs.Status, failReason string, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = status
	job.FailReason = failReason
	job.LastFinishedAt = &finishedAt
	return nil
}

func (m *MockJobStore) Touch(_ context.Context, id uuid.UUID, lockedUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.LockedUntil = &lockedUntil
	return nil
}

func (m *MockJobStore) UpdatePayload(ctx context.Context, id uuid.UUID, payload json.RawMessage) error {
	if m.UpdatePayloadFn != nil {
		return m.UpdatePayloadFn(ctx, id, payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Payload = payload
	return nil
}

func (m *MockJobStore) List(_ context.Context, filter jobs.Filter) ([]jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []jobs.Job
	for _, job := range m.jobs {
		if filter.Name != "" && job.Name != filter.Name {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var _ jobs.Store = (*MockJobStore)(nil)
