package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairtrack/fairtrack-api/internal/store"
)

// memStore is an in-memory Store used to exercise the engine without a
// database.
type memStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[uuid.UUID]*Job)}
}

func (s *memStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memStore) Due(_ context.Context, limit int) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	for _, job := range s.jobs {
		if job.Status == StatusScheduled {
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

func (s *memStore) MarkRunning(_ context.Context, id uuid.UUID, lockedUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = StatusRunning
	job.LockedUntil = &lockedUntil
	return nil
}

func (s *memStore) MarkFinished(_ context.Context, id uuid.UUID, status Status, failReason string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = status
	job.FailReason = failReason
	job.LastFinishedAt = &finishedAt
	return nil
}

func (s *memStore) Touch(_ context.Context, id uuid.UUID, lockedUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.LockedUntil = &lockedUntil
	return nil
}

func (s *memStore) UpdatePayload(_ context.Context, id uuid.UUID, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Payload = payload
	return nil
}

func (s *memStore) List(_ context.Context, filter Filter) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Job
	for _, job := range s.jobs {
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

func (s *memStore) status(t *testing.T, id uuid.UUID) Status {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	require.True(t, ok, "job %s not in store", id)
	return job.Status
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T, st Store) *Engine {
	t.Helper()
	return NewEngine(st, EngineConfig{
		PollInterval: 10 * time.Millisecond,
		LockTTL:      time.Minute,
	}, testLogger())
}

// waitForTerminal blocks until the job reaches completed or failed.
func waitForTerminal(t *testing.T, st *memStore, id uuid.UUID) Status {
	t.Helper()
	var last Status
	require.Eventually(t, func() bool {
		last = st.status(t, id)
		return last == StatusCompleted || last == StatusFailed
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestDefineValidation(t *testing.T) {
	t.Parallel()

	handler := func(ctx context.Context, task *Task) error { return nil }

	t.Run("EmptyName", func(t *testing.T) {
		engine := testEngine(t, newMemStore())
		assert.Panics(t, func() {
			engine.Define("", Options{Concurrency: 1}, handler)
		})
	})

	t.Run("NilHandler", func(t *testing.T) {
		engine := testEngine(t, newMemStore())
		assert.Panics(t, func() {
			engine.Define("nil-handler", Options{Concurrency: 1}, nil)
		})
	})

	t.Run("ZeroConcurrency", func(t *testing.T) {
		engine := testEngine(t, newMemStore())
		assert.Panics(t, func() {
			engine.Define("no-slots", Options{}, handler)
		})
	})

	t.Run("DuplicateName", func(t *testing.T) {
		engine := testEngine(t, newMemStore())
		engine.Define("dup", Options{Concurrency: 1}, handler)
		assert.Panics(t, func() {
			engine.Define("dup", Options{Concurrency: 1}, handler)
		})
	})
}

func TestNowUnknownName(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, newMemStore())
	_, err := engine.Now(context.Background(), "never-defined", nil)
	assert.ErrorContains(t, err, "no definition")
}

type countPayload struct {
	Count int `json:"count" validate:"required,gt=0"`
}

func TestNowValidatesPayload(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)
	engine.Define("counted", Options{
		Concurrency: 1,
		NewPayload:  func() any { return &countPayload{} },
	}, func(ctx context.Context, task *Task) error { return nil })

	_, err := engine.Now(context.Background(), "counted", countPayload{Count: 0})
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid payload")

	id, err := engine.Now(context.Background(), "counted", countPayload{Count: 3})
	require.NoError(t, err)

	job, err := st.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, job.Status)
	assert.JSONEq(t, `{"count":3}`, string(job.Payload))
}

func TestEngineRunsJob(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)

	done := make(chan *Task, 1)
	engine.Define("greet", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		done <- task
		return nil
	})

	id, err := engine.Now(context.Background(), "greet", nil)
	require.NoError(t, err)

	engine.Start(context.Background())
	defer engine.Stop()

	select {
	case task := <-done:
		assert.Equal(t, id, task.ID())
		assert.Equal(t, "greet", task.Name())
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	assert.Equal(t, StatusCompleted, waitForTerminal(t, st, id))
}

func TestEngineConcurrencyLimit(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)

	var mu sync.Mutex
	running, peak := 0, 0
	engine.Define("slow", Options{Concurrency: 2}, func(ctx context.Context, task *Task) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})

	var ids []uuid.UUID
	for i := 0; i < 6; i++ {
		id, err := engine.Now(context.Background(), "slow", nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	engine.Start(context.Background())
	defer engine.Stop()

	for _, id := range ids {
		assert.Equal(t, StatusCompleted, waitForTerminal(t, st, id))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2, "more instances ran at once than the definition allows")
	assert.Greater(t, peak, 0)
}

// startOrderStore records the order jobs transition to running, which
// the scheduler does synchronously in priority order.
type startOrderStore struct {
	*memStore

	orderMu sync.Mutex
	order   []uuid.UUID
}

func (s *startOrderStore) MarkRunning(ctx context.Context, id uuid.UUID, lockedUntil time.Time) error {
	s.orderMu.Lock()
	s.order = append(s.order, id)
	s.orderMu.Unlock()
	return s.memStore.MarkRunning(ctx, id, lockedUntil)
}

func TestEnginePriorityOrder(t *testing.T) {
	t.Parallel()

	st := &startOrderStore{memStore: newMemStore()}
	engine := testEngine(t, st)

	noop := func(ctx context.Context, task *Task) error { return nil }
	engine.Define("tier-low", Options{Concurrency: 1, Priority: PriorityLow}, noop)
	engine.Define("tier-normal", Options{Concurrency: 1, Priority: PriorityNormal}, noop)
	engine.Define("tier-high", Options{Concurrency: 1, Priority: PriorityHigh}, noop)

	lowID, err := engine.Now(context.Background(), "tier-low", nil)
	require.NoError(t, err)
	normalID, err := engine.Now(context.Background(), "tier-normal", nil)
	require.NoError(t, err)
	highID, err := engine.Now(context.Background(), "tier-high", nil)
	require.NoError(t, err)

	engine.Start(context.Background())
	defer engine.Stop()

	for _, id := range []uuid.UUID{lowID, normalID, highID} {
		waitForTerminal(t, st.memStore, id)
	}

	st.orderMu.Lock()
	defer st.orderMu.Unlock()
	require.Len(t, st.order, 3)
	assert.Equal(t, []uuid.UUID{highID, normalID, lowID}, st.order)
}

func TestEngineFailureRecordsReason(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)
	engine.Define("doomed", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		return errors.New("upstream said no")
	})

	id, err := engine.Now(context.Background(), "doomed", nil)
	require.NoError(t, err)

	engine.Start(context.Background())
	defer engine.Stop()

	assert.Equal(t, StatusFailed, waitForTerminal(t, st, id))

	job, err := st.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "upstream said no", job.FailReason)
	assert.NotNil(t, job.LastFinishedAt)
}

func TestEngineRecoversPanic(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)
	engine.Define("explosive", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		panic("boom")
	})

	id, err := engine.Now(context.Background(), "explosive", nil)
	require.NoError(t, err)

	engine.Start(context.Background())
	defer engine.Stop()

	assert.Equal(t, StatusFailed, waitForTerminal(t, st, id))

	job, err := st.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, job.FailReason, "handler panicked")
	assert.Contains(t, job.FailReason, "boom")
}

func TestEngineFailsOrphanRecords(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	orphan := &Job{
		ID:        uuid.New(),
		Name:      "removed-in-this-release",
		Payload:   json.RawMessage("{}"),
		Priority:  PriorityNormal,
		Status:    StatusScheduled,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Create(context.Background(), orphan))

	engine := testEngine(t, st)
	engine.Start(context.Background())
	defer engine.Stop()

	assert.Equal(t, StatusFailed, waitForTerminal(t, st, orphan.ID))

	job, err := st.GetByID(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.Contains(t, job.FailReason, "no handler registered")
}

func TestEveryValidation(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, newMemStore())
	engine.Define("periodic", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		return nil
	})

	assert.ErrorContains(t, engine.Every("@hourly", "never-defined"), "no definition")
	assert.ErrorContains(t, engine.Every("not a cron spec", "periodic"), "invalid schedule")
	assert.NoError(t, engine.Every("@every 1h", "periodic"))
}

func TestTaskTouchExtendsLease(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)

	leases := make(chan time.Time, 2)
	engine.Define("long-haul", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		job, err := st.GetByID(ctx, task.ID())
		if err != nil {
			return err
		}
		leases <- *job.LockedUntil

		time.Sleep(20 * time.Millisecond)
		if err := task.Touch(ctx); err != nil {
			return err
		}

		job, err = st.GetByID(ctx, task.ID())
		if err != nil {
			return err
		}
		leases <- *job.LockedUntil
		return nil
	})

	id, err := engine.Now(context.Background(), "long-haul", nil)
	require.NoError(t, err)

	engine.Start(context.Background())
	defer engine.Stop()

	assert.Equal(t, StatusCompleted, waitForTerminal(t, st, id))

	first := <-leases
	second := <-leases
	assert.True(t, second.After(first), "Touch should push the lease forward, got %v then %v", first, second)
}

func TestJobsFilter(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st)
	engine.Define("filtered", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		return nil
	})
	engine.Define("other", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		return nil
	})

	for i := 0; i < 3; i++ {
		_, err := engine.Now(context.Background(), "filtered", nil)
		require.NoError(t, err)
	}
	_, err := engine.Now(context.Background(), "other", nil)
	require.NoError(t, err)

	listed, err := engine.Jobs(context.Background(), Filter{Name: "filtered"})
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	listed, err = engine.Jobs(context.Background(), Filter{Name: "filtered", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = engine.Jobs(context.Background(), Filter{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

// cancelAwareStore rejects writes once the context is done, the way a
// real driver does.
type cancelAwareStore struct {
	*memStore
}

func (s *cancelAwareStore) MarkFinished(ctx context.Context, id uuid.UUID, status Status, failReason string, finishedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memStore.MarkFinished(ctx, id, status, failReason, finishedAt)
}

func TestStopPersistsTerminalStatus(t *testing.T) {
	t.Parallel()

	st := &cancelAwareStore{memStore: newMemStore()}
	engine := testEngine(t, st)

	started := make(chan struct{})
	engine.Define("drain", Options{Concurrency: 1}, func(ctx context.Context, task *Task) error {
		close(started)
		<-ctx.Done()
		return nil
	})

	engine.Start(context.Background())
	id, err := engine.Now(context.Background(), "drain", nil)
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	// Stop cancels the handler context; the completed status must land
	// in the store anyway.
	engine.Stop()
	assert.Equal(t, StatusCompleted, st.status(t, id))
}
