package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

// HandlerFunc is the job handler contract. Returning nil completes the
// job; returning an error (or panicking) marks it failed with the
// message as the persisted fail reason. Failed jobs are not retried
// automatically; re-enqueueing is the caller's business.
type HandlerFunc func(ctx context.Context, t *Task) error

// Options configures one job definition.
type Options struct {
	// Concurrency is the maximum number of simultaneously running
	// instances of this job name. Must be at least 1.
	Concurrency int

	// Priority applied to every job enqueued under this name.
	// Empty means normal.
	Priority Priority

	// NewPayload, when set, returns a fresh payload struct used to
	// validate enqueued payloads before persisting and again before the
	// handler runs. Nil means the name takes no meaningful payload.
	NewPayload func() any
}

// EngineConfig tunes the scheduler loop.
type EngineConfig struct {
	// PollInterval is how often the scheduler looks for due jobs.
	// Zero means one second.
	PollInterval time.Duration

	// LockTTL is the liveness lease length written when a job starts
	// and on every Task.Touch. Zero means two minutes.
	LockTTL time.Duration

	// FetchBatch is how many due jobs one poll considers. Zero means 50.
	FetchBatch int
}

type definition struct {
	name    string
	opts    Options
	handler HandlerFunc

	// slots bounds how many instances of this name run at once.
	slots *semaphore.Weighted
}

// Engine is the background job engine. Construct with NewEngine, call
// Define for every job name during wiring, then Start. Define is not
// safe to call after Start.
type Engine struct {
	store    Store
	cfg      EngineConfig
	logger   *slog.Logger
	validate *validator.Validate

	defs map[string]*definition
	cron *cron.Cron

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewEngine creates a job engine on top of the given store.
func NewEngine(store Store, cfg EngineConfig, logger *slog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.FetchBatch <= 0 {
		cfg.FetchBatch = 50
	}

	return &Engine{
		store:    store,
		cfg:      cfg,
		logger:   logger.With("component", "jobs_engine"),
		validate: validator.New(),
		defs:     make(map[string]*definition),
		cron:     cron.New(),
	}
}

// Define registers a handler under a unique job name. Definitions are
// static wiring, so invalid ones are programmer errors and panic.
func (e *Engine) Define(name string, opts Options, handler HandlerFunc) {
	if name == "" {
		panic("jobs: Define called with empty name")
	}
	if handler == nil {
		panic(fmt.Sprintf("jobs: Define(%q) called with nil handler", name))
	}
	if opts.Concurrency < 1 {
		panic(fmt.Sprintf("jobs: Define(%q) needs concurrency >= 1, got %d", name, opts.Concurrency))
	}
	if _, dup := e.defs[name]; dup {
		panic(fmt.Sprintf("jobs: Define(%q) called twice", name))
	}
	if opts.Priority == "" {
		opts.Priority = PriorityNormal
	}

	e.defs[name] = &definition{
		name:    name,
		opts:    opts,
		handler: handler,
		slots:   semaphore.NewWeighted(int64(opts.Concurrency)),
	}
}

// Now enqueues one immediate execution of the named job. It returns the
// new job ID once the record is persisted, not once it has executed.
// The payload is validated against the definition's schema first, so a
// malformed payload never reaches the store.
func (e *Engine) Now(ctx context.Context, name string, payload any) (uuid.UUID, error) {
	def, ok := e.defs[name]
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: no definition for %q", name)
	}

	raw := json.RawMessage("{}")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return uuid.Nil, fmt.Errorf("jobs: failed to marshal payload for %q: %w", name, err)
		}
		raw = b
	}

	if err := e.checkPayload(def, raw); err != nil {
		return uuid.Nil, err
	}

	job := &Job{
		ID:        uuid.New(),
		Name:      name,
		Payload:   raw,
		Priority:  def.opts.Priority,
		Status:    StatusScheduled,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.store.Create(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("jobs: failed to persist job %q: %w", name, err)
	}

	e.logger.Debug("job enqueued", "job_id", job.ID, "job_name", name, "priority", job.Priority)
	return job.ID, nil
}

// Every registers a recurring trigger: on each tick of the cron
// schedule a fresh job record is enqueued for the name, regardless of
// how earlier runs ended.
func (e *Engine) Every(spec string, name string) error {
	if _, ok := e.defs[name]; !ok {
		return fmt.Errorf("jobs: no definition for %q", name)
	}

	_, err := e.cron.AddFunc(spec, func() {
		if _, err := e.Now(context.Background(), name, nil); err != nil {
			e.logger.Error("recurring enqueue failed", "job_name", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("jobs: invalid schedule %q for %q: %w", spec, name, err)
	}
	return nil
}

// Jobs is a read-only query over persisted job records, for status
// displays and dashboards.
func (e *Engine) Jobs(ctx context.Context, filter Filter) ([]Job, error) {
	return e.store.List(ctx, filter)
}

// Job retrieves one job record by ID.
func (e *Engine) Job(ctx context.Context, id uuid.UUID) (*Job, error) {
	return e.store.GetByID(ctx, id)
}

// Start launches the scheduler loop and the cron triggers. The passed
// context scopes handler executions; cancelling it stops the loop.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	e.cron.Start()

	e.wg.Add(1)
	go e.loop(ctx)

	e.logger.Info("job engine started",
		"definitions", len(e.defs),
		"poll_interval", e.cfg.PollInterval)
}

// Stop halts the cron triggers and the scheduler loop and waits for
// in-flight handlers to return.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	e.mu.Unlock()

	e.cron.Stop()
	cancel()
	e.wg.Wait()
	e.logger.Info("job engine stopped")
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatch(ctx)
		}
	}
}

// dispatch pulls due jobs and starts every one whose name still has a
// free concurrency slot. A name with all slots busy is skipped, not
// failed; the job stays scheduled for a later poll.
func (e *Engine) dispatch(ctx context.Context) {
	due, err := e.store.Due(ctx, e.cfg.FetchBatch)
	if err != nil {
		e.logger.Error("failed to fetch due jobs", "error", err)
		return
	}

	for _, job := range due {
		def, ok := e.defs[job.Name]
		if !ok {
			// A record from an older deployment; fail it rather than
			// poll it forever.
			reason := fmt.Sprintf("no handler registered for job name %q", job.Name)
			if err := e.store.MarkFinished(ctx, job.ID, StatusFailed, reason, time.Now().UTC()); err != nil {
				e.logger.Error("failed to mark orphan job failed", "job_id", job.ID, "error", err)
			}
			continue
		}

		if !def.slots.TryAcquire(1) {
			continue
		}

		if err := e.store.MarkRunning(ctx, job.ID, time.Now().UTC().Add(e.cfg.LockTTL)); err != nil {
			def.slots.Release(1)
			e.logger.Error("failed to mark job running", "job_id", job.ID, "error", err)
			continue
		}

		e.wg.Add(1)
		go e.run(ctx, job, def)
	}
}

// run executes one job and converts the handler outcome into a
// persisted terminal status. Handler errors and panics never escape.
func (e *Engine) run(ctx context.Context, job Job, def *definition) {
	defer e.wg.Done()
	defer def.slots.Release(1)

	log := e.logger.With("job_id", job.ID, "job_name", job.Name)

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()

		if err = e.checkPayload(def, job.Payload); err != nil {
			return
		}

		task := &Task{job: job, store: e.store, lockTTL: e.cfg.LockTTL}
		err = def.handler(ctx, task)
	}()

	// Stop cancels ctx while in-flight handlers drain; the terminal
	// status must still be written or the row stays running forever,
	// invisible to the due query.
	persistCtx := context.WithoutCancel(ctx)

	finishedAt := time.Now().UTC()
	if err != nil {
		log.Error("job failed", "error", err)
		if mErr := e.store.MarkFinished(persistCtx, job.ID, StatusFailed, err.Error(), finishedAt); mErr != nil {
			log.Error("failed to persist failed status", "error", mErr)
		}
		return
	}

	log.Info("job completed")
	if mErr := e.store.MarkFinished(persistCtx, job.ID, StatusCompleted, "", finishedAt); mErr != nil {
		log.Error("failed to persist completed status", "error", mErr)
	}
}

// checkPayload validates a raw payload against the definition's schema,
// when the definition declares one.
func (e *Engine) checkPayload(def *definition, raw json.RawMessage) error {
	if def.opts.NewPayload == nil {
		return nil
	}

	v := def.opts.NewPayload()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("invalid payload for %q: %w", def.name, err)
		}
	}
	if err := e.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid payload for %q: %w", def.name, err)
	}
	return nil
}
