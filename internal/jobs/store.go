package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for persisting job records.
type Store interface {
	// Create persists a new job record.
	Create(ctx context.Context, job *Job) error

	// GetByID retrieves one job record.
	// Returns store.ErrJobNotFound if no job matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// Due returns up to limit scheduled jobs ordered by priority rank
	// (high first) and, within a tier, by creation time.
	Due(ctx context.Context, limit int) ([]Job, error)

	// MarkRunning transitions a job to running and sets its liveness
	// lease.
	MarkRunning(ctx context.Context, id uuid.UUID, lockedUntil time.Time) error

	// MarkFinished transitions a job to a terminal status, recording the
	// finish time and, for failures, the reason.
	MarkFinished(ctx context.Context, id uuid.UUID, status Status, failReason string, finishedAt time.Time) error

	// Touch extends the liveness lease of a running job.
	Touch(ctx context.Context, id uuid.UUID, lockedUntil time.Time) error

	// UpdatePayload replaces the stored payload of a job. Used by
	// handlers that accumulate results onto their own record, such as
	// exports persisting the artifact summary.
	UpdatePayload(ctx context.Context, id uuid.UUID, payload json.RawMessage) error

	// List returns job records matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Job, error)
}
