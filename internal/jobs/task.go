package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is the handler-facing view of one job execution. Handlers decode
// their payload from it and may call Touch periodically to signal
// liveness during long runs.
type Task struct {
	job     Job
	store   Store
	lockTTL time.Duration
}

// ID returns the job record's unique identifier.
func (t *Task) ID() uuid.UUID {
	return t.job.ID
}

// Name returns the job name the task was enqueued under.
func (t *Task) Name() string {
	return t.job.Name
}

// Payload returns the raw payload of the job record.
func (t *Task) Payload() json.RawMessage {
	return t.job.Payload
}

// Decode unmarshals the job payload into v.
func (t *Task) Decode(v any) error {
	if len(t.job.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.job.Payload, v); err != nil {
		return fmt.Errorf("failed to decode payload for job %q: %w", t.job.Name, err)
	}
	return nil
}

// Touch extends the job's liveness lease. Long-running handlers should
// call it between units of work so dashboards can tell a live job from
// a wedged one. Nothing acts on a lapsed lease.
func (t *Task) Touch(ctx context.Context) error {
	return t.store.Touch(ctx, t.job.ID, time.Now().UTC().Add(t.lockTTL))
}
