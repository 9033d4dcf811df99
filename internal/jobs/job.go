// Package jobs implements the persistent background job engine: named
// job definitions with per-name concurrency slots and priorities,
// immediate and cron-recurring enqueueing, and a polling scheduler that
// converts handler outcomes into persisted job records.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job record.
type Status string

// Possible job status values. A job moves scheduled -> running ->
// completed or failed; recurring triggers create a fresh record per
// firing instead of recycling an old one.
const (
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Priority orders eligible jobs in the scheduler: all due high-priority
// jobs start before any normal one, and so on. Within a tier, creation
// order wins.
type Priority string

// Possible job priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Rank returns the numeric scheduling rank of the priority; higher runs
// first. Unknown values rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// Job is one persisted unit of background work. Records are kept after
// completion as audit history and are never deleted automatically.
type Job struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`

	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`

	// FailReason is the human-readable reason recorded when a handler
	// fails; empty otherwise.
	FailReason string `json:"fail_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// LockedUntil is a liveness lease extended by Task.Touch while a
	// handler runs. Purely observational: nothing kills a job whose
	// lease lapsed.
	LockedUntil *time.Time `json:"locked_until,omitempty"`

	// LastFinishedAt is set when the job reaches a terminal status.
	LastFinishedAt *time.Time `json:"last_finished_at,omitempty"`
}

// Filter narrows Engine.Jobs queries. Zero values mean "any".
type Filter struct {
	Name   string
	Status Status
	Limit  int
}
