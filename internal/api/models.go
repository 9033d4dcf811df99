// Package api implements the HTTP handlers of the background core:
// export requests, one-time artifact downloads, the jobs dashboard
// feed, visit recording, and the realtime channel handshake.
package api

import (
	"time"

	"github.com/google/uuid"
)

// CreateExportRequest is the body of POST /api/exports.
type CreateExportRequest struct {
	Mode   string      `json:"selection_mode" validate:"required,oneof=all ids company"`
	IDs    []uuid.UUID `json:"candidate_ids"  validate:"required_if=Mode ids"`
	Format string      `json:"format"         validate:"required,oneof=zip csv xlsx"`
}

// CreateExportResponse returns the job ID the client should watch the
// realtime channel for.
type CreateExportResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

// CreateVisitRequest is the body of POST /api/visits.
type CreateVisitRequest struct {
	ParticipantID uuid.UUID `json:"participant_id" validate:"required"`
	Note          string    `json:"note"`
}

// JobResponse is one job record in the dashboard feed.
type JobResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	FailReason     string     `json:"fail_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	LastFinishedAt *time.Time `json:"last_finished_at,omitempty"`
}
