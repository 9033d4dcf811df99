// Package realtime delivers job progress and data-change events to live
// client connections, keyed by identity. Registrations are in-memory
// and ephemeral: a restart drops every connection and clients must
// reconnect; there is no event log or replay.
package realtime

import (
	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// Event names delivered to clients.
const (
	// EventExportProgress is a volatile progress-bar update.
	EventExportProgress = "export-progress"

	// EventExportComplete tells the requester the artifact is ready for
	// its one-time download.
	EventExportComplete = "export-complete"

	// EventExportFailed tells the requester the export died, so the
	// client can stop showing a progress bar that will never finish.
	EventExportFailed = "export-failed"

	// EventVisit notifies a participant of a new booth visit.
	EventVisit = "visit"

	// EventReloadParticipant tells company staff a participant's data
	// changed and should be re-fetched.
	EventReloadParticipant = "reload-participant"
)

// Event is one message on the realtime channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// NewExportProgress builds a volatile progress event.
func NewExportProgress(jobID uuid.UUID, percentage int) Event {
	return Event{Name: EventExportProgress, Data: map[string]any{
		"id":         jobID,
		"percentage": percentage,
	}}
}

// NewExportComplete builds the guaranteed completion event carrying
// what the client needs to request the download.
func NewExportComplete(jobID uuid.UUID, filetype string) Event {
	return Event{Name: EventExportComplete, Data: map[string]any{
		"id":       jobID,
		"filetype": filetype,
	}}
}

// NewExportFailed builds the guaranteed failure event.
func NewExportFailed(jobID uuid.UUID, reason string) Event {
	return Event{Name: EventExportFailed, Data: map[string]any{
		"id":     jobID,
		"reason": reason,
	}}
}

// NewVisit builds the guaranteed visit notification for a participant.
func NewVisit(participant *domain.Participant, visit *domain.Visit) Event {
	return Event{Name: EventVisit, Data: map[string]any{
		"participant": participant,
		"visit":       visit,
	}}
}

// NewReloadParticipant builds the cohort-scoped re-fetch notification.
// visit may be nil when the change was not visit-driven.
func NewReloadParticipant(participant *domain.Participant, visit *domain.Visit) Event {
	data := map[string]any{"participant": participant}
	if visit != nil {
		data["visit"] = visit
	}
	return Event{Name: EventReloadParticipant, Data: data}
}
