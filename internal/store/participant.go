package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// UpsertResult reports what an upsert during registration sync changed.
type UpsertResult struct {
	// Created is true when the participant did not exist before.
	Created bool

	// NeedsExtraction is true when, after the upsert, the participant has
	// a resume file but no extracted text. A changed resume path clears
	// previously extracted text, so new and replaced uploads both end up
	// here.
	NeedsExtraction bool
}

// ParticipantStore defines the persistence operations the background
// core needs for participants. Full CRUD lives with the entity route
// layer and is out of scope here.
type ParticipantStore interface {
	// GetByID retrieves a participant by its unique ID.
	// Returns ErrParticipantNotFound if no participant matches.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error)

	// GetByIDs retrieves the participants for the given IDs, preserving
	// the requested order. Unknown IDs are silently omitted.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Participant, error)

	// ListIDs returns the IDs of all participants in creation order.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// VisitedCompanyIDs returns the IDs of participants with at least one
	// recorded visit at the given company, in creation order.
	VisitedCompanyIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)

	// MissingExtractedText returns participants that have a resume file
	// but no extracted text yet.
	MissingExtractedText(ctx context.Context) ([]domain.Participant, error)

	// UpdateExtractedText sets the extracted resume text for a
	// participant. Returns ErrParticipantNotFound if no participant
	// matches.
	UpdateExtractedText(ctx context.Context, id uuid.UUID, text string) error

	// Upsert inserts or updates a participant from the external
	// registration source. A resume change clears any previously
	// extracted text.
	Upsert(ctx context.Context, p *domain.Participant) (UpsertResult, error)
}
