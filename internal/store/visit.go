package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// VisitStore defines the persistence operations for booth visits.
type VisitStore interface {
	// Create persists a new visit.
	Create(ctx context.Context, visit *domain.Visit) error

	// ListByParticipant returns the visits of one participant, most
	// recent first.
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]domain.Visit, error)
}
