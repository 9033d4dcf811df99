// Package service holds the thin application services sitting between
// the HTTP layer and the stores.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/realtime"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// VisitService records booth visits and fans the resulting events out:
// a guaranteed visit notification to the participant, and a cohort
// reload notification to the visited company's verified staff.
type VisitService struct {
	participants store.ParticipantStore
	visits       store.VisitStore
	hub          *realtime.Hub
	logger       *slog.Logger
}

// NewVisitService creates a VisitService.
func NewVisitService(
	participants store.ParticipantStore,
	visits store.VisitStore,
	hub *realtime.Hub,
	logger *slog.Logger,
) *VisitService {
	return &VisitService{
		participants: participants,
		visits:       visits,
		hub:          hub,
		logger:       logger.With("component", "visit_service"),
	}
}

// RecordVisit persists a visit recorded by staff and emits the
// notifications. The notification fan-out is best-effort relative to
// persistence: a delivery problem never rolls the visit back.
func (s *VisitService) RecordVisit(
	ctx context.Context,
	participantID uuid.UUID,
	staff domain.Identity,
	note string,
) (*domain.Visit, error) {
	if staff.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: staff identity has no company", domain.ErrUnauthorized)
	}

	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}

	visit, err := domain.NewVisit(participantID, staff.CompanyID, staff.UUID, note)
	if err != nil {
		return nil, err
	}

	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to save visit: %w", err)
	}

	s.hub.UnicastGuaranteed(participantID.String(), realtime.NewVisit(participant, visit))
	if err := s.hub.MulticastCompany(ctx, staff.CompanyID, realtime.NewReloadParticipant(participant, visit)); err != nil {
		s.logger.Warn("failed to notify company cohort",
			"company_id", staff.CompanyID,
			"error", err)
	}

	return visit, nil
}

// ParticipantVisits returns a participant's booth visit history, most
// recent first. Backs the status view staff check between booth talks.
func (s *VisitService) ParticipantVisits(ctx context.Context, participantID uuid.UUID) ([]domain.Visit, error) {
	if _, err := s.participants.GetByID(ctx, participantID); err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}

	visits, err := s.visits.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}
