package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/platform/logger"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// VisitStore implements the store.VisitStore interface using PostgreSQL.
type VisitStore struct {
	db store.DBTX
}

// NewVisitStore creates a new VisitStore.
func NewVisitStore(db store.DBTX) *VisitStore {
	return &VisitStore{db: db}
}

// Ensure VisitStore implements store.VisitStore.
var _ store.VisitStore = (*VisitStore)(nil)

// Create persists a new visit.
func (s *VisitStore) Create(ctx context.Context, visit *domain.Visit) error {
	log := logger.FromContext(ctx)

	if err := visit.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	query := `
		INSERT INTO visits (id, participant_id, company_id, recorded_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		visit.ID,
		visit.ParticipantID,
		visit.CompanyID,
		visit.RecordedBy,
		visit.Note,
		visit.CreatedAt,
	)
	if err != nil {
		log.Error("failed to save visit",
			"visit_id", visit.ID,
			"participant_id", visit.ParticipantID,
			"error", err)
		return fmt.Errorf("failed to save visit: %w", MapError(err))
	}

	return nil
}

// ListByParticipant returns the visits of one participant, most recent
// first.
func (s *VisitStore) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]domain.Visit, error) {
	query := `
		SELECT id, participant_id, company_id, recorded_by, note, created_at
		FROM visits
		WHERE participant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Visit
	for rows.Next() {
		var v domain.Visit
		if err := rows.Scan(&v.ID, &v.ParticipantID, &v.CompanyID, &v.RecordedBy, &v.Note, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visit rows: %w", err)
	}
	return out, nil
}
