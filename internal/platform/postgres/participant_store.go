package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/platform/logger"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// ParticipantStore implements the store.ParticipantStore interface
// using PostgreSQL.
type ParticipantStore struct {
	db store.DBTX
}

// NewParticipantStore creates a new ParticipantStore.
func NewParticipantStore(db store.DBTX) *ParticipantStore {
	return &ParticipantStore{db: db}
}

// Ensure ParticipantStore implements store.ParticipantStore.
var _ store.ParticipantStore = (*ParticipantStore)(nil)

const participantColumns = `id, name, email, degree, institution, graduation_year,
	export_consent, resume_path, resume_extracted_text, created_at, updated_at`

// GetByID retrieves a participant by its unique ID.
func (s *ParticipantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`

	p, err := scanParticipant(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", MapError(err))
	}
	return p, nil
}

// GetByIDs retrieves the participants for the given IDs, preserving the
// requested order.
func (s *ParticipantStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	// database/sql has no portable array binding, so build a
	// placeholder list.
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[uuid.UUID]domain.Participant, len(ids))
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		byID[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant rows: %w", err)
	}

	out := make([]domain.Participant, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListIDs returns the IDs of all participants in creation order.
func (s *ParticipantStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.queryIDs(ctx, `SELECT id FROM participants ORDER BY created_at ASC`)
}

// VisitedCompanyIDs returns the IDs of participants with a recorded
// visit at the given company.
func (s *ParticipantStore) VisitedCompanyIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT p.id
		FROM participants p
		WHERE EXISTS (
			SELECT 1 FROM visits v
			WHERE v.participant_id = p.id AND v.company_id = $1
		)
		ORDER BY p.created_at ASC
	`
	return s.queryIDs(ctx, query, companyID)
}

// MissingExtractedText returns participants that have a resume file but
// no extracted text yet.
func (s *ParticipantStore) MissingExtractedText(ctx context.Context) ([]domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE resume_path <> '' AND resume_extracted_text IS NULL
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants missing text: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant rows: %w", err)
	}
	return out, nil
}

// UpdateExtractedText sets the extracted resume text for a participant.
func (s *ParticipantStore) UpdateExtractedText(ctx context.Context, id uuid.UUID, text string) error {
	query := `
		UPDATE participants
		SET resume_extracted_text = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, text, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update extracted text: %w", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrParticipantNotFound, id)
	}
	return nil
}

// Upsert inserts or updates a participant from the external
// registration source. A resume change clears previously extracted
// text so the extraction pipeline picks the participant up again.
func (s *ParticipantStore) Upsert(ctx context.Context, p *domain.Participant) (store.UpsertResult, error) {
	log := logger.FromContext(ctx)

	if err := p.Validate(); err != nil {
		return store.UpsertResult{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	query := `
		INSERT INTO participants
			(id, name, email, degree, institution, graduation_year,
			 export_consent, resume_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			degree = EXCLUDED.degree,
			institution = EXCLUDED.institution,
			graduation_year = EXCLUDED.graduation_year,
			export_consent = EXCLUDED.export_consent,
			resume_path = EXCLUDED.resume_path,
			resume_extracted_text = CASE
				WHEN participants.resume_path IS DISTINCT FROM EXCLUDED.resume_path THEN NULL
				ELSE participants.resume_extracted_text
			END,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted,
			(resume_path <> '' AND resume_extracted_text IS NULL) AS resume_pending
	`

	now := time.Now().UTC()
	var inserted, resumePending bool
	err := s.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Email, p.Degree, p.Institution, p.GraduationYear,
		p.ExportConsent, p.Resume.Path, now,
	).Scan(&inserted, &resumePending)
	if err != nil {
		log.Error("failed to upsert participant", "participant_id", p.ID, "error", err)
		return store.UpsertResult{}, fmt.Errorf("failed to upsert participant: %w", MapError(err))
	}

	return store.UpsertResult{
		Created:         inserted,
		NeedsExtraction: resumePending,
	}, nil
}

func (s *ParticipantStore) queryIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant IDs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant ID rows: %w", err)
	}
	return ids, nil
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	var (
		p         domain.Participant
		resume    sql.NullString
		extracted sql.NullString
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Degree,
		&p.Institution,
		&p.GraduationYear,
		&p.ExportConsent,
		&resume,
		&extracted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Resume.Path = resume.String
	if extracted.Valid {
		text := extracted.String
		p.Resume.ExtractedText = &text
	}
	return &p, nil
}
