package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/store"
)

// StaffStore implements the store.StaffStore lookup using PostgreSQL.
// The staff table is a read-side mirror maintained by the external
// identity provider's sync; this service never writes it.
type StaffStore struct {
	db store.DBTX
}

// NewStaffStore creates a new StaffStore.
func NewStaffStore(db store.DBTX) *StaffStore {
	return &StaffStore{db: db}
}

// Ensure StaffStore implements store.StaffStore.
var _ store.StaffStore = (*StaffStore)(nil)

// VerifiedStaffIDs returns the identity UUIDs of all verified staff
// accounts of the given company.
func (s *StaffStore) VerifiedStaffIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM staff
		WHERE company_id = $1 AND verified = TRUE
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verified staff: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan staff ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff rows: %w", err)
	}
	return ids, nil
}
