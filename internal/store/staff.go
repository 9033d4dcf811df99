package store

import (
	"context"

	"github.com/google/uuid"
)

// StaffStore is the identity-store lookup used for cohort fan-out.
// Account management itself belongs to the external identity provider;
// this service only resolves membership at event-emission time.
type StaffStore interface {
	// VerifiedStaffIDs returns the identity UUIDs of all verified staff
	// accounts of the given company.
	VerifiedStaffIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}
