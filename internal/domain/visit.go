package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Visit
var (
	ErrEmptyVisitID          = errors.New("visit ID cannot be empty")
	ErrEmptyVisitParticipant = errors.New("visit participant ID cannot be empty")
	ErrEmptyVisitCompany     = errors.New("visit company ID cannot be empty")
)

// Visit records one participant checking in at one company's booth.
type Visit struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	CompanyID     uuid.UUID `json:"company_id"`
	RecordedBy    uuid.UUID `json:"recorded_by"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewVisit creates a new Visit recorded by the given staff identity.
// Returns an error if validation fails.
func NewVisit(participantID, companyID, recordedBy uuid.UUID, note string) (*Visit, error) {
	visit := &Visit{
		ID:            uuid.New(),
		ParticipantID: participantID,
		CompanyID:     companyID,
		RecordedBy:    recordedBy,
		Note:          note,
		CreatedAt:     time.Now().UTC(),
	}

	if err := visit.Validate(); err != nil {
		return nil, err
	}

	return visit, nil
}

// Validate checks if the Visit has valid data.
func (v *Visit) Validate() error {
	if v.ID == uuid.Nil {
		return ErrEmptyVisitID
	}
	if v.ParticipantID == uuid.Nil {
		return ErrEmptyVisitParticipant
	}
	if v.CompanyID == uuid.Nil {
		return ErrEmptyVisitCompany
	}
	return nil
}
