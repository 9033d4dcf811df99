package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Participant
var (
	ErrEmptyParticipantID   = errors.New("participant ID cannot be empty")
	ErrEmptyParticipantName = errors.New("participant name cannot be empty")
)

// Resume describes the uploaded resume of a participant. Path refers to
// an object in the file store; ExtractedText is filled in by the
// background extraction pipeline and stays nil until extraction has
// succeeded for the current upload.
type Resume struct {
	Path          string  `json:"path,omitempty"`
	ExtractedText *string `json:"extracted_text,omitempty"`
}

// HasFile reports whether a resume object has been uploaded.
func (r Resume) HasFile() bool {
	return r.Path != ""
}

// Participant represents a fair visitor synced from the external
// registration system: the person whose resume gets extracted, who
// visits booths, and who appears in exports.
type Participant struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Degree        string    `json:"degree"`
	Institution   string    `json:"institution"`
	GraduationYear int      `json:"graduation_year"`
	ExportConsent bool      `json:"export_consent"`
	Resume        Resume    `json:"resume"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks if the Participant has valid data.
// Returns an error if any field fails validation.
func (p *Participant) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyParticipantID
	}
	if p.Name == "" {
		return ErrEmptyParticipantName
	}
	return nil
}
