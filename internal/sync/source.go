// Package sync periodically re-imports participants from the external
// registration system and feeds new or changed resumes into the
// extraction pipeline.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Record is one registrant as the external registration source reports
// it. The sync only consumes this list; registration itself lives
// elsewhere.
type Record struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Degree         string    `json:"degree"`
	Institution    string    `json:"institution"`
	GraduationYear int       `json:"graduation_year"`
	ExportConsent  bool      `json:"export_consent"`
	ResumePath     string    `json:"resume_path"`
}

// Source bulk-fetches the current registrant records.
type Source interface {
	FetchRegistrants(ctx context.Context) ([]Record, error)
}

// HTTPSource fetches registrants from the registration system's bulk
// JSON endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a Source against the given endpoint URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ensure HTTPSource implements Source.
var _ Source = (*HTTPSource)(nil)

// FetchRegistrants downloads and decodes the full registrant list.
func (s *HTTPSource) FetchRegistrants(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registration request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registrants: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registration source returned status %d", resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode registrant list: %w", err)
	}
	return records, nil
}
