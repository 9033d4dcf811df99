package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// parseIDParam parses a UUID path parameter, wrapping parse failures in
// domain.ErrInvalidID so handlers can map them to a 400 uniformly.
func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrInvalidID, name)
	}
	return id, nil
}
