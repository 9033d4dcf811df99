package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fairtrack/fairtrack-api/internal/api/shared"
	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/service"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// VisitHandler is the thin route over VisitService.
type VisitHandler struct {
	visits   *service.VisitService
	validate *validator.Validate
}

// NewVisitHandler creates a VisitHandler.
func NewVisitHandler(visits *service.VisitService) *VisitHandler {
	return &VisitHandler{
		visits:   visits,
		validate: validator.New(),
	}
}

// Create handles POST /api/visits: staff records a participant visiting
// their booth.
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid visit request")
		return
	}

	visit, err := h.visits.RecordVisit(r.Context(), req.ParticipantID, identity, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			shared.RespondWithError(w, r, http.StatusForbidden, "Visit recording not permitted")
		case errors.Is(err, store.ErrNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "Participant not found")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to record visit", err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, visit)
}

// ListByParticipant handles GET /api/participants/{participantID}/visits:
// the visit history staff consult at the booth.
func (h *VisitHandler) ListByParticipant(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.IdentityFromContext(r.Context()); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	participantID, err := parseIDParam(r, "participantID")
	if errors.Is(err, domain.ErrInvalidID) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid participant ID")
		return
	}

	visits, err := h.visits.ParticipantVisits(r.Context(), participantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Participant not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list visits", err)
		return
	}

	if visits == nil {
		visits = []domain.Visit{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, visits)
}
