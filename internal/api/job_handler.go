package api

import (
	"net/http"
	"strconv"

	"github.com/fairtrack/fairtrack-api/internal/api/shared"
	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/jobs"
)

// JobHandler serves the read-only job records feed for status displays.
type JobHandler struct {
	engine *jobs.Engine
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(engine *jobs.Engine) *JobHandler {
	return &JobHandler{engine: engine}
}

// List handles GET /api/jobs?name=&status=&limit=. Admin only: job
// records may carry other identities' payload details.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	if identity.Role != domain.RoleAdmin {
		shared.RespondWithError(w, r, http.StatusForbidden, "Admin role required")
		return
	}

	filter := jobs.Filter{
		Name:   r.URL.Query().Get("name"),
		Status: jobs.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	records, err := h.engine.Jobs(r.Context(), filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	out := make([]JobResponse, 0, len(records))
	for _, j := range records {
		out = append(out, JobResponse{
			ID:             j.ID,
			Name:           j.Name,
			Priority:       string(j.Priority),
			Status:         string(j.Status),
			FailReason:     j.FailReason,
			CreatedAt:      j.CreatedAt,
			LockedUntil:    j.LockedUntil,
			LastFinishedAt: j.LastFinishedAt,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, out)
}
