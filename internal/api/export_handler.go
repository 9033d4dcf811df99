package api

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fairtrack/fairtrack-api/internal/api/shared"
	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/export"
	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// ExportHandler serves export creation and the one-time artifact
// download.
type ExportHandler struct {
	engine   *jobs.Engine
	exports  *export.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(engine *jobs.Engine, exports *export.Service, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		engine:   engine,
		exports:  exports,
		validate: validator.New(),
		logger:   logger.With("component", "export_handler"),
	}
}

// Create handles POST /api/exports: authorize, enqueue the export job,
// return its ID. The job runs in the background; completion arrives on
// the realtime channel.
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid export request")
		return
	}

	mode := export.Mode(req.Mode)
	if err := h.exports.Authorize(identity, mode); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			shared.RespondWithError(w, r, http.StatusForbidden, "Export not permitted")
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid export request")
		return
	}

	jobID, err := h.engine.Now(r.Context(), export.JobExportResumes, export.JobPayload{
		Mode:      mode,
		IDs:       req.IDs,
		Format:    export.Format(req.Format),
		Requester: identity,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create export", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateExportResponse{JobID: jobID})
}

// Download handles GET /api/exports/{jobID}/download?filetype=: the
// single-use artifact stream. The artifact is deleted once the stream
// ends or errors; a repeat request finds nothing and gets 404.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	jobID, err := parseIDParam(r, "jobID")
	if errors.Is(err, domain.ErrInvalidID) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}
	format := export.Format(r.URL.Query().Get("filetype"))
	if format != export.FormatZip && format != export.FormatCSV && format != export.FormatXLSX {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid filetype")
		return
	}

	job, err := h.engine.Job(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Export not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to load export", err)
		return
	}

	var payload export.JobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to load export", err)
		return
	}
	// The artifact is a capability of its requester alone.
	if payload.Requester.UUID != identity.UUID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Export not found")
		return
	}

	file, err := h.exports.OpenArtifact(jobID, format)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Export not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to open artifact", err)
		return
	}
	defer func() {
		_ = file.Close()
		if err := h.exports.DeleteArtifact(jobID, format); err != nil {
			h.logger.Error("failed to delete consumed artifact",
				"job_id", jobID,
				"error", err)
		}
	}()

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="export-`+jobID.String()+`.`+string(format)+`"`)
	if _, err := io.Copy(w, file); err != nil {
		// The artifact is consumed either way; the deferred delete runs.
		h.logger.Warn("artifact stream interrupted", "job_id", jobID, "error", err)
	}
}

func contentType(format export.Format) string {
	switch format {
	case export.FormatZip:
		return "application/zip"
	case export.FormatCSV:
		return "text/csv"
	case export.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
