// Package export orchestrates bulk resume exports: resolve a candidate
// set, stream it into an archive or tabular artifact while reporting
// progress over the realtime channel, and hand the artifact to a
// single-use download.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/realtime"
	"github.com/fairtrack/fairtrack-api/internal/storage"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// JobExportResumes is the job name of the export orchestrator.
const JobExportResumes = "export-resumes"

// Mode selects which participants an export covers.
type Mode string

// Selection modes.
const (
	// ModeAll exports every participant. Admin only.
	ModeAll Mode = "all"

	// ModeIDs exports an explicit ID list.
	ModeIDs Mode = "ids"

	// ModeCompany exports the participants who visited the requester's
	// company booth. Verified company staff only.
	ModeCompany Mode = "company"
)

// Format selects the artifact type.
type Format string

// Artifact formats.
const (
	FormatZip  Format = "zip"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// JobPayload is the validated payload of an export job. The result
// fields start zero and are merged back onto the job record when the
// run finishes, which is what the jobs dashboard and the download
// endpoint read.
type JobPayload struct {
	Mode      Mode            `json:"selection_mode" validate:"required,oneof=all ids company"`
	IDs       []uuid.UUID     `json:"candidate_ids,omitempty"`
	Format    Format          `json:"format"         validate:"required,oneof=zip csv xlsx"`
	Requester domain.Identity `json:"requester"`

	// Result fields, filled in on completion.
	Total        int    `json:"total,omitempty"`
	ElapsedMS    int64  `json:"elapsed_ms,omitempty"`
	ArtifactSize int64  `json:"artifact_size,omitempty"`
	ArtifactPath string `json:"artifact_path,omitempty"`
}

// Service runs export jobs and owns the artifact directory.
type Service struct {
	participants store.ParticipantStore
	files        storage.FileStore
	jobStore     jobs.Store
	hub          *realtime.Hub
	artifactDir  string
	logger       *slog.Logger
}

// NewService creates the export orchestrator. The artifact directory is
// created if missing.
func NewService(
	participants store.ParticipantStore,
	files storage.FileStore,
	jobStore jobs.Store,
	hub *realtime.Hub,
	artifactDir string,
	logger *slog.Logger,
) (*Service, error) {
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir %s: %w", artifactDir, err)
	}
	return &Service{
		participants: participants,
		files:        files,
		jobStore:     jobStore,
		hub:          hub,
		artifactDir:  artifactDir,
		logger:       logger.With("component", "export"),
	}, nil
}

// Register defines the export job on the engine.
func (s *Service) Register(engine *jobs.Engine) {
	engine.Define(JobExportResumes, jobs.Options{
		Concurrency: 4,
		Priority:    jobs.PriorityHigh,
		NewPayload:  func() any { return new(JobPayload) },
	}, s.handleExport)
}

// Authorize checks whether the identity may run an export in the given
// mode. Runs before candidate resolution, so an unauthorized requester
// never learns set sizes.
func (s *Service) Authorize(identity domain.Identity, mode Mode) error {
	switch mode {
	case ModeAll:
		if !identity.CanExportAll() {
			return fmt.Errorf("%w: export of all participants requires admin", domain.ErrUnauthorized)
		}
	case ModeCompany:
		if !identity.CanExportCompany() {
			return fmt.Errorf("%w: company export requires verified company staff", domain.ErrUnauthorized)
		}
	case ModeIDs:
		if identity.Role != domain.RoleAdmin && identity.Role != domain.RoleStaff {
			return fmt.Errorf("%w: export requires a staff identity", domain.ErrUnauthorized)
		}
	default:
		return fmt.Errorf("%w: unknown selection mode %q", domain.ErrValidation, mode)
	}
	return nil
}

// ArtifactPath returns where the artifact of a job lives while awaiting
// its single download.
func (s *Service) ArtifactPath(jobID uuid.UUID, format Format) string {
	return filepath.Join(s.artifactDir, fmt.Sprintf("%s.%s", jobID, format))
}

// OpenArtifact opens a finished artifact for its one-time download.
// Returns fs.ErrNotExist (wrapped) when the artifact is gone, which
// includes "already downloaded".
func (s *Service) OpenArtifact(jobID uuid.UUID, format Format) (*os.File, error) {
	return os.Open(s.ArtifactPath(jobID, format))
}

// DeleteArtifact removes an artifact. Called after its single download
// streamed, whether or not the stream finished cleanly.
func (s *Service) DeleteArtifact(jobID uuid.UUID, format Format) error {
	err := os.Remove(s.ArtifactPath(jobID, format))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// handleExport is the job handler. Any failure emits a guaranteed
// export-failed event before the job is marked failed, so clients can
// tell a dead export from a slow one.
func (s *Service) handleExport(ctx context.Context, t *jobs.Task) error {
	var payload JobPayload
	if err := t.Decode(&payload); err != nil {
		return err
	}

	requester := payload.Requester.UUID.String()
	if err := s.run(ctx, t, &payload); err != nil {
		s.hub.UnicastGuaranteed(requester, realtime.NewExportFailed(t.ID(), err.Error()))
		return err
	}

	s.hub.UnicastGuaranteed(requester, realtime.NewExportComplete(t.ID(), string(payload.Format)))
	return nil
}

func (s *Service) run(ctx context.Context, t *jobs.Task, payload *JobPayload) error {
	start := time.Now()
	log := s.logger.With("job_id", t.ID(), "mode", payload.Mode, "format", payload.Format)

	ids, err := s.resolveCandidates(ctx, payload)
	if err != nil {
		return err
	}
	total := len(ids)
	requester := payload.Requester.UUID.String()

	path := s.ArtifactPath(t.ID(), payload.Format)
	builder, err := newBuilder(payload.Format, path)
	if err != nil {
		return err
	}
	// On failure the half-written artifact must not linger, or the
	// download endpoint would serve garbage.
	finished := false
	defer func() {
		if !finished {
			_ = builder.Abort()
			_ = os.Remove(path)
		}
	}()

	for i, id := range ids {
		p, err := s.participants.GetByID(ctx, id)
		if err != nil {
			// The candidate vanished between resolution and now; that is
			// a per-entity condition, not a reason to kill the export.
			log.Warn("skipping unknown participant", "participant_id", id, "error", err)
			s.emitProgress(requester, t.ID(), i+1, total)
			continue
		}

		var resume []byte
		if payload.Format == FormatZip && p.Resume.HasFile() {
			resume = s.readResume(ctx, log, p)
		}

		if err := builder.Add(*p, resume); err != nil {
			return fmt.Errorf("failed to add participant %s to artifact: %w", p.ID, err)
		}

		s.emitProgress(requester, t.ID(), i+1, total)

		if i%20 == 19 {
			if touchErr := t.Touch(ctx); touchErr != nil {
				log.Warn("failed to touch export job", "error", touchErr)
			}
		}
	}

	size, err := builder.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}

	payload.Total = total
	payload.ElapsedMS = time.Since(start).Milliseconds()
	payload.ArtifactSize = size
	payload.ArtifactPath = path

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal export result: %w", err)
	}
	if err := s.jobStore.UpdatePayload(ctx, t.ID(), raw); err != nil {
		return fmt.Errorf("failed to persist export result: %w", err)
	}

	finished = true
	log.Info("export finished",
		"total", total,
		"artifact_size", size,
		"elapsed_ms", payload.ElapsedMS)
	return nil
}

// readResume fetches one resume's bytes. A missing or unreadable file
// is logged and skipped; the participant's summary still makes it into
// the archive.
func (s *Service) readResume(ctx context.Context, log *slog.Logger, p *domain.Participant) []byte {
	rc, err := s.files.ReadFile(ctx, p.Resume.Path)
	if err != nil {
		log.Warn("skipping resume attachment",
			"participant_id", p.ID,
			"file", p.Resume.Path,
			"error", err)
		return nil
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		log.Warn("skipping unreadable resume attachment",
			"participant_id", p.ID,
			"file", p.Resume.Path,
			"error", err)
		return nil
	}
	return data
}

func (s *Service) emitProgress(requester string, jobID uuid.UUID, done, total int) {
	pct := 100
	if total > 0 {
		pct = int(math.Round(float64(done) / float64(total) * 100))
	}
	s.hub.UnicastVolatile(requester, realtime.NewExportProgress(jobID, pct))
}

func (s *Service) resolveCandidates(ctx context.Context, payload *JobPayload) ([]uuid.UUID, error) {
	switch payload.Mode {
	case ModeAll:
		return s.participants.ListIDs(ctx)
	case ModeIDs:
		// Batch-resolve up front so unknown IDs fall out of the
		// candidate set and the progress denominator.
		found, err := s.participants.GetByIDs(ctx, payload.IDs)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, len(found))
		for i, p := range found {
			ids[i] = p.ID
		}
		return ids, nil
	case ModeCompany:
		return s.participants.VisitedCompanyIDs(ctx, payload.Requester.CompanyID)
	default:
		return nil, fmt.Errorf("%w: unknown selection mode %q", domain.ErrValidation, payload.Mode)
	}
}
