package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// Job names owned by the extraction pipeline.
const (
	// JobParseResume extracts text for a single participant's resume.
	JobParseResume = "parse-resume"

	// JobFindMissingText sweeps for participants that still have no
	// extracted text and re-enqueues JobParseResume for each. This is
	// the retry path: a failed parse leaves the text unset, so the next
	// sweep picks the participant up again.
	JobFindMissingText = "find-missing-text"
)

// ParsePayload is the validated payload of a JobParseResume job.
type ParsePayload struct {
	ParticipantID uuid.UUID `json:"participant_id" validate:"required"`
}

// JobSet wires the extraction pipeline into the job engine.
type JobSet struct {
	svc          *Service
	participants store.ParticipantStore
	logger       *slog.Logger
}

// NewJobSet creates the extraction job set.
func NewJobSet(svc *Service, participants store.ParticipantStore, logger *slog.Logger) *JobSet {
	return &JobSet{
		svc:          svc,
		participants: participants,
		logger:       logger.With("component", "extract_jobs"),
	}
}

// Register defines the extraction jobs on the engine.
func (j *JobSet) Register(engine *jobs.Engine) {
	engine.Define(JobParseResume, jobs.Options{
		Concurrency: 2,
		Priority:    jobs.PriorityNormal,
		NewPayload:  func() any { return new(ParsePayload) },
	}, j.handleParse)

	engine.Define(JobFindMissingText, jobs.Options{
		Concurrency: 1,
		Priority:    jobs.PriorityLow,
	}, func(ctx context.Context, t *jobs.Task) error {
		return j.handleFindMissing(ctx, engine, t)
	})
}

// handleParse extracts text for one participant. An unsupported format
// completes the job without touching the participant; an I/O failure
// fails the job with a reason naming the file, leaving the text unset
// so the sweep job retries later.
func (j *JobSet) handleParse(ctx context.Context, t *jobs.Task) error {
	var payload ParsePayload
	if err := t.Decode(&payload); err != nil {
		return err
	}

	p, err := j.participants.GetByID(ctx, payload.ParticipantID)
	if err != nil {
		return fmt.Errorf("failed to load participant %s: %w", payload.ParticipantID, err)
	}

	if !p.Resume.HasFile() {
		j.logger.Debug("participant has no resume file", "participant_id", p.ID)
		return nil
	}

	text, supported, err := j.svc.ExtractText(ctx, p.Resume.Path)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", p.Resume.Path, err)
	}
	if !supported {
		j.logger.Info("resume format not supported, skipping",
			"participant_id", p.ID,
			"file", p.Resume.Path)
		return nil
	}

	if err := j.participants.UpdateExtractedText(ctx, p.ID, text); err != nil {
		return fmt.Errorf("failed to store extracted text: %w", err)
	}

	j.logger.Info("resume text extracted",
		"participant_id", p.ID,
		"chars", len(text))
	return nil
}

// handleFindMissing enqueues a parse job per participant still missing
// extracted text. Enqueueing twice for the same participant is
// harmless: by the time the second job runs, the text is set and the
// participant no longer matches the sweep.
func (j *JobSet) handleFindMissing(ctx context.Context, engine *jobs.Engine, t *jobs.Task) error {
	missing, err := j.participants.MissingExtractedText(ctx)
	if err != nil {
		return fmt.Errorf("failed to find participants missing text: %w", err)
	}

	for i, p := range missing {
		if _, err := engine.Now(ctx, JobParseResume, ParsePayload{ParticipantID: p.ID}); err != nil {
			return fmt.Errorf("failed to enqueue parse for %s: %w", p.ID, err)
		}

		// Keep the liveness lease fresh on big sweeps.
		if i%50 == 49 {
			if err := t.Touch(ctx); err != nil {
				j.logger.Warn("failed to touch sweep job", "error", err)
			}
		}
	}

	j.logger.Info("extraction sweep enqueued", "count", len(missing))
	return nil
}
