package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/extract"
	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// JobSyncRegistrations is the recurring job re-importing registrants.
const JobSyncRegistrations = "sync-registrations"

// Syncer upserts registrant records and enqueues extraction for every
// participant whose resume still needs text.
type Syncer struct {
	source       Source
	participants store.ParticipantStore
	logger       *slog.Logger
}

// NewSyncer creates the registration syncer.
func NewSyncer(source Source, participants store.ParticipantStore, logger *slog.Logger) *Syncer {
	return &Syncer{
		source:       source,
		participants: participants,
		logger:       logger.With("component", "sync"),
	}
}

// Register defines the sync job on the engine. Concurrency 1: two
// overlapping imports of the same list would only race each other.
func (s *Syncer) Register(engine *jobs.Engine) {
	engine.Define(JobSyncRegistrations, jobs.Options{
		Concurrency: 1,
		Priority:    jobs.PriorityLow,
	}, func(ctx context.Context, t *jobs.Task) error {
		return s.run(ctx, engine, t)
	})
}

func (s *Syncer) run(ctx context.Context, engine *jobs.Engine, t *jobs.Task) error {
	records, err := s.source.FetchRegistrants(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch registrants: %w", err)
	}

	var created, queued int
	for i, rec := range records {
		p := &domain.Participant{
			ID:             rec.ID,
			Name:           rec.Name,
			Email:          rec.Email,
			Degree:         rec.Degree,
			Institution:    rec.Institution,
			GraduationYear: rec.GraduationYear,
			ExportConsent:  rec.ExportConsent,
			Resume:         domain.Resume{Path: rec.ResumePath},
			CreatedAt:      time.Now().UTC(),
			UpdatedAt:      time.Now().UTC(),
		}

		result, err := s.participants.Upsert(ctx, p)
		if err != nil {
			// One bad record must not abort the import of the rest.
			s.logger.Error("failed to upsert registrant",
				"participant_id", rec.ID,
				"error", err)
			continue
		}
		if result.Created {
			created++
		}

		if result.NeedsExtraction {
			if _, err := engine.Now(ctx, extract.JobParseResume, extract.ParsePayload{ParticipantID: rec.ID}); err != nil {
				s.logger.Error("failed to enqueue extraction",
					"participant_id", rec.ID,
					"error", err)
				continue
			}
			queued++
		}

		if i%100 == 99 {
			if err := t.Touch(ctx); err != nil {
				s.logger.Warn("failed to touch sync job", "error", err)
			}
		}
	}

	s.logger.Info("registration sync finished",
		"records", len(records),
		"created", created,
		"extractions_enqueued", queued)
	return nil
}
