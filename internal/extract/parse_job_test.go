package extract

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/mocks"
	"github.com/fairtrack/fairtrack-api/internal/storage"
)

type jobEnv struct {
	engine       *jobs.Engine
	jobStore     *mocks.MockJobStore
	participants *mocks.MockParticipantStore
	fs           afero.Fs
}

func newJobEnv(t *testing.T) *jobEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs := afero.NewMemMapFs()
	files, err := storage.NewDiskStore(fs, "/files")
	require.NoError(t, err)

	jobStore := mocks.NewMockJobStore()
	participants := mocks.NewMockParticipantStore()

	engine := jobs.NewEngine(jobStore, jobs.EngineConfig{
		PollInterval: 10 * time.Millisecond,
		LockTTL:      time.Minute,
	}, logger)
	NewJobSet(NewService(files, logger), participants, logger).Register(engine)

	return &jobEnv{
		engine:       engine,
		jobStore:     jobStore,
		participants: participants,
		fs:           fs,
	}
}

func (e *jobEnv) putObject(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(e.fs, filepath.Join("/files", name), data, 0o644))
}

func (e *jobEnv) waitJob(t *testing.T, id uuid.UUID) *jobs.Job {
	t.Helper()
	var job *jobs.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = e.jobStore.GetByID(context.Background(), id)
		if err != nil {
			return false
		}
		return job.Status == jobs.StatusCompleted || job.Status == jobs.StatusFailed
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestParseResumeJob(t *testing.T) {
	t.Parallel()

	env := newJobEnv(t)
	env.putObject(t, "resume.docx", buildDocx(t, docxBody))

	p := domain.Participant{
		ID:     uuid.New(),
		Name:   "Jane Doe",
		Resume: domain.Resume{Path: "resume.docx"},
	}
	env.participants.Add(p)

	id, err := env.engine.Now(context.Background(), JobParseResume, ParsePayload{ParticipantID: p.ID})
	require.NoError(t, err)

	env.engine.Start(context.Background())
	defer env.engine.Stop()

	job := env.waitJob(t, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status)

	stored := env.participants.Get(p.ID)
	require.NotNil(t, stored.Resume.ExtractedText)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", *stored.Resume.ExtractedText)
}

func TestParseResumeUnsupportedFormatCompletes(t *testing.T) {
	t.Parallel()

	env := newJobEnv(t)
	env.putObject(t, "photo.png", []byte("pixels"))

	p := domain.Participant{
		ID:     uuid.New(),
		Name:   "Jane Doe",
		Resume: domain.Resume{Path: "photo.png"},
	}
	env.participants.Add(p)

	id, err := env.engine.Now(context.Background(), JobParseResume, ParsePayload{ParticipantID: p.ID})
	require.NoError(t, err)

	env.engine.Start(context.Background())
	defer env.engine.Stop()

	job := env.waitJob(t, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status, "unsupported format must complete, not fail")

	stored := env.participants.Get(p.ID)
	assert.Nil(t, stored.Resume.ExtractedText, "no text must be recorded for an unsupported format")
}

func TestParseResumeMissingObjectFails(t *testing.T) {
	t.Parallel()

	env := newJobEnv(t)

	p := domain.Participant{
		ID:     uuid.New(),
		Name:   "Jane Doe",
		Resume: domain.Resume{Path: "lost.pdf"},
	}
	env.participants.Add(p)

	id, err := env.engine.Now(context.Background(), JobParseResume, ParsePayload{ParticipantID: p.ID})
	require.NoError(t, err)

	env.engine.Start(context.Background())
	defer env.engine.Stop()

	job := env.waitJob(t, id)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.FailReason, "lost.pdf")
}

func TestParseResumeWithoutFileCompletes(t *testing.T) {
	t.Parallel()

	env := newJobEnv(t)

	p := domain.Participant{ID: uuid.New(), Name: "No Upload"}
	env.participants.Add(p)

	id, err := env.engine.Now(context.Background(), JobParseResume, ParsePayload{ParticipantID: p.ID})
	require.NoError(t, err)

	env.engine.Start(context.Background())
	defer env.engine.Stop()

	job := env.waitJob(t, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
}

func TestParseResumeRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	env := newJobEnv(t)
	_, err := env.engine.Now(context.Background(), JobParseResume, ParsePayload{})
	assert.ErrorContains(t, err, "invalid payload")
}

func TestFindMissingTextSweep(t *testing.T) {
	t.Parallel()

	env := newJobEnv(t)
	env.putObject(t, "a.docx", buildDocx(t, docxBody))
	env.putObject(t, "b.docx", buildDocx(t, docxBody))

	missing1 := domain.Participant{ID: uuid.New(), Name: "A", Resume: domain.Resume{Path: "a.docx"}}
	missing2 := domain.Participant{ID: uuid.New(), Name: "B", Resume: domain.Resume{Path: "b.docx"}}
	done := "already extracted"
	extracted := domain.Participant{
		ID:     uuid.New(),
		Name:   "C",
		Resume: domain.Resume{Path: "c.docx", ExtractedText: &done},
	}
	env.participants.Add(missing1)
	env.participants.Add(missing2)
	env.participants.Add(extracted)

	id, err := env.engine.Now(context.Background(), JobFindMissingText, nil)
	require.NoError(t, err)

	env.engine.Start(context.Background())
	defer env.engine.Stop()

	sweep := env.waitJob(t, id)
	assert.Equal(t, jobs.StatusCompleted, sweep.Status)

	// The sweep enqueues exactly one parse job per missing participant.
	enqueued, err := env.jobStore.List(context.Background(), jobs.Filter{Name: JobParseResume})
	require.NoError(t, err)
	assert.Len(t, enqueued, 2)

	require.Eventually(t, func() bool {
		return env.participants.Get(missing1.ID).Resume.ExtractedText != nil &&
			env.participants.Get(missing2.ID).Resume.ExtractedText != nil
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, &done, env.participants.Get(extracted.ID).Resume.ExtractedText)
}
