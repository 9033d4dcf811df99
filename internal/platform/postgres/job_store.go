package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/platform/logger"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// JobStore implements the jobs.Store interface using PostgreSQL.
type JobStore struct {
	db store.DBTX
}

// NewJobStore creates a new JobStore.
func NewJobStore(db store.DBTX) *JobStore {
	return &JobStore{db: db}
}

// Ensure JobStore implements jobs.Store.
var _ jobs.Store = (*JobStore)(nil)

const jobColumns = `id, name, payload, priority, status, fail_reason, created_at, locked_until, last_finished_at`

// Create persists a new job record.
func (s *JobStore) Create(ctx context.Context, job *jobs.Job) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO jobs (id, name, payload, priority, status, fail_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		job.Payload,
		job.Priority,
		job.Status,
		job.FailReason,
		job.CreatedAt,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID,
			"job_name", job.Name,
			"error", err)
		return fmt.Errorf("failed to save job: %w", MapError(err))
	}

	return nil
}

// GetByID retrieves one job record.
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}
	return job, nil
}

// Due returns up to limit scheduled jobs, highest priority first, oldest
// first inside a priority tier.
func (s *JobStore) Due(ctx context.Context, limit int) ([]jobs.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		ORDER BY
			CASE priority WHEN 'high' THEN 2 WHEN 'normal' THEN 1 ELSE 0 END DESC,
			created_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, jobs.StatusScheduled, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	return collectJobs(rows)
}

// MarkRunning transitions a job to running and sets its liveness lease.
func (s *JobStore) MarkRunning(ctx context.Context, id uuid.UUID, lockedUntil time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, locked_until = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, jobs.StatusRunning, lockedUntil, id, jobs.StatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", MapError(err))
	}
	return requireRowsAffected(result, id)
}

// MarkFinished transitions a job to a terminal status.
func (s *JobStore) MarkFinished(ctx context.Context, id uuid.UUID, status jobs.Status, failReason string, finishedAt time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, fail_reason = $2, last_finished_at = $3, locked_until = NULL
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, failReason, finishedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark job finished: %w", MapError(err))
	}
	return requireRowsAffected(result, id)
}

// Touch extends the liveness lease of a running job.
func (s *JobStore) Touch(ctx context.Context, id uuid.UUID, lockedUntil time.Time) error {
	query := `UPDATE jobs SET locked_until = $1 WHERE id = $2 AND status = $3`

	result, err := s.db.ExecContext(ctx, query, lockedUntil, id, jobs.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to touch job: %w", MapError(err))
	}
	return requireRowsAffected(result, id)
}

// UpdatePayload replaces the stored payload of a job.
func (s *JobStore) UpdatePayload(ctx context.Context, id uuid.UUID, payload json.RawMessage) error {
	query := `UPDATE jobs SET payload = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, payload, id)
	if err != nil {
		return fmt.Errorf("failed to update job payload: %w", MapError(err))
	}
	return requireRowsAffected(result, id)
}

// List returns job records matching the filter, newest first.
func (s *JobStore) List(ctx context.Context, filter jobs.Filter) ([]jobs.Job, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Name != "" {
		args = append(args, filter.Name)
		conds = append(conds, fmt.Sprintf("name = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	return collectJobs(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*jobs.Job, error) {
	var (
		job        jobs.Job
		failReason sql.NullString
		locked     sql.NullTime
		finished   sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.Name,
		&job.Payload,
		&job.Priority,
		&job.Status,
		&failReason,
		&job.CreatedAt,
		&locked,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	job.FailReason = failReason.String
	if locked.Valid {
		t := locked.Time
		job.LockedUntil = &t
	}
	if finished.Valid {
		t := finished.Time
		job.LastFinishedAt = &t
	}
	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]jobs.Job, error) {
	var out []jobs.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}
	return out, nil
}

func requireRowsAffected(result sql.Result, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
	}
	return nil
}
