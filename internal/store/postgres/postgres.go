// Package postgres provides a PostgreSQL-backed job store for multi-node
// deployments where several daemon instances share one job table.
//
// The compare-and-set discipline is identical to the sqlite store: every
// transition is a conditional UPDATE and the row count tells the caller
// whether its precondition still held when the statement committed.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomscan/internal/detect"
	"roomscan/internal/job"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	content_address TEXT NOT NULL,
	state           TEXT NOT NULL,
	attempt         INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	result          JSONB,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

// Store is a job.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database at dsn, verifies the connection and ensures
// the jobs table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CreateJob inserts the job; the primary key arbitrates concurrent
// duplicate creates.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, content_address, state, attempt, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		j.ID, j.ContentAddress, string(j.State), j.Attempt, j.Error, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", j.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrDuplicate
	}
	return nil
}

// GetJob reads the current job row.
func (s *Store) GetJob(ctx context.Context, id string) (*job.Job, error) {
	var j job.Job
	var state string
	err := s.pool.QueryRow(ctx, `
		SELECT id, content_address, state, attempt, error, created_at, updated_at
		FROM jobs WHERE id = $1`, id).
		Scan(&j.ID, &j.ContentAddress, &state, &j.Attempt, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading job %s: %w", id, err)
	}
	j.State = job.State(state)
	return &j, nil
}

// ClaimJob performs the Queued -> Processing compare-and-set.
func (s *Store) ClaimJob(ctx context.Context, id string) (*job.Job, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET state = $1, attempt = attempt + 1, updated_at = $2
		WHERE id = $3 AND state = $4`,
		string(job.StateProcessing), time.Now().UTC(), id, string(job.StateQueued))
	if err != nil {
		return nil, fmt.Errorf("claiming job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.conflictOrNotFound(ctx, id)
	}
	return s.GetJob(ctx, id)
}

// CompleteJob flips Processing -> Completed and writes the result JSON in
// the same row update.
func (s *Store) CompleteJob(ctx context.Context, id string, attempt int, result *detect.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result for job %s: %w", id, err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET state = $1, result = $2, updated_at = $3
		WHERE id = $4 AND state = $5 AND attempt = $6`,
		string(job.StateCompleted), payload, time.Now().UTC(),
		id, string(job.StateProcessing), attempt)
	if err != nil {
		return fmt.Errorf("completing job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.conflictOrNotFound(ctx, id)
	}
	return nil
}

// FailJob flips Processing -> Failed with the error summary.
func (s *Store) FailJob(ctx context.Context, id string, attempt int, summary string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET state = $1, error = $2, updated_at = $3
		WHERE id = $4 AND state = $5 AND attempt = $6`,
		string(job.StateFailed), summary, time.Now().UTC(),
		id, string(job.StateProcessing), attempt)
	if err != nil {
		return fmt.Errorf("failing job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.conflictOrNotFound(ctx, id)
	}
	return nil
}

// GetResult reads and decodes the stored result.
func (s *Store) GetResult(ctx context.Context, id string) (*detect.Result, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT result FROM jobs WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading result for job %s: %w", id, err)
	}
	if payload == nil {
		return nil, job.ErrNoResult
	}
	var result detect.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding result for job %s: %w", id, err)
	}
	return &result, nil
}

func (s *Store) conflictOrNotFound(ctx context.Context, id string) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM jobs WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return job.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking job %s: %w", id, err)
	}
	return job.ErrConflict
}
