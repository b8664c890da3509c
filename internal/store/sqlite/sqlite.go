// Package sqlite provides the default durable job store, backed by an
// embedded SQLite database (pure Go driver, no cgo).
//
// Every state transition is a conditional UPDATE whose WHERE clause encodes
// the compare-and-set precondition (expected state, expected attempt);
// SQLite's single-writer semantics make the check-and-update atomic, so two
// racing transitions for the same job id can never both report success.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

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
	result          BLOB,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
`

// Store is a job.Store backed by SQLite. The detection result lives in the
// same row as the job state, so the Completed flip and the result write are
// one atomic UPDATE.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent transitions.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateJob inserts the job; the unique primary key arbitrates concurrent
// duplicate creates.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, content_address, state, attempt, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		j.ID, j.ContentAddress, string(j.State), j.Attempt, j.Error, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", j.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", j.ID, err)
	}
	if n == 0 {
		return job.ErrDuplicate
	}
	return nil
}

// GetJob reads the current job row.
func (s *Store) GetJob(ctx context.Context, id string) (*job.Job, error) {
	return s.scanJob(s.db.QueryRowContext(ctx, `
		SELECT id, content_address, state, attempt, error, created_at, updated_at
		FROM jobs WHERE id = ?`, id))
}

// ClaimJob performs the Queued -> Processing compare-and-set.
func (s *Store) ClaimJob(ctx context.Context, id string) (*job.Job, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, attempt = attempt + 1, updated_at = ?
		WHERE id = ? AND state = ?`,
		string(job.StateProcessing), time.Now().UTC(), id, string(job.StateQueued))
	if err != nil {
		return nil, fmt.Errorf("claiming job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claiming job %s: %w", id, err)
	}
	if n == 0 {
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
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, result = ?, updated_at = ?
		WHERE id = ? AND state = ? AND attempt = ?`,
		string(job.StateCompleted), payload, time.Now().UTC(),
		id, string(job.StateProcessing), attempt)
	if err != nil {
		return fmt.Errorf("completing job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing job %s: %w", id, err)
	}
	if n == 0 {
		return s.conflictOrNotFound(ctx, id)
	}
	return nil
}

// FailJob flips Processing -> Failed with the error summary.
func (s *Store) FailJob(ctx context.Context, id string, attempt int, summary string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, error = ?, updated_at = ?
		WHERE id = ? AND state = ? AND attempt = ?`,
		string(job.StateFailed), summary, time.Now().UTC(),
		id, string(job.StateProcessing), attempt)
	if err != nil {
		return fmt.Errorf("failing job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failing job %s: %w", id, err)
	}
	if n == 0 {
		return s.conflictOrNotFound(ctx, id)
	}
	return nil
}

// GetResult reads and decodes the stored result.
func (s *Store) GetResult(ctx context.Context, id string) (*detect.Result, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT result FROM jobs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
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

// conflictOrNotFound distinguishes a lost compare-and-set race from an
// unknown job id after a zero-row UPDATE.
func (s *Store) conflictOrNotFound(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return job.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking job %s: %w", id, err)
	}
	return job.ErrConflict
}

func (s *Store) scanJob(row *sql.Row) (*job.Job, error) {
	var j job.Job
	var state string
	err := row.Scan(&j.ID, &j.ContentAddress, &state, &j.Attempt, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job row: %w", err)
	}
	j.State = job.State(state)
	return &j, nil
}
