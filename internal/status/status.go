// Package status answers job status queries from the read side of the
// store. It never mutates job state.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomscan/internal/detect"
	"roomscan/internal/job"
)

// Status is the externally visible view of one job.
type Status struct {
	JobID     string    `json:"job_id"`
	State     job.State `json:"state"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
	RoomCount *int      `json:"room_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service serves status queries over a job store.
type Service struct {
	store job.Store
}

// NewService creates a status service over the given store.
func NewService(store job.Store) *Service {
	return &Service{store: store}
}

// Get returns the status of one job. For Completed jobs the room count is
// populated from the stored result; a zero count is a legitimate outcome,
// not an error. Unknown ids return job.ErrNotFound, which callers must keep
// distinct from a job that exists but has not started.
func (s *Service) Get(ctx context.Context, jobID string) (*Status, error) {
	j, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		JobID:     j.ID,
		State:     j.State,
		Attempt:   j.Attempt,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}

	if j.State == job.StateCompleted {
		result, err := s.store.GetResult(ctx, jobID)
		if err != nil && !errors.Is(err, job.ErrNoResult) {
			return nil, fmt.Errorf("reading result for status of %s: %w", jobID, err)
		}
		if result != nil {
			n := result.RoomCount()
			st.RoomCount = &n
		}
	}
	return st, nil
}

// Job returns the raw job record.
func (s *Service) Job(ctx context.Context, jobID string) (*job.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// Result returns the detection result of a Completed job. Jobs in any other
// state return job.ErrNoResult.
func (s *Service) Result(ctx context.Context, jobID string) (*detect.Result, error) {
	j, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.State != job.StateCompleted {
		return nil, job.ErrNoResult
	}
	return s.store.GetResult(ctx, jobID)
}
