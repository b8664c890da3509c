package job

import (
	"context"
	"sync"
	"time"

	"roomscan/internal/detect"
)

// MemoryStore is an in-process Store implementation. Used by tests and by
// single-node deployments that do not need durability across restarts.
// All methods take the store mutex, which makes every transition trivially
// atomic.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	results map[string]*detect.Result
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*Job),
		results: make(map[string]*detect.Result),
	}
}

// CreateJob inserts a new job; the existence check and insert happen under
// one lock acquisition, so exactly one of any set of concurrent duplicate
// creates wins.
func (s *MemoryStore) CreateJob(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; ok {
		return ErrDuplicate
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

// GetJob returns a copy of the current job record.
func (s *MemoryStore) GetJob(_ context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

// ClaimJob performs the Queued -> Processing compare-and-set.
func (s *MemoryStore) ClaimJob(_ context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if j.State != StateQueued {
		return nil, ErrConflict
	}
	j.State = StateProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
	cp := *j
	return &cp, nil
}

// CompleteJob flips Processing -> Completed and stores the result in the
// same critical section.
func (s *MemoryStore) CompleteJob(_ context.Context, id string, attempt int, result *detect.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.State != StateProcessing || j.Attempt != attempt {
		return ErrConflict
	}
	j.State = StateCompleted
	j.UpdatedAt = time.Now().UTC()
	s.results[id] = result
	return nil
}

// FailJob flips Processing -> Failed with the error summary.
func (s *MemoryStore) FailJob(_ context.Context, id string, attempt int, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.State != StateProcessing || j.Attempt != attempt {
		return ErrConflict
	}
	j.State = StateFailed
	j.Error = summary
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// GetResult returns the stored result for a Completed job.
func (s *MemoryStore) GetResult(_ context.Context, id string) (*detect.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return nil, ErrNotFound
	}
	res, ok := s.results[id]
	if !ok {
		return nil, ErrNoResult
	}
	return res, nil
}
