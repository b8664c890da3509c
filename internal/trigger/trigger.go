// Package trigger turns upload notifications into detection jobs and runs
// the workers that process them.
//
// Notification delivery is at-least-once, so the same upload may arrive any
// number of times. Deduplication rests on two facts: the job id is a pure
// function of the content address, and job creation is an atomic
// first-writer-wins insert. Every delivery after the first is a silent
// no-op.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roomscan/internal/job"
)

// Notification is an upload event for one blueprint image.
type Notification struct {
	// ContentAddress identifies the uploaded image in blob storage.
	ContentAddress string `json:"content_address"`
}

// Trigger validates notifications, registers jobs and hands them to the
// processing queue.
type Trigger struct {
	store      job.Store
	queue      *Queue
	log        *slog.Logger
	maxRetries int
	backoff    time.Duration
}

// New creates a trigger that writes jobs to store and enqueues them on queue.
func New(store job.Store, queue *Queue, log *slog.Logger) *Trigger {
	return &Trigger{
		store:      store,
		queue:      queue,
		log:        log,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
	}
}

// Handle processes one upload notification. It returns the job id and
// whether this delivery actually created the job; a redelivery of an
// already-registered upload returns accepted=false with no side effects.
//
// Store faults during creation are retried with linear backoff before
// giving up, so a brief store outage does not drop an upload.
func (t *Trigger) Handle(ctx context.Context, n Notification) (jobID string, accepted bool, err error) {
	if n.ContentAddress == "" {
		return "", false, errors.New("notification missing content address")
	}

	j := job.New(n.ContentAddress)
	for attempt := 0; ; attempt++ {
		err = t.store.CreateJob(ctx, j)
		if err == nil {
			break
		}
		if errors.Is(err, job.ErrDuplicate) {
			t.log.Debug("duplicate notification ignored",
				"job_id", j.ID, "content_address", n.ContentAddress)
			return j.ID, false, nil
		}
		if attempt >= t.maxRetries {
			return "", false, fmt.Errorf("creating job %s: %w", j.ID, err)
		}
		t.log.Warn("job create failed, retrying",
			"job_id", j.ID, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(t.backoff * time.Duration(attempt+1)):
		}
	}

	t.log.Info("job queued", "job_id", j.ID, "content_address", n.ContentAddress)
	t.queue.Enqueue(j.ID)
	return j.ID, true, nil
}
