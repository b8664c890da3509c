package trigger

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"roomscan/internal/detect"
	"roomscan/internal/imaging"
	"roomscan/internal/job"
)

// Queue is a fixed-size worker pool that runs detection jobs. Job ids are
// fed through a buffered channel; each worker claims the job, runs the
// detector under a per-job timeout and commits the outcome through the
// store's guarded transitions.
type Queue struct {
	store    job.Store
	images   *imaging.ImageCache
	detector detect.Detector
	params   detect.Params
	timeout  time.Duration
	log      *slog.Logger

	jobs chan string
	wg   sync.WaitGroup

	closeOnce sync.Once
}

// QueueConfig carries the queue's tunables.
type QueueConfig struct {
	// Workers is the number of concurrent detection goroutines.
	Workers int
	// Depth is the buffered channel capacity.
	Depth int
	// Timeout bounds one detection run. Zero means no limit.
	Timeout time.Duration
	// Params are the detection parameters applied to every job.
	Params detect.Params
}

// NewQueue creates the worker pool and starts its workers.
func NewQueue(store job.Store, images *imaging.ImageCache, detector detect.Detector, cfg QueueConfig, log *slog.Logger) *Queue {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Depth < 1 {
		cfg.Depth = 64
	}
	q := &Queue{
		store:    store,
		images:   images,
		detector: detector,
		params:   cfg.Params.Normalize(),
		timeout:  cfg.Timeout,
		log:      log,
		jobs:     make(chan string, cfg.Depth),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue submits a job id for processing. Blocks when the queue is full,
// which applies backpressure to the notification endpoint.
func (q *Queue) Enqueue(jobID string) {
	q.jobs <- jobID
}

// Shutdown stops accepting jobs and waits for in-flight work to drain.
func (q *Queue) Shutdown() {
	q.closeOnce.Do(func() { close(q.jobs) })
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for jobID := range q.jobs {
		q.process(context.Background(), jobID)
	}
}

// process runs one job end to end. Losing the claim or an outcome
// compare-and-set means another invocation superseded this one; both are
// logged and dropped without touching job state.
func (q *Queue) process(ctx context.Context, jobID string) {
	j, err := q.store.ClaimJob(ctx, jobID)
	if errors.Is(err, job.ErrConflict) {
		q.log.Debug("job already claimed, skipping", "job_id", jobID)
		return
	}
	if err != nil {
		q.log.Error("claiming job failed", "job_id", jobID, "error", err)
		return
	}

	log := q.log.With("job_id", j.ID, "attempt", j.Attempt)
	start := time.Now()

	img, err := q.images.Load(ctx, j.ContentAddress)
	if err != nil {
		summary := fmt.Sprintf("FetchError: %v", err)
		if errors.Is(err, imaging.ErrDecode) {
			summary = fmt.Sprintf("DecodeError: %v", err)
		}
		q.fail(ctx, log, j, summary)
		return
	}

	result, err := q.detect(ctx, j.ID, img)
	if err != nil {
		summary := fmt.Sprintf("DetectError: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			summary = fmt.Sprintf("TimeoutError: detection exceeded %s", q.timeout)
		}
		q.fail(ctx, log, j, summary)
		return
	}

	err = q.store.CompleteJob(ctx, j.ID, j.Attempt, result)
	if errors.Is(err, job.ErrConflict) {
		log.Warn("completion superseded, result discarded")
		return
	}
	if err != nil {
		log.Error("persisting result failed", "error", err)
		return
	}
	log.Info("job completed",
		"rooms", result.RoomCount(),
		"duration_ms", time.Since(start).Milliseconds())
}

// detect runs the detector under the configured timeout. The run happens in
// its own goroutine so a detector stuck inside a pipeline stage cannot hold
// the worker past the deadline; a late result from such a run is abandoned
// here and its goroutine exits on its own.
func (q *Queue) detect(ctx context.Context, jobID string, img image.Image) (*detect.Result, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	type outcome struct {
		rooms []detect.Room
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		rooms, err := q.detector.Detect(ctx, img, q.params)
		done <- outcome{rooms: rooms, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		b := img.Bounds()
		return &detect.Result{
			JobID:       jobID,
			Rooms:       out.rooms,
			ImageWidth:  b.Dx(),
			ImageHeight: b.Dy(),
			Params:      q.params,
		}, nil
	}
}

func (q *Queue) fail(ctx context.Context, log *slog.Logger, j *job.Job, summary string) {
	log.Warn("job failed", "reason", summary)
	err := q.store.FailJob(ctx, j.ID, j.Attempt, summary)
	if errors.Is(err, job.ErrConflict) {
		log.Warn("failure superseded, outcome discarded")
		return
	}
	if err != nil {
		log.Error("persisting failure failed", "error", err)
	}
}
