package job

import (
	"context"
	"errors"

	"roomscan/internal/detect"
)

// Store sentinel errors. Anything else returned by a Store implementation is
// treated as a transient store fault and retried by the caller.
var (
	// ErrNotFound marks lookups for unknown job ids. Always distinct from a
	// Queued job: pollers must be able to tell "never heard of it" from
	// "not started yet".
	ErrNotFound = errors.New("job not found")

	// ErrDuplicate marks a create for an id that already exists. Expected
	// under at-least-once notification delivery; never an error condition
	// for the caller.
	ErrDuplicate = errors.New("job already exists")

	// ErrConflict marks a compare-and-set transition that lost its race:
	// the job was not in the expected state, or the attempt id no longer
	// matches. The caller's invocation has been superseded and its outcome
	// must be discarded.
	ErrConflict = errors.New("job state conflict")

	// ErrNoResult marks result lookups for jobs without a stored detection
	// result (not yet Completed, or Failed).
	ErrNoResult = errors.New("no result for job")
)

// Store is the durable job state store, the single shared resource of the
// system. Implementations must make every transition an atomic
// compare-and-set: two concurrent calls for the same job id must never both
// succeed.
type Store interface {
	// CreateJob inserts a new Queued job. Returns ErrDuplicate if a job
	// with the same id already exists; the decision is atomic, so
	// concurrent duplicate creates produce exactly one winner.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob returns the current job record, reflecting the latest
	// committed transition. Returns ErrNotFound for unknown ids.
	GetJob(ctx context.Context, id string) (*Job, error)

	// ClaimJob transitions Queued -> Processing and increments the attempt
	// counter, atomically. Returns the claimed job. Returns ErrConflict if
	// the job is not Queued (another invocation already claimed it) and
	// ErrNotFound for unknown ids.
	ClaimJob(ctx context.Context, id string) (*Job, error)

	// CompleteJob transitions Processing -> Completed and persists the
	// detection result in the same atomic step: no reader may ever observe
	// a Completed job without its result. The transition is guarded by the
	// attempt id; a stale attempt gets ErrConflict and its result is
	// discarded.
	CompleteJob(ctx context.Context, id string, attempt int, result *detect.Result) error

	// FailJob transitions Processing -> Failed with an error summary,
	// guarded by the attempt id like CompleteJob.
	FailJob(ctx context.Context, id string, attempt int, summary string) error

	// GetResult returns the stored detection result for a Completed job.
	// Returns ErrNoResult when the job exists but has no result and
	// ErrNotFound for unknown ids.
	GetResult(ctx context.Context, id string) (*detect.Result, error)
}
