package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"roomscan/internal/detect"
	"roomscan/internal/job"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	j := job.New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	if err := store.CreateJob(ctx, job.New("sha256-abc")); !errors.Is(err, job.ErrDuplicate) {
		t.Fatalf("duplicate create = %v, want ErrDuplicate", err)
	}

	got, err := store.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if got.State != job.StateQueued || got.ContentAddress != "sha256-abc" {
		t.Errorf("stored job = %+v, want queued sha256-abc", got)
	}

	claimed, err := store.ClaimJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("ClaimJob() error: %v", err)
	}
	if claimed.State != job.StateProcessing || claimed.Attempt != 1 {
		t.Errorf("claimed = %s attempt %d, want processing attempt 1", claimed.State, claimed.Attempt)
	}

	// A second claim must lose.
	if _, err := store.ClaimJob(ctx, j.ID); !errors.Is(err, job.ErrConflict) {
		t.Errorf("second claim = %v, want ErrConflict", err)
	}

	result := &detect.Result{JobID: j.ID, ImageWidth: 400, ImageHeight: 300}
	if err := store.CompleteJob(ctx, j.ID, claimed.Attempt, result); err != nil {
		t.Fatalf("CompleteJob() error: %v", err)
	}

	stored, err := store.GetResult(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetResult() error: %v", err)
	}
	if stored.ImageWidth != 400 || stored.ImageHeight != 300 {
		t.Errorf("round-tripped result = %+v", stored)
	}

	final, _ := store.GetJob(ctx, j.ID)
	if final.State != job.StateCompleted {
		t.Errorf("state = %s, want completed", final.State)
	}
}

func TestSQLiteStaleAttemptConflicts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	j := job.New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	claimed, err := store.ClaimJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("ClaimJob() error: %v", err)
	}

	stale := claimed.Attempt + 1
	if err := store.CompleteJob(ctx, j.ID, stale, &detect.Result{}); !errors.Is(err, job.ErrConflict) {
		t.Errorf("CompleteJob(wrong attempt) = %v, want ErrConflict", err)
	}
	if err := store.FailJob(ctx, j.ID, stale, "late"); !errors.Is(err, job.ErrConflict) {
		t.Errorf("FailJob(wrong attempt) = %v, want ErrConflict", err)
	}

	got, _ := store.GetJob(ctx, j.ID)
	if got.State != job.StateProcessing {
		t.Errorf("state = %s, want processing untouched", got.State)
	}
}

func TestSQLiteFailedJobKeepsSummary(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	j := job.New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	claimed, _ := store.ClaimJob(ctx, j.ID)
	if err := store.FailJob(ctx, j.ID, claimed.Attempt, "DecodeError: not an image"); err != nil {
		t.Fatalf("FailJob() error: %v", err)
	}

	got, _ := store.GetJob(ctx, j.ID)
	if got.State != job.StateFailed || got.Error != "DecodeError: not an image" {
		t.Errorf("failed job = %+v", got)
	}
	if _, err := store.GetResult(ctx, j.ID); !errors.Is(err, job.ErrNoResult) {
		t.Errorf("GetResult(failed job) = %v, want ErrNoResult", err)
	}
}

func TestSQLiteUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.GetJob(ctx, "nope"); !errors.Is(err, job.ErrNotFound) {
		t.Errorf("GetJob(unknown) = %v, want ErrNotFound", err)
	}
	if _, err := store.ClaimJob(ctx, "nope"); !errors.Is(err, job.ErrNotFound) {
		t.Errorf("ClaimJob(unknown) = %v, want ErrNotFound", err)
	}
	if err := store.CompleteJob(ctx, "nope", 1, &detect.Result{}); !errors.Is(err, job.ErrNotFound) {
		t.Errorf("CompleteJob(unknown) = %v, want ErrNotFound", err)
	}
	if _, err := store.GetResult(ctx, "nope"); !errors.Is(err, job.ErrNotFound) {
		t.Errorf("GetResult(unknown) = %v, want ErrNotFound", err)
	}
}
