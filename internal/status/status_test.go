package status

import (
	"context"
	"errors"
	"testing"

	"roomscan/internal/detect"
	"roomscan/internal/job"
)

func TestGetUnknownJob(t *testing.T) {
	svc := NewService(job.NewMemoryStore())
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, job.ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestGetQueuedJobHasNoRoomCount(t *testing.T) {
	ctx := context.Background()
	store := job.NewMemoryStore()
	j := job.New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}

	st, err := NewService(store).Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if st.State != job.StateQueued {
		t.Errorf("State = %s, want queued", st.State)
	}
	if st.RoomCount != nil {
		t.Errorf("RoomCount = %v, want nil before completion", *st.RoomCount)
	}
}

func TestGetCompletedJobReportsRoomCount(t *testing.T) {
	ctx := context.Background()
	store := job.NewMemoryStore()
	j := job.New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	claimed, _ := store.ClaimJob(ctx, j.ID)
	result := &detect.Result{JobID: j.ID, Rooms: make([]detect.Room, 3)}
	if err := store.CompleteJob(ctx, j.ID, claimed.Attempt, result); err != nil {
		t.Fatalf("CompleteJob() error: %v", err)
	}

	st, err := NewService(store).Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if st.State != job.StateCompleted {
		t.Errorf("State = %s, want completed", st.State)
	}
	if st.RoomCount == nil || *st.RoomCount != 3 {
		t.Errorf("RoomCount = %v, want 3", st.RoomCount)
	}
}

func TestGetCompletedEmptyResult(t *testing.T) {
	ctx := context.Background()
	store := job.NewMemoryStore()
	j := job.New("sha256-blank")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	claimed, _ := store.ClaimJob(ctx, j.ID)
	if err := store.CompleteJob(ctx, j.ID, claimed.Attempt, &detect.Result{JobID: j.ID}); err != nil {
		t.Fatalf("CompleteJob() error: %v", err)
	}

	st, err := NewService(store).Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	// Zero rooms is a successful outcome, not a failure.
	if st.State != job.StateCompleted {
		t.Errorf("State = %s, want completed", st.State)
	}
	if st.RoomCount == nil || *st.RoomCount != 0 {
		t.Errorf("RoomCount = %v, want 0", st.RoomCount)
	}
	if st.Error != "" {
		t.Errorf("Error = %q, want empty", st.Error)
	}
}

func TestResultRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	store := job.NewMemoryStore()
	j := job.New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	svc := NewService(store)

	if _, err := svc.Result(ctx, j.ID); !errors.Is(err, job.ErrNoResult) {
		t.Errorf("Result(queued job) = %v, want ErrNoResult", err)
	}

	claimed, _ := store.ClaimJob(ctx, j.ID)
	if _, err := svc.Result(ctx, j.ID); !errors.Is(err, job.ErrNoResult) {
		t.Errorf("Result(processing job) = %v, want ErrNoResult", err)
	}

	if err := store.CompleteJob(ctx, j.ID, claimed.Attempt, &detect.Result{JobID: j.ID}); err != nil {
		t.Fatalf("CompleteJob() error: %v", err)
	}
	result, err := svc.Result(ctx, j.ID)
	if err != nil {
		t.Fatalf("Result(completed job) error: %v", err)
	}
	if result.JobID != j.ID {
		t.Errorf("result JobID = %s, want %s", result.JobID, j.ID)
	}
}
