package job

import (
	"context"
	"errors"
	"sync"
	"testing"

	"roomscan/internal/detect"
)

func TestDeriveIDDeterministic(t *testing.T) {
	a := DeriveID("sha256-abc")
	b := DeriveID("sha256-abc")
	if a != b {
		t.Errorf("DeriveID() not deterministic: %s != %s", a, b)
	}
	if DeriveID("sha256-other") == a {
		t.Errorf("different content addresses produced the same job id")
	}
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to State
		ok       bool
	}{
		{StateQueued, StateProcessing, true},
		{StateProcessing, StateCompleted, true},
		{StateProcessing, StateFailed, true},
		{StateQueued, StateCompleted, false},
		{StateQueued, StateFailed, false},
		{StateCompleted, StateProcessing, false},
		{StateFailed, StateProcessing, false},
		{StateCompleted, StateFailed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
	if StateQueued.Terminal() || StateProcessing.Terminal() {
		t.Errorf("Queued and Processing must not be terminal")
	}
	if !StateCompleted.Terminal() || !StateFailed.Terminal() {
		t.Errorf("Completed and Failed must be terminal")
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	j := New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}

	got, err := store.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if got.State != StateQueued || got.Attempt != 0 {
		t.Errorf("fresh job = %s attempt %d, want queued attempt 0", got.State, got.Attempt)
	}

	claimed, err := store.ClaimJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("ClaimJob() error: %v", err)
	}
	if claimed.State != StateProcessing || claimed.Attempt != 1 {
		t.Errorf("claimed job = %s attempt %d, want processing attempt 1", claimed.State, claimed.Attempt)
	}

	result := &detect.Result{JobID: j.ID, Rooms: []detect.Room{}}
	if err := store.CompleteJob(ctx, j.ID, claimed.Attempt, result); err != nil {
		t.Fatalf("CompleteJob() error: %v", err)
	}

	got, err = store.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if got.State != StateCompleted {
		t.Errorf("state = %s, want completed", got.State)
	}

	stored, err := store.GetResult(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetResult() error: %v", err)
	}
	if stored.JobID != j.ID {
		t.Errorf("result JobID = %s, want %s", stored.JobID, j.ID)
	}
}

func TestMemoryStoreDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.CreateJob(ctx, New("sha256-abc")); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	if err := store.CreateJob(ctx, New("sha256-abc")); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second create = %v, want ErrDuplicate", err)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.GetJob(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob(unknown) = %v, want ErrNotFound", err)
	}
	if _, err := store.ClaimJob(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ClaimJob(unknown) = %v, want ErrNotFound", err)
	}
	if _, err := store.GetResult(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetResult(unknown) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreClaimIsSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	j := New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ClaimJob(ctx, j.ID); err == nil {
				wins <- struct{}{}
			} else if !errors.Is(err, ErrConflict) {
				t.Errorf("ClaimJob() = %v, want nil or ErrConflict", err)
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Errorf("%d claims won, want exactly 1", won)
	}
}

func TestMemoryStoreStaleAttemptDiscarded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	j := New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}
	claimed, err := store.ClaimJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("ClaimJob() error: %v", err)
	}

	stale := claimed.Attempt - 1
	if err := store.CompleteJob(ctx, j.ID, stale, &detect.Result{JobID: j.ID}); !errors.Is(err, ErrConflict) {
		t.Errorf("CompleteJob(stale attempt) = %v, want ErrConflict", err)
	}
	if err := store.FailJob(ctx, j.ID, stale, "late failure"); !errors.Is(err, ErrConflict) {
		t.Errorf("FailJob(stale attempt) = %v, want ErrConflict", err)
	}

	// The stale outcome must not have flipped the state.
	got, err := store.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if got.State != StateProcessing {
		t.Errorf("state after stale outcomes = %s, want processing", got.State)
	}
}

func TestMemoryStoreNoResultBeforeCompletion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	j := New("sha256-abc")
	if err := store.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob() error: %v", err)
	}

	if _, err := store.GetResult(ctx, j.ID); !errors.Is(err, ErrNoResult) {
		t.Errorf("GetResult(queued job) = %v, want ErrNoResult", err)
	}

	claimed, _ := store.ClaimJob(ctx, j.ID)
	if err := store.FailJob(ctx, j.ID, claimed.Attempt, "DecodeError: bad bytes"); err != nil {
		t.Fatalf("FailJob() error: %v", err)
	}
	if _, err := store.GetResult(ctx, j.ID); !errors.Is(err, ErrNoResult) {
		t.Errorf("GetResult(failed job) = %v, want ErrNoResult", err)
	}

	got, _ := store.GetJob(ctx, j.ID)
	if got.Error != "DecodeError: bad bytes" {
		t.Errorf("Error = %q, want the failure summary", got.Error)
	}
}
