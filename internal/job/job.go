// Package job defines the detection job lifecycle and its durable store.
//
// A job tracks exactly one detection invocation for one uploaded image. Its
// state advances monotonically through a small finite-state machine:
//
//	Queued -> Processing -> Completed
//	                     \-> Failed
//
// Completed and Failed are terminal for the attempt; reprocessing an image
// requires an operator-created new job. Every transition is guarded by a
// compare-and-set in the store, which is what guarantees at most one active
// Processing episode per job id even under concurrent duplicate triggers.
package job

import (
	"time"

	"github.com/google/uuid"
)

// State is a job lifecycle state.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. Transitions never regress and never skip Processing.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StateQueued:
		return next == StateProcessing
	case StateProcessing:
		return next == StateCompleted || next == StateFailed
	default:
		return false
	}
}

// Job is the lifecycle record for one detection invocation. It is owned
// exclusively by the store; all mutation goes through the store's
// compare-and-set transition methods.
type Job struct {
	// ID is the opaque job identifier, derived deterministically from the
	// image's content address.
	ID string `json:"id"`

	// ContentAddress references the uploaded image this job processes.
	ContentAddress string `json:"content_address"`

	// State is the current lifecycle state.
	State State `json:"state"`

	// Attempt counts Processing episodes. Incremented by the claim
	// transition; completion and failure are guarded by it so a result from
	// a superseded attempt is discarded instead of overwriting.
	Attempt int `json:"attempt"`

	// Error holds the failure summary. Set only when State is Failed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// namespace for deterministic job ids; v5 UUIDs under this namespace are a
// pure function of the content address.
var idNamespace = uuid.MustParse("8a6e1f40-52b1-4c6e-9e1d-3f24a7c90b11")

// DeriveID computes the job id for an image content address. Identical
// addresses always map to the same id, which is what makes at-least-once
// notification delivery deduplicable.
func DeriveID(contentAddress string) string {
	return uuid.NewSHA1(idNamespace, []byte(contentAddress)).String()
}

// New creates a Queued job for a content address.
func New(contentAddress string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:             DeriveID(contentAddress),
		ContentAddress: contentAddress,
		State:          StateQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
