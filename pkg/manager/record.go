package manager

import (
	"sync/atomic"
	"time"
)

// Outcome is the terminal state of a tracked task.
type Outcome int32

const (
	// OutcomePending means the task has not reached a terminal state
	OutcomePending Outcome = iota
	// OutcomeSuccess means the task body and its delay completed
	OutcomeSuccess
	// OutcomeFailed means the task body raised an error or panicked
	OutcomeFailed
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Record tracks a single named submission. It is created on submission
// and flipped to a terminal outcome exactly once by the completion path.
type Record struct {
	name       string
	submitTime time.Time
	delay      time.Duration

	outcome        int32 // atomic Outcome
	durationMillis int64 // atomic, valid once terminal
}

// Name returns the caller-supplied task name. Names are not required to
// be unique.
func (r *Record) Name() string {
	return r.name
}

// SubmitTime returns when the task was submitted.
func (r *Record) SubmitTime() time.Time {
	return r.submitTime
}

// Delay returns the post-execution delay requested for the task.
func (r *Record) Delay() time.Duration {
	return r.delay
}

// Outcome returns the current outcome.
func (r *Record) Outcome() Outcome {
	return Outcome(atomic.LoadInt32(&r.outcome))
}

// DurationMillis returns the wall time from submission to final
// completion, including the delay. Zero until the record is terminal.
func (r *Record) DurationMillis() int64 {
	return atomic.LoadInt64(&r.durationMillis)
}

// finish flips the record from pending to the given terminal outcome.
// Returns false if the record was already terminal.
func (r *Record) finish(o Outcome, durationMillis int64) bool {
	if !atomic.CompareAndSwapInt32(&r.outcome, int32(OutcomePending), int32(o)) {
		return false
	}
	atomic.StoreInt64(&r.durationMillis, durationMillis)
	return true
}

// Handle is the pending-completion future for a tracked task. Done is
// closed when the record reaches a terminal state.
type Handle struct {
	record *Record
	done   chan struct{}
}

// Record returns the task record tracked by this handle.
func (h *Handle) Record() *Record {
	return h.record
}

// Done returns a channel closed when the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task reaches a terminal state and returns it.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.record.Outcome()
}
