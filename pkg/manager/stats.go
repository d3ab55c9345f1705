package manager

import (
	"sync"
	"sync/atomic"
)

// Report is the outcome summary of one batch.
type Report struct {
	// BatchID correlates the report with its log lines
	BatchID string

	// Total is the number of tasks submitted in the batch
	Total int

	// Succeeded is the number of tasks that completed without error
	Succeeded int

	// Failed is the number of tasks that raised an error or panicked
	Failed int

	// FailedNames lists the names of failed tasks, in completion order
	FailedNames []string

	// AvgDurationMillis is the whole-millisecond average wall time per
	// task, floor(total duration / total), or 0 if nothing was submitted
	AvgDurationMillis int64
}

// aggregator accumulates completion statistics across a batch. All
// mutation paths are safe under arbitrary interleaving from completion
// callbacks on different goroutines. snapshotReset is how a report is
// produced; it zeroes the aggregator so the manager can serve the next
// batch.
type aggregator struct {
	total          int64 // atomic
	succeeded      int64 // atomic
	durationMillis int64 // atomic accumulator

	mu          sync.Mutex
	failedNames []string
}

// addSubmitted counts a submission.
func (a *aggregator) addSubmitted() {
	atomic.AddInt64(&a.total, 1)
}

// addDuration accumulates a completed task's wall time, success or not.
func (a *aggregator) addDuration(millis int64) {
	atomic.AddInt64(&a.durationMillis, millis)
}

// addSuccess counts a successful completion.
func (a *aggregator) addSuccess() {
	atomic.AddInt64(&a.succeeded, 1)
}

// addFailure appends the failed task's name.
func (a *aggregator) addFailure(name string) {
	a.mu.Lock()
	a.failedNames = append(a.failedNames, name)
	a.mu.Unlock()
}

// snapshotReset produces a report from the accumulated counters and
// zeroes them.
func (a *aggregator) snapshotReset() Report {
	total := atomic.SwapInt64(&a.total, 0)
	succeeded := atomic.SwapInt64(&a.succeeded, 0)
	duration := atomic.SwapInt64(&a.durationMillis, 0)

	a.mu.Lock()
	failed := a.failedNames
	a.failedNames = nil
	a.mu.Unlock()

	var avg int64
	if total > 0 {
		avg = duration / total
	}

	return Report{
		Total:             int(total),
		Succeeded:         int(succeeded),
		Failed:            len(failed),
		FailedNames:       failed,
		AvgDurationMillis: avg,
	}
}
