// Package types defines core interfaces shared by the pool and manager.
package types

import (
	"context"
	"time"
)

// Task defines a unit of work executed by the pool.
type Task interface {
	// Execute executes the task
	Execute(ctx context.Context) error

	// ID returns the task ID (for tracking and logging)
	ID() string
}

// PoolStats is the counter view the autoscaler reads every tick. It is
// consistent-enough rather than an atomic snapshot: each field is read
// independently.
type PoolStats struct {
	// CoreSize is the current target number of always-available workers
	CoreSize int

	// MinWorkers and MaxWorkers bound CoreSize
	MinWorkers int
	MaxWorkers int

	// WorkerCount is the number of live worker goroutines
	WorkerCount int

	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueueSize is the current number of queued tasks
	QueueSize int

	// QueueCapacity is the capacity of the queue
	QueueCapacity int
}

// ErrorHandler is invoked with failures raised by raw pool tasks. The
// returned error is currently ignored; the signature mirrors middleware
// style handlers so implementations can chain.
type ErrorHandler func(error) error

// Metrics receives observability events from the pool and manager.
// Implementations must be safe for concurrent use. A nil Metrics
// disables collection.
type Metrics interface {
	// RecordCoreSize records the core size after a resize decision
	RecordCoreSize(n int)

	// RecordQueueDepth records the queue depth observed at submission
	RecordQueueDepth(depth int)

	// RecordCallerRun records a saturated submit falling back to the
	// calling goroutine
	RecordCallerRun()

	// RecordTaskDuration records a completed task's wall time
	RecordTaskDuration(d time.Duration)

	// RecordTaskFailure records a failed task
	RecordTaskFailure()
}
