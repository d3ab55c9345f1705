// Package types defines error types shared across the module.
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidConfig indicates a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPoolNotStarted indicates the pool has not been started yet
	ErrPoolNotStarted = errors.New("pool is not started")

	// ErrPoolClosed indicates the pool has been shut down
	ErrPoolClosed = errors.New("pool is closed")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("task cannot be nil")

	// ErrShutdownTimeout indicates the pool did not drain before the
	// shutdown deadline and remaining work was forcibly cancelled
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// TaskError wraps a failure raised while executing a single task. Task
// failures are always captured per task; they never escape to crash a
// worker or the pool.
type TaskError struct {
	// TaskID identifies the task that failed
	TaskID string

	// Cause is the underlying error or recovered panic
	Cause error

	// Stack holds the stack trace when the failure was a panic
	Stack string
}

// Error implements the error interface
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.TaskID, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewTaskError creates a new TaskError
func NewTaskError(taskID string, cause error) *TaskError {
	return &TaskError{TaskID: taskID, Cause: cause}
}
