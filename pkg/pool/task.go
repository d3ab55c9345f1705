package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nvoss/adaptivepool/pkg/types"
)

// taskIDCounter is the global task ID counter
var taskIDCounter int64

// FuncTask adapts a plain function to the Task interface.
type FuncTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewFuncTask creates a task with a generated ID.
func NewFuncTask(fn func(ctx context.Context) error) *FuncTask {
	id := atomic.AddInt64(&taskIDCounter, 1)
	return &FuncTask{
		id: fmt.Sprintf("task-%d", id),
		fn: fn,
	}
}

// NewFuncTaskWithID creates a task with a caller-supplied ID. IDs are
// not required to be unique.
func NewFuncTaskWithID(id string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: id, fn: fn}
}

// Execute executes the task
func (t *FuncTask) Execute(ctx context.Context) error {
	if t.fn == nil {
		return types.NewTaskError(t.id, fmt.Errorf("no execution function"))
	}
	return t.fn(ctx)
}

// ID returns the task ID
func (t *FuncTask) ID() string {
	return t.id
}
