package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskError(t *testing.T) {
	cause := errors.New("underlying failure")
	err := NewTaskError("import-users", cause)

	assert.Equal(t, "task import-users: underlying failure", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestTaskErrorWrapsSentinels(t *testing.T) {
	err := NewTaskError("drain", ErrShutdownTimeout)
	assert.True(t, errors.Is(err, ErrShutdownTimeout))

	wrapped := fmt.Errorf("batch failed: %w", err)
	var te *TaskError
	assert.True(t, errors.As(wrapped, &te))
	assert.Equal(t, "drain", te.TaskID)
}
