package manager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoss/adaptivepool/pkg/pool"
)

func startedManager(t *testing.T, cfg *pool.Config) *Manager {
	t.Helper()
	if cfg == nil {
		cfg = &pool.Config{
			MinWorkers:    2,
			MaxWorkers:    4,
			QueueCapacity: 8,
			KeepAlive:     time.Second,
			ScaleInterval: 50 * time.Millisecond,
		}
	}
	p, err := pool.NewAdaptive(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	m, err := New(p, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown() })
	return m
}

func TestNewRequiresPool(t *testing.T) {
	m, err := New(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestAddNamedTaskValidation(t *testing.T) {
	m := startedManager(t, nil)

	noop := func() error { return nil }

	_, err := m.AddNamedTask("", noop, 0)
	assert.Error(t, err)

	_, err = m.AddNamedTask("no-work", nil, 0)
	assert.Error(t, err)

	_, err = m.AddNamedTask("negative-delay", noop, -time.Second)
	assert.Error(t, err)

	// nothing was admitted
	report := m.JoinAll()
	assert.Equal(t, 0, report.Total)
}

func TestJoinAllWaitsForBatch(t *testing.T) {
	// small pool (2,4,2,5s) under a burst of 10 tasks of 200ms each
	m := startedManager(t, &pool.Config{
		MinWorkers:    2,
		MaxWorkers:    4,
		QueueCapacity: 2,
		KeepAlive:     5 * time.Second,
		ScaleInterval: 50 * time.Millisecond,
	})

	for i := 0; i < 10; i++ {
		_, err := m.AddNamedTask(fmt.Sprintf("job-%d", i), func() error {
			time.Sleep(200 * time.Millisecond)
			return nil
		}, 0)
		require.NoError(t, err)
	}

	report := m.JoinAll()
	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 10, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.GreaterOrEqual(t, report.AvgDurationMillis, int64(200))
	assert.NotEmpty(t, report.BatchID)
}

func TestFailuresAreDataNotErrors(t *testing.T) {
	m := startedManager(t, nil)

	_, err := m.AddNamedTask("ok", func() error { return nil }, 0)
	require.NoError(t, err)
	_, err = m.AddNamedTask("erroring", func() error {
		return errors.New("boom")
	}, 0)
	require.NoError(t, err)
	_, err = m.AddNamedTask("panicking", func() error {
		panic("kaboom")
	}, 0)
	require.NoError(t, err)

	report := m.JoinAll()
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, report.Total, report.Succeeded+report.Failed)
	assert.ElementsMatch(t, []string{"erroring", "panicking"}, report.FailedNames)

	// the manager stays usable for a subsequent batch
	_, err = m.AddNamedTask("second-batch", func() error { return nil }, 0)
	require.NoError(t, err)
	report = m.JoinAll()
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
}

func TestJoinAllOnIdleManagerIsZero(t *testing.T) {
	m := startedManager(t, nil)

	_, err := m.AddNamedTask("warmup", func() error { return nil }, 0)
	require.NoError(t, err)
	m.JoinAll()

	report := m.JoinAll()
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.FailedNames)
	assert.Equal(t, int64(0), report.AvgDurationMillis)
}

func TestHandleOutcomes(t *testing.T) {
	m := startedManager(t, nil)

	ok, err := m.AddNamedTask("ok", func() error { return nil }, 0)
	require.NoError(t, err)
	bad, err := m.AddNamedTask("bad", func() error { return errors.New("no") }, 0)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, ok.Wait())
	assert.Equal(t, OutcomeFailed, bad.Wait())
	assert.Equal(t, "ok", ok.Record().Name())
	assert.GreaterOrEqual(t, ok.Record().DurationMillis(), int64(0))

	m.JoinAll()
}

func TestDelayDoesNotOccupyWorker(t *testing.T) {
	// single worker: if the delay held the worker, the quick task could
	// not run until the delay elapsed
	m := startedManager(t, &pool.Config{
		MinWorkers:    1,
		MaxWorkers:    1,
		QueueCapacity: 4,
		KeepAlive:     time.Second,
		ScaleInterval: time.Second,
	})

	delayed, err := m.AddNamedTask("delayed", func() error { return nil }, 300*time.Millisecond)
	require.NoError(t, err)

	// let the delayed body finish and park on its timer
	time.Sleep(50 * time.Millisecond)

	quick, err := m.AddNamedTask("quick", func() error { return nil }, 0)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, quick.Wait())
	assert.Equal(t, OutcomePending, delayed.Record().Outcome())

	report := m.JoinAll()
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.GreaterOrEqual(t, delayed.Record().DurationMillis(), int64(300))
}

func TestDelayCountsTowardDuration(t *testing.T) {
	m := startedManager(t, nil)

	h, err := m.AddNamedTask("instant-with-delay", func() error { return nil },
		200*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, h.Wait())
	assert.GreaterOrEqual(t, h.Record().DurationMillis(), int64(200))
	assert.Equal(t, 200*time.Millisecond, h.Record().Delay())

	report := m.JoinAll()
	assert.GreaterOrEqual(t, report.AvgDurationMillis, int64(200))
}

func TestSubmissionAfterJoinLandsInNextBatch(t *testing.T) {
	m := startedManager(t, nil)

	_, err := m.AddNamedTask("first", func() error { return nil }, 0)
	require.NoError(t, err)
	report := m.JoinAll()
	assert.Equal(t, 1, report.Total)

	_, err = m.AddNamedTask("second", func() error { return nil }, 0)
	require.NoError(t, err)
	report = m.JoinAll()
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Succeeded)
}

func TestAddNamedTaskAfterShutdown(t *testing.T) {
	m := startedManager(t, nil)
	require.NoError(t, m.Shutdown())

	_, err := m.AddNamedTask("late", func() error { return nil }, 0)
	assert.Error(t, err)

	// the rejected submission is reported as a failure, keeping
	// succeeded+failed == total
	report := m.JoinAll()
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}
