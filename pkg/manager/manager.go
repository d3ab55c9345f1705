// Package manager provides the task submission and tracking layer over
// the adaptive pool: named tasks, per-task outcome records, batch
// barriers and reproducible reports.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvoss/adaptivepool/pkg/pool"
	"github.com/nvoss/adaptivepool/pkg/types"
)

// Config contains optional configuration for the manager.
type Config struct {
	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger for structured logging (optional, defaults to slog.Default)
	Logger *slog.Logger

	// Metrics receives completion events (optional)
	Metrics types.Metrics

	// ShutdownTimeout bounds Shutdown's drain wait (default 10s)
	ShutdownTimeout time.Duration
}

// Manager wraps pool submission with naming, statistics, an optional
// post-work delay and batch completion semantics. A manager is reusable
// across successive batches: JoinAll resets the statistics after
// producing a report.
type Manager struct {
	pool    *pool.AdaptivePool
	clock   types.Clock
	log     *slog.Logger
	metrics types.Metrics

	shutdownTimeout time.Duration

	// pending is the futures registry for the current batch, guarded by
	// mu; JoinAll snapshots and clears it atomically so a concurrent
	// submission lands in the next batch, never in one already awaited
	mu      sync.Mutex
	pending []*Handle

	stats aggregator
}

// New creates a manager over the given adaptive pool.
func New(p *pool.AdaptivePool, cfg *Config) (*Manager, error) {
	if p == nil {
		return nil, fmt.Errorf("manager requires a pool")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.NewRealClock()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Manager{
		pool:            p,
		clock:           clock,
		log:             log,
		metrics:         cfg.Metrics,
		shutdownTimeout: timeout,
	}, nil
}

// AddNamedTask submits a named unit of work with an optional
// post-execution delay. The delay is awaited on a timer goroutine, not
// on a pool worker. The returned handle completes when the task reaches
// a terminal state; callers that only care about the batch barrier can
// ignore it and use JoinAll.
func (m *Manager) AddNamedTask(name string, work func() error, delay time.Duration) (*Handle, error) {
	if name == "" {
		return nil, fmt.Errorf("task name cannot be empty")
	}
	if work == nil {
		return nil, fmt.Errorf("task work cannot be nil")
	}
	if delay < 0 {
		return nil, fmt.Errorf("delay must be >= 0, got %s", delay)
	}

	h := &Handle{
		record: &Record{
			name:       name,
			submitTime: m.clock.Now(),
			delay:      delay,
		},
		done: make(chan struct{}),
	}

	m.stats.addSubmitted()
	m.mu.Lock()
	m.pending = append(m.pending, h)
	m.mu.Unlock()
	m.log.Info("task submitted", "task", name, "delay", delay)

	task := pool.NewFuncTaskWithID(name, func(ctx context.Context) error {
		m.log.Info("task started", "task", name)
		if err := runBody(name, work); err != nil {
			m.finalize(h, err)
			return nil
		}
		if delay <= 0 {
			m.finalize(h, nil)
			return nil
		}
		// park the continuation on a timer, off the worker
		timer := m.clock.NewTimer(delay)
		go func() {
			defer timer.Stop()
			select {
			case <-timer.C():
				m.log.Debug("post-task delay elapsed", "task", name, "delay", delay)
			case <-ctx.Done():
			}
			m.finalize(h, nil)
		}()
		return nil
	})

	if err := m.pool.Submit(task); err != nil {
		m.finalize(h, err)
		return nil, fmt.Errorf("submit task %q: %w", name, err)
	}
	return h, nil
}

// JoinAll blocks until every task submitted so far has reached a
// terminal state, then produces the batch report and resets the
// statistics. Task failures do not abort the wait and are reported as
// data.
func (m *Manager) JoinAll() Report {
	m.mu.Lock()
	snapshot := m.pending
	m.pending = nil
	m.mu.Unlock()

	m.log.Info("waiting for batch", "tasks", len(snapshot))
	for _, h := range snapshot {
		<-h.done
	}

	report := m.stats.snapshotReset()
	report.BatchID = uuid.NewString()
	m.log.Info("batch report",
		"batch_id", report.BatchID,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"avg_duration_ms", report.AvgDurationMillis)
	return report
}

// Shutdown stops the autoscaler and drains the pool, waiting up to the
// configured timeout before remaining work is forcibly cancelled.
func (m *Manager) Shutdown() error {
	m.log.Info("shutting down pool")
	if err := m.pool.Shutdown(m.shutdownTimeout); err != nil {
		m.log.Error("pool shutdown incomplete", "error", err)
		return err
	}
	return nil
}

// finalize moves a task to its terminal state and updates the
// aggregator. Runs at most once per handle regardless of which path
// reaches it first.
func (m *Manager) finalize(h *Handle, err error) {
	duration := m.clock.Since(h.record.submitTime).Milliseconds()

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
	}
	if !h.record.finish(outcome, duration) {
		return
	}

	m.stats.addDuration(duration)
	if err != nil {
		m.stats.addFailure(h.record.name)
		m.log.Error("task failed", "task", h.record.name, "duration_ms", duration, "error", err)
		if m.metrics != nil {
			m.metrics.RecordTaskFailure()
		}
	} else {
		m.stats.addSuccess()
		m.log.Info("task completed", "task", h.record.name, "duration_ms", duration)
		if m.metrics != nil {
			m.metrics.RecordTaskDuration(time.Duration(duration) * time.Millisecond)
		}
	}
	close(h.done)
}

// runBody executes the caller's work with panic recovery.
func runBody(name string, work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			te := types.NewTaskError(name, fmt.Errorf("panic: %v", r))
			te.Stack = string(buf[:n])
			err = te
		}
	}()
	return work()
}
