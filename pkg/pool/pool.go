package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvoss/adaptivepool/pkg/types"
)

// Pool states
const (
	stateCreated int32 = iota
	stateRunning
	stateClosed
)

// Pool executes submitted tasks on a bounded set of reusable worker
// goroutines, absorbing bursts via a bounded FIFO queue.
//
// The core size is the target number of always-available workers. Under
// load the worker set grows past the core size up to MaxWorkers; idle
// workers above the core size terminate after KeepAlive of inactivity.
// When the queue is full and the worker set is at MaxWorkers, Submit
// runs the task synchronously on the calling goroutine. This caller-runs
// fallback throttles the submitter instead of dropping work or queuing
// without bound; it is the pool's only overload protection.
type Pool struct {
	cfg   *Config
	queue chan types.Task

	// State management
	state     int32 // stateCreated, stateRunning, stateClosed
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// submitMu serializes queue close against in-flight sends
	submitMu sync.RWMutex

	// Worker management; workers is guarded by mu
	mu      sync.Mutex
	workers int
	wg      sync.WaitGroup

	core   int32 // atomic, always within [MinWorkers, MaxWorkers]
	active int32 // atomic, workers currently executing a task

	clock types.Clock
	log   *slog.Logger
}

// New creates a new worker pool. The configuration is validated here;
// invalid values fail construction immediately.
func New(cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()

	return &Pool{
		cfg:   cfg,
		queue: make(chan types.Task, cfg.QueueCapacity),
		core:  int32(cfg.MinWorkers),
		clock: cfg.Clock,
		log:   cfg.Logger,
	}, nil
}

// Start starts the worker pool with the core number of workers.
func (p *Pool) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.state, stateCreated, stateRunning) {
		if atomic.LoadInt32(&p.state) == stateRunning {
			return fmt.Errorf("pool is already running")
		}
		return types.ErrPoolClosed
	}

	p.mu.Lock()
	p.ctx, p.cancel = context.WithCancel(ctx)
	for p.workers < int(atomic.LoadInt32(&p.core)) {
		p.spawnLocked(nil)
	}
	p.mu.Unlock()

	p.log.Info("pool started",
		"min_workers", p.cfg.MinWorkers,
		"max_workers", p.cfg.MaxWorkers,
		"queue_capacity", p.cfg.QueueCapacity,
		"keep_alive", p.cfg.KeepAlive)
	return nil
}

// Submit enqueues a task for execution. If the queue is full, the pool
// first grows the worker set toward MaxWorkers; if the queue is still
// full at MaxWorkers, the task runs synchronously on the calling
// goroutine (caller-runs saturation policy).
func (p *Pool) Submit(task types.Task) error {
	if task == nil {
		return types.ErrNilTask
	}

	p.submitMu.RLock()
	switch atomic.LoadInt32(&p.state) {
	case stateCreated:
		p.submitMu.RUnlock()
		return types.ErrPoolNotStarted
	case stateClosed:
		p.submitMu.RUnlock()
		return types.ErrPoolClosed
	}

	enqueued := false
	select {
	case p.queue <- task:
		enqueued = true
	default:
		// queue full: hand the task straight to a fresh worker if the
		// set is still below MaxWorkers
		enqueued = p.tryGrow(task)
	}
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordQueueDepth(len(p.queue))
	}
	p.submitMu.RUnlock()

	if enqueued {
		return nil
	}

	// caller-runs: the submitter is throttled by its own work; this
	// execution does not count as an active pool worker
	p.log.Debug("pool saturated, running task on caller", "task", task.ID())
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordCallerRun()
	}
	p.dispatch(task)
	return nil
}

// SetCoreSize atomically changes the target number of always-available
// workers, clamped to [MinWorkers, MaxWorkers], and returns the applied
// value. Missing workers are spawned immediately; excess workers drain
// away through the KeepAlive idle timeout.
func (p *Pool) SetCoreSize(n int) int {
	if n < p.cfg.MinWorkers {
		n = p.cfg.MinWorkers
	}
	if n > p.cfg.MaxWorkers {
		n = p.cfg.MaxWorkers
	}

	p.mu.Lock()
	old := int(atomic.SwapInt32(&p.core, int32(n)))
	if atomic.LoadInt32(&p.state) == stateRunning {
		for p.workers < n {
			p.spawnLocked(nil)
		}
	}
	p.mu.Unlock()

	if n != old {
		p.log.Debug("core size changed", "from", old, "to", n)
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.RecordCoreSize(n)
		}
	}
	return n
}

// Stats returns a consistent-enough view of the pool counters. Fields
// are read independently, not as an atomic snapshot.
func (p *Pool) Stats() types.PoolStats {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	return types.PoolStats{
		CoreSize:      int(atomic.LoadInt32(&p.core)),
		MinWorkers:    p.cfg.MinWorkers,
		MaxWorkers:    p.cfg.MaxWorkers,
		WorkerCount:   workers,
		ActiveWorkers: int(atomic.LoadInt32(&p.active)),
		QueueSize:     len(p.queue),
		QueueCapacity: p.cfg.QueueCapacity,
	}
}

// IsRunning checks if the pool is running
func (p *Pool) IsRunning() bool {
	return atomic.LoadInt32(&p.state) == stateRunning
}

// IsClosed checks if the pool has been shut down
func (p *Pool) IsClosed() bool {
	return atomic.LoadInt32(&p.state) == stateClosed
}

// Shutdown stops accepting new work, waits up to timeout for queued and
// in-flight tasks to drain, then cancels the pool context to interrupt
// whatever remains. Safe to call once; repeated calls return nil.
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.submitMu.Lock()
	prev := atomic.SwapInt32(&p.state, stateClosed)
	if prev == stateRunning {
		p.closeOnce.Do(func() { close(p.queue) })
	}
	p.submitMu.Unlock()

	if prev != stateRunning {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelCtx()
		p.log.Info("pool drained and stopped")
		return nil
	case <-p.clock.After(timeout):
		p.cancelCtx()
		p.log.Warn("forcing pool shutdown, queued work cancelled", "timeout", timeout)
		return fmt.Errorf("pool did not drain within %s: %w", timeout, types.ErrShutdownTimeout)
	}
}

func (p *Pool) cancelCtx() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// spawnLocked starts one worker goroutine, optionally primed with a
// first task. Caller must hold p.mu.
func (p *Pool) spawnLocked(first types.Task) {
	p.workers++
	p.wg.Add(1)
	go p.worker(p.ctx, first)
}

// tryGrow adds a worker primed with the given task if the set is below
// MaxWorkers.
func (p *Pool) tryGrow(first types.Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.workers >= p.cfg.MaxWorkers || atomic.LoadInt32(&p.state) != stateRunning {
		return false
	}
	p.spawnLocked(first)
	return true
}

// tryRetire removes the calling worker from the set if the set exceeds
// the current core size.
func (p *Pool) tryRetire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.workers > int(atomic.LoadInt32(&p.core)) {
		p.workers--
		return true
	}
	return false
}

// release removes the calling worker from the set unconditionally.
func (p *Pool) release() {
	p.mu.Lock()
	p.workers--
	p.mu.Unlock()
}

// worker is the receive loop of a single worker goroutine. It polls the
// queue with the KeepAlive idle timeout; a worker whose timer fires
// while the set exceeds the core size retires.
func (p *Pool) worker(ctx context.Context, first types.Task) {
	defer p.wg.Done()

	if first != nil {
		p.runTask(first)
	}

	// zero keep-alive still needs a nonzero poll granularity
	poll := p.cfg.KeepAlive
	if poll < time.Millisecond {
		poll = time.Millisecond
	}
	idle := p.clock.NewTimer(poll)
	defer idle.Stop()

	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				p.release()
				return
			}
			p.runTask(task)
			idle.Reset(poll)
		case <-idle.C():
			if p.tryRetire() {
				return
			}
			idle.Reset(poll)
		case <-ctx.Done():
			p.release()
			return
		}
	}
}

// runTask executes a single task on a worker, tracking the active
// counter.
func (p *Pool) runTask(task types.Task) {
	atomic.AddInt32(&p.active, 1)
	defer atomic.AddInt32(&p.active, -1)
	p.dispatch(task)
}

// dispatch executes a task and routes failures to the error handler.
// Failures are captured per task; they never crash a worker or the pool.
func (p *Pool) dispatch(task types.Task) {
	if err := p.execute(task); err != nil {
		p.log.Error("task failed", "task", task.ID(), "error", err)
		if p.cfg.ErrorHandler != nil {
			_ = p.cfg.ErrorHandler(err)
		}
	}
}

// execute runs the task body with panic recovery.
func (p *Pool) execute(task types.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			te := types.NewTaskError(task.ID(), fmt.Errorf("panic: %v", r))
			te.Stack = string(buf[:n])
			err = te
		}
	}()

	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return task.Execute(ctx)
}
