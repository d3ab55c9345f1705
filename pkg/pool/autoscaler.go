package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvoss/adaptivepool/pkg/types"
)

// scalable is what the autoscaler needs from a pool: readable counters
// and a single mutating operation. It never touches the queue directly.
type scalable interface {
	Stats() types.PoolStats
	SetCoreSize(n int) int
}

// AutoscalerConfig contains configuration for the autoscaler.
type AutoscalerConfig struct {
	// Interval is the tick interval (default 1s)
	Interval time.Duration

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger for structured logging (optional, defaults to slog.Default)
	Logger *slog.Logger
}

// Autoscaler is a periodic control loop that adjusts the pool's core
// size based on load. Per tick it applies at most one single-step
// change, in priority order:
//
//  1. active workers above core size, core below max: grow by one
//  2. queue more than half full, core below max: grow by one
//  3. queue empty, core above min: shrink by one
//
// Active-worker pressure wins over queue depth when both apply. The
// shrink rule fires only on a fully empty queue; the asymmetry favors
// throughput over goroutine-count minimization and is kept as-is.
type Autoscaler struct {
	pool     scalable
	interval time.Duration
	clock    types.Clock
	log      *slog.Logger

	started  int32 // atomic
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAutoscaler creates an autoscaler bound to the given pool.
func NewAutoscaler(pool scalable, cfg *AutoscalerConfig) (*Autoscaler, error) {
	if pool == nil {
		return nil, fmt.Errorf("autoscaler requires a pool")
	}
	if cfg == nil {
		cfg = &AutoscalerConfig{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.NewRealClock()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Autoscaler{
		pool:     pool,
		interval: interval,
		clock:    clock,
		log:      log,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the control loop on its own goroutine. Starting twice
// is a no-op.
func (a *Autoscaler) Start() {
	if !atomic.CompareAndSwapInt32(&a.started, 0, 1) {
		return
	}
	go a.loop()
}

// Stop terminates the control loop and waits for it to exit. Always
// called before pool shutdown so no resize races a draining pool. Safe
// to call multiple times.
func (a *Autoscaler) Stop() {
	a.stopOnce.Do(func() { close(a.quit) })
	if atomic.LoadInt32(&a.started) == 1 {
		<-a.done
	}
}

func (a *Autoscaler) loop() {
	defer close(a.done)

	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.quit:
			return
		case <-ticker.C():
			a.tick()
		}
	}
}

// tick runs one evaluation, isolated so a panic cannot stop subsequent
// ticks.
func (a *Autoscaler) tick() {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("autoscaler tick panicked", "panic", r)
		}
	}()
	a.evaluate()
}

// evaluate applies the scaling policy once. At most one size change per
// call.
func (a *Autoscaler) evaluate() {
	s := a.pool.Stats()

	switch {
	case s.ActiveWorkers > s.CoreSize && s.CoreSize < s.MaxWorkers:
		n := a.pool.SetCoreSize(s.CoreSize + 1)
		a.log.Info("scaled up on active workers",
			"core", n, "active", s.ActiveWorkers)
	case s.QueueSize > s.QueueCapacity/2 && s.CoreSize < s.MaxWorkers:
		n := a.pool.SetCoreSize(s.CoreSize + 1)
		a.log.Info("scaled up on queue depth",
			"core", n, "queue", s.QueueSize, "capacity", s.QueueCapacity)
	case s.QueueSize == 0 && s.CoreSize > s.MinWorkers:
		n := a.pool.SetCoreSize(s.CoreSize - 1)
		a.log.Info("scaled down on empty queue", "core", n)
	}
}
