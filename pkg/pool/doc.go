/*
Package pool provides a bounded worker pool with feedback-driven sizing.

# Overview

The package has three pieces, layered bottom-up:

  - Pool: a bounded FIFO task queue plus a set of reusable worker
    goroutines, with live counters and a caller-runs saturation policy.
  - Autoscaler: a background control loop that reads the pool counters
    every tick and nudges the core size by at most one step.
  - AdaptivePool: the two composed as a unit.

# Sizing model

The core size is the target number of always-available workers, kept
within [MinWorkers, MaxWorkers] at all times. Submission on a full queue
grows the worker set past the core size, up to MaxWorkers. Idle workers
above the core size terminate after KeepAlive of inactivity, so lowering
the core size actually shrinks the pool.

# Backpressure

When the queue is full and the worker set is at MaxWorkers, Submit runs
the task synchronously on the calling goroutine. The submitter is
throttled by its own work instead of the pool dropping tasks or queueing
without bound. This is the pool's only overload protection.

# Failure isolation

Errors returned by task bodies, and panics raised inside them, are
captured per task and handed to the configured ErrorHandler. A failing
task never terminates a worker or the pool. Autoscaler ticks are
isolated the same way: a panicking evaluation is logged and the loop
keeps ticking.

# Usage

	cfg := &pool.Config{
		MinWorkers:    2,
		MaxWorkers:    8,
		QueueCapacity: 64,
		KeepAlive:     30 * time.Second,
	}

	p, err := pool.NewAdaptive(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	_ = p.Submit(pool.NewFuncTask(func(ctx context.Context) error {
		// do work
		return nil
	}))

	_ = p.Shutdown(10 * time.Second)
*/
package pool
