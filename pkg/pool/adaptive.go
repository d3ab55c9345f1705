package pool

import (
	"context"
	"time"
)

// AdaptivePool combines a worker pool with its autoscaler so callers get
// feedback-driven sizing as a unit.
type AdaptivePool struct {
	*Pool
	scaler *Autoscaler
}

// NewAdaptive creates a pool plus autoscaler from a single Config. The
// autoscaler ticks every ScaleInterval.
func NewAdaptive(cfg *Config) (*AdaptivePool, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	scaler, err := NewAutoscaler(p, &AutoscalerConfig{
		Interval: p.cfg.ScaleInterval,
		Clock:    p.cfg.Clock,
		Logger:   p.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &AdaptivePool{Pool: p, scaler: scaler}, nil
}

// Start starts the pool and then the autoscaler.
func (ap *AdaptivePool) Start(ctx context.Context) error {
	if err := ap.Pool.Start(ctx); err != nil {
		return err
	}
	ap.scaler.Start()
	return nil
}

// Shutdown stops the autoscaler first, so no resize can hit a draining
// pool, then shuts the pool down.
func (ap *AdaptivePool) Shutdown(timeout time.Duration) error {
	ap.scaler.Stop()
	return ap.Pool.Shutdown(timeout)
}
