package pool

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvoss/adaptivepool/pkg/types"
)

// Config contains configuration for the worker pool. It is immutable
// after construction; New validates it and rejects invalid values.
type Config struct {
	// MinWorkers is the minimum number of always-available workers
	MinWorkers int `yaml:"min_workers"`

	// MaxWorkers is the maximum number of workers under load
	MaxWorkers int `yaml:"max_workers"`

	// QueueCapacity is the bounded task queue capacity
	QueueCapacity int `yaml:"queue_capacity"`

	// KeepAlive is how long an idle worker above the core size waits
	// before terminating
	KeepAlive time.Duration `yaml:"keep_alive"`

	// ScaleInterval is the autoscaler tick interval
	ScaleInterval time.Duration `yaml:"scale_interval"`

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock `yaml:"-"`

	// Logger for structured logging (optional, defaults to slog.Default)
	Logger *slog.Logger `yaml:"-"`

	// ErrorHandler receives failures from raw pool tasks
	ErrorHandler types.ErrorHandler `yaml:"-"`

	// Metrics receives observability events (optional)
	Metrics types.Metrics `yaml:"-"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MinWorkers:    2,
		MaxWorkers:    8,
		QueueCapacity: 100,
		KeepAlive:     30 * time.Second,
		ScaleInterval: time.Second,
	}
}

// LoadConfig reads a Config from a YAML file. Values absent from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	if c.MinWorkers < 1 {
		return fmt.Errorf("%w: min workers must be >= 1, got %d",
			types.ErrInvalidConfig, c.MinWorkers)
	}
	if c.MaxWorkers < c.MinWorkers {
		return fmt.Errorf("%w: max workers (%d) must be >= min workers (%d)",
			types.ErrInvalidConfig, c.MaxWorkers, c.MinWorkers)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("%w: queue capacity must be >= 1, got %d",
			types.ErrInvalidConfig, c.QueueCapacity)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("%w: keep alive must be >= 0, got %s",
			types.ErrInvalidConfig, c.KeepAlive)
	}
	if c.ScaleInterval < 0 {
		return fmt.Errorf("%w: scale interval must be >= 0, got %s",
			types.ErrInvalidConfig, c.ScaleInterval)
	}
	return nil
}

// normalize fills optional collaborators with defaults.
func (c *Config) normalize() {
	if c.Clock == nil {
		c.Clock = types.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ScaleInterval == 0 {
		c.ScaleInterval = time.Second
	}
}
