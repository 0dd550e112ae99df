package acp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/acp/internal/logging"
	"github.com/viant/acp/service/heartbeat"
	"github.com/viant/acp/service/processor"
	"github.com/viant/acp/service/registry"
	"github.com/viant/afs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the scheduler configuration. It
// can be populated from JSON or YAML; fields left out keep their defaults
// when loaded with LoadConfig.
type Config struct {
	Processor ProcessorConfig `json:"processor" yaml:"processor"`
	Registry  RegistryConfig  `json:"registry" yaml:"registry"`
	Heartbeat HeartbeatConfig `json:"heartbeat" yaml:"heartbeat"`
	Task      TaskConfig      `json:"task" yaml:"task"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
}

type (
	// ProcessorConfig configures the worker pool.
	ProcessorConfig = processor.Config
	// RegistryConfig configures resource allocation.
	RegistryConfig = registry.Config
	// HeartbeatConfig configures the liveness monitor.
	HeartbeatConfig = heartbeat.Config
	// LoggingConfig configures the zap logger.
	LoggingConfig = logging.Config
)

// TaskConfig configures the task table and the ticket queue.
type TaskConfig struct {
	// MaxFinished caps retained completed/failed tasks, zero keeps all.
	MaxFinished int `json:"maxFinished" yaml:"maxFinished"`
	// PollTimeout bounds a single idle dequeue wait.
	PollTimeout time.Duration `json:"pollTimeout" yaml:"pollTimeout"`
}

// TracingConfig enables the stdout OpenTelemetry exporter.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults of every
// component. Callers may modify the returned struct before passing it to
// WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Processor: processor.DefaultConfig(),
		Registry:  registry.DefaultConfig(),
		Heartbeat: heartbeat.DefaultConfig(),
		Task: TaskConfig{
			PollTimeout: time.Second,
		},
		Logging: logging.DefaultConfig(),
		Tracing: TracingConfig{
			ServiceName:    "acp",
			ServiceVersion: "dev",
		},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Processor.Workers <= 0 {
		errs = append(errs, fmt.Errorf("processor.workers must be > 0"))
	}
	if c.Processor.RequeueDelay < 0 {
		errs = append(errs, fmt.Errorf("processor.requeueDelay must be >= 0"))
	}
	if c.Registry.LivenessWindow <= 0 {
		errs = append(errs, fmt.Errorf("registry.livenessWindow must be > 0"))
	}
	if c.Heartbeat.Interval <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat.interval must be > 0"))
	}
	if c.Task.MaxFinished < 0 {
		errs = append(errs, fmt.Errorf("task.maxFinished must be >= 0"))
	}
	if c.Task.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("task.pollTimeout must be > 0"))
	}
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (or JSON) document from URL over the defaults. Any
// scheme supported by afs works, plain paths are treated as local files.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download config %v: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return cfg, nil
}
