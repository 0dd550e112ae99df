package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/viant/acp/internal/logging"
	"go.uber.org/zap"
)

// Probe checks whether resource id is alive. A nil error counts as a heartbeat.
type Probe func(ctx context.Context, id string) error

// Registry is the part of the resource registry the monitor needs.
type Registry interface {
	IDs() []string
	Heartbeat(id string) error
	Stale() []string
}

// Config represents monitor configuration
type Config struct {
	// Interval between two sweeps
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() Config {
	return Config{Interval: 10 * time.Second}
}

// Monitor runs the periodic liveness sweep
type Monitor struct {
	config   Config
	registry Registry
	probe    Probe
	logger   *zap.Logger

	mu         sync.Mutex
	stale      map[string]bool
	running    bool
	ctx        context.Context
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// New creates a monitor for registry
func New(registry Registry, options ...Option) *Monitor {
	m := &Monitor{
		config:   DefaultConfig(),
		registry: registry,
		stale:    map[string]bool{},
	}
	for _, opt := range options {
		opt(m)
	}
	if m.config.Interval <= 0 {
		m.config.Interval = DefaultConfig().Interval
	}
	m.logger = logging.OrNop(m.logger)
	return m
}

// Start launches the sweep loop. Starting a running monitor is a no-op; a
// monitor stopped by Stop or by a canceled ctx can be started again.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		if m.ctx.Err() == nil {
			return
		}
		close(m.shutdownCh)
		m.wg.Wait()
	}
	m.running = true
	m.ctx = ctx
	m.shutdownCh = make(chan struct{})
	m.wg.Add(1)
	go m.run(ctx, m.shutdownCh)
}

// Stop ends the sweep loop and waits for it to exit. It is safe to call more
// than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.shutdownCh)
	m.mu.Unlock()
	m.wg.Wait()
}

// Running reports whether the sweep loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running && m.ctx.Err() == nil
}

func (m *Monitor) run(ctx context.Context, shutdownCh chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-shutdownCh:
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one sweep synchronously and returns the stale resource ids.
func (m *Monitor) Check(ctx context.Context) []string {
	if m.probe != nil {
		for _, id := range m.registry.IDs() {
			if ctx.Err() != nil {
				break
			}
			if err := m.probe(ctx, id); err != nil {
				m.logger.Debug("probe failed", zap.String("resource", id), zap.Error(err))
				continue
			}
			if err := m.registry.Heartbeat(id); err != nil {
				m.logger.Warn("failed to refresh heartbeat", zap.String("resource", id), zap.Error(err))
			}
		}
	}
	stale := m.registry.Stale()
	m.track(stale)
	return stale
}

// track logs alive/stale transitions against the previous sweep.
func (m *Monitor) track(stale []string) {
	current := make(map[string]bool, len(stale))
	for _, id := range stale {
		current[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range current {
		if !m.stale[id] {
			m.logger.Warn("resource heartbeat stale", zap.String("resource", id))
		}
	}
	for id := range m.stale {
		if !current[id] {
			m.logger.Info("resource heartbeat recovered", zap.String("resource", id))
		}
	}
	m.stale = current
}
