package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/internal/logging"
	"github.com/viant/acp/model/resource"
	"github.com/viant/acp/model/task"
	"go.uber.org/zap"
)

// Config represents registry configuration
type Config struct {
	// LivenessWindow is the maximum elapsed time since the last heartbeat
	// before a resource is excluded from allocation.
	LivenessWindow time.Duration `json:"livenessWindow" yaml:"livenessWindow"`

	// StrictType turns the task resource type into a hard filter. When false
	// the type is advisory and first-fit ignores it.
	StrictType bool `json:"strictType" yaml:"strictType"`
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		LivenessWindow: 30 * time.Second,
	}
}

// Service is the resource registry
type Service struct {
	config    Config
	mu        sync.RWMutex
	resources map[string]*resource.Resource
	order     []string
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a resource registry
func New(options ...Option) *Service {
	s := &Service{
		config:    DefaultConfig(),
		resources: make(map[string]*resource.Resource),
		now:       clock.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.config.LivenessWindow <= 0 {
		s.config.LivenessWindow = DefaultConfig().LivenessWindow
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// LivenessWindow returns the configured liveness window
func (s *Service) LivenessWindow() time.Duration {
	return s.config.LivenessWindow
}

// Register adds a fully available resource
func (s *Service) Register(id string, capacity int, resourceType string) error {
	if id == "" {
		return ErrInvalidID
	}
	if capacity <= 0 {
		return fmt.Errorf("%w: %s capacity %d", ErrInvalidCapacity, id, capacity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, id)
	}
	s.resources[id] = resource.New(id, capacity, resourceType, s.now())
	s.order = append(s.order, id)
	s.logger.Info("resource registered",
		zap.String("resource", id),
		zap.Int("capacity", capacity),
		zap.String("type", resourceType))
	return nil
}

// SelectFor returns the first resource, in registration order, that has a
// free slot and a heartbeat within the liveness window. No qualifying
// resource is reported as ("", false).
func (s *Service) SelectFor(t *task.Task) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.selectFor(t)
	if r == nil {
		return "", false
	}
	return r.ID, true
}

func (s *Service) selectFor(t *task.Task) *resource.Resource {
	now := s.now()
	for _, id := range s.order {
		r := s.resources[id]
		if r.Available <= 0 || !r.Alive(now, s.config.LivenessWindow) {
			continue
		}
		if s.config.StrictType && t != nil && !r.Matches(t.ResourceType) {
			continue
		}
		return r
	}
	return nil
}

// Allocate selects a resource for t and takes one of its slots atomically
func (s *Service) Allocate(t *task.Task) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.selectFor(t)
	if r == nil {
		return "", false
	}
	r.Available--
	return r.ID, true
}

// Acquire takes one slot of resource id
func (s *Service) Acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	if r.Available <= 0 {
		return fmt.Errorf("%w: %s", ErrNoCapacity, id)
	}
	r.Available--
	return nil
}

// Release returns one slot of resource id
func (s *Service) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	if r.Available >= r.Capacity {
		return fmt.Errorf("%w: %s", ErrOverRelease, id)
	}
	r.Available++
	return nil
}

// Heartbeat refreshes the liveness timestamp of resource id
func (s *Service) Heartbeat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	r.LastHeartbeat = s.now()
	return nil
}

// Resource returns a copy of resource id
func (s *Service) Resource(id string) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	return r.Clone(), nil
}

// List returns copies of all resources in registration order
func (s *Service) List() []*resource.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*resource.Resource, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.resources[id].Clone())
	}
	return out
}

// IDs returns resource ids in registration order
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Stale returns ids of resources whose heartbeat is outside the liveness window
func (s *Service) Stale() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var out []string
	for _, id := range s.order {
		if !s.resources[id].Alive(now, s.config.LivenessWindow) {
			out = append(out, id)
		}
	}
	return out
}

// Utilization returns the busy ratio of every resource
func (s *Service) Utilization() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.resources))
	for id, r := range s.resources {
		out[id] = r.Utilization()
	}
	return out
}
