// Package resource defines a finite-capacity slot pool that tasks are
// allocated to.
package resource

import "time"

// Resource represents an allocatable execution capacity
type Resource struct {
	ID            string    `json:"id" yaml:"id"`
	Type          string    `json:"type" yaml:"type"`
	Capacity      int       `json:"capacity" yaml:"capacity"`
	Available     int       `json:"available" yaml:"available"`
	LastHeartbeat time.Time `json:"lastHeartbeat" yaml:"lastHeartbeat"`
	RegisteredAt  time.Time `json:"registeredAt" yaml:"registeredAt"`
}

// New creates a fully available resource with a fresh heartbeat
func New(id string, capacity int, resourceType string, now time.Time) *Resource {
	return &Resource{
		ID:            id,
		Type:          resourceType,
		Capacity:      capacity,
		Available:     capacity,
		LastHeartbeat: now,
		RegisteredAt:  now,
	}
}

// InUse returns the number of tasks currently assigned.
func (r *Resource) InUse() int {
	return r.Capacity - r.Available
}

// Utilization returns the busy ratio in [0,1].
func (r *Resource) Utilization() float64 {
	if r.Capacity <= 0 {
		return 0
	}
	return float64(r.InUse()) / float64(r.Capacity)
}

// Alive reports whether the last heartbeat is within window of now.
func (r *Resource) Alive(now time.Time, window time.Duration) bool {
	return now.Sub(r.LastHeartbeat) < window
}

// Matches reports whether the resource satisfies a task type requirement.
// An empty requirement matches any resource.
func (r *Resource) Matches(required string) bool {
	return required == "" || required == r.Type
}

// Clone returns a copy of the resource.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
