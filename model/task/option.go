package task

import "time"

// Option customises a task at creation.
type Option func(t *Task)

// WithResourceType sets the required resource type.
func WithResourceType(resourceType string) Option {
	return func(t *Task) {
		t.ResourceType = resourceType
	}
}

// WithCreatedAt overrides the creation timestamp.
func WithCreatedAt(at time.Time) Option {
	return func(t *Task) {
		t.CreatedAt = at
	}
}
