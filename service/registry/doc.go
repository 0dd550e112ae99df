// Package registry holds the allocatable resources, their free slots and the
// last heartbeat seen for each of them. Workers allocate through Allocate so
// that selecting a resource and taking one of its slots happen under a single
// lock.
package registry
