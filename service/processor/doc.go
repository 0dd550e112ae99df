// Package processor hosts the workers that execute tasks. Every worker
// consumes tickets from the priority queue, allocates a resource slot from the
// registry, runs the work item and releases the slot before the outcome is
// recorded.
package processor
