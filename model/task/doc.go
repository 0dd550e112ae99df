// Package task defines the unit of work handled by the scheduler: its
// lifecycle (pending, running, completed, failed), the work item it wraps and
// the ticket placed on the priority queue.
package task
