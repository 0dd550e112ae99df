// Package messaging defines the queue contract shared by the scheduler's
// producers (task submission) and consumers (processor workers).
package messaging
