// Package heartbeat keeps resource liveness current. A Monitor periodically
// probes every registered resource, refreshes the heartbeat of those that
// answer and reports resources that drifted outside the liveness window.
package heartbeat
