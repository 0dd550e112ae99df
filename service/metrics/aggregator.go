// Package metrics keeps the scheduler performance counters: finished task
// totals, the running average execution time and per-resource utilization.
// It is safe for concurrent use; readers only ever see whole snapshots.
package metrics

import (
	"sync"
	"time"

	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/model/task"
)

// UtilizationSource reports the busy ratio of every resource.
type UtilizationSource interface {
	Utilization() map[string]float64
}

// Snapshot is a read-only copy of the counters.
type Snapshot struct {
	Completed   int                `json:"completed" yaml:"completed"`
	Failed      int                `json:"failed" yaml:"failed"`
	Requeued    int                `json:"requeued" yaml:"requeued"`
	AvgDuration float64            `json:"avgDurationSec" yaml:"avgDurationSec"`
	Utilization map[string]float64 `json:"utilization" yaml:"utilization"`
	UpdatedAt   time.Time          `json:"updatedAt" yaml:"updatedAt"`
}

// Finished returns completed plus failed.
func (s Snapshot) Finished() int {
	return s.Completed + s.Failed
}

func (s Snapshot) clone() Snapshot {
	ret := s
	ret.Utilization = make(map[string]float64, len(s.Utilization))
	for k, v := range s.Utilization {
		ret.Utilization[k] = v
	}
	return ret
}

// Aggregator accumulates metrics after every task completion or failure
type Aggregator struct {
	mu       sync.Mutex
	state    Snapshot
	source   UtilizationSource
	onChange func(Snapshot)
}

// New creates an aggregator reading utilization from source (may be nil).
func New(source UtilizationSource) *Aggregator {
	return &Aggregator{
		source: source,
		state:  Snapshot{Utilization: map[string]float64{}},
	}
}

// Record counts a finished task and folds its duration into the running
// average: avg = (avg*(n-1) + d) / n with n the finished count after this
// event. Utilization is recomputed for every resource, under the lock so that
// the stored reading is always the latest one.
func (a *Aggregator) Record(t *task.Task, success bool) {
	if a == nil || t == nil {
		return
	}
	a.mu.Lock()
	var utilization map[string]float64
	if a.source != nil {
		utilization = a.source.Utilization()
	}
	if success {
		a.state.Completed++
	} else {
		a.state.Failed++
	}
	n := float64(a.state.Finished())
	a.state.AvgDuration = (a.state.AvgDuration*(n-1) + t.Duration().Seconds()) / n
	if utilization != nil {
		a.state.Utilization = utilization
	}
	a.state.UpdatedAt = clock.Now()
	snapshot := a.state.clone()
	cb := a.onChange
	a.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// RecordRequeue counts a dequeue that found no resource.
func (a *Aggregator) RecordRequeue() {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.state.Requeued++
	a.mu.Unlock()
}

// Snapshot returns a copy of the counters. Resources registered after the
// last record are reported with their current utilization.
func (a *Aggregator) Snapshot() Snapshot {
	if a == nil {
		return Snapshot{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var utilization map[string]float64
	if a.source != nil {
		utilization = a.source.Utilization()
	}
	ret := a.state.clone()
	for id, ratio := range utilization {
		if _, ok := ret.Utilization[id]; !ok {
			ret.Utilization[id] = ratio
		}
	}
	return ret
}

// OnChange registers a callback invoked with a copy after every Record.
// Passing nil disables the callback.
func (a *Aggregator) OnChange(cb func(Snapshot)) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.onChange = cb
	a.mu.Unlock()
}
