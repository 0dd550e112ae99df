package metrics

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/acp/model/task"
)

type staticSource map[string]float64

func (s staticSource) Utilization() map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func finished(d time.Duration) *task.Task {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t := task.New("T", nil, nil, 0)
	_ = t.Start("R1", start)
	_ = t.Complete(nil, start.Add(d))
	return t
}

func TestAggregator_Record(t *testing.T) {
	testCases := []struct {
		name      string
		durations []time.Duration
		success   []bool
		completed int
		failed    int
		avg       float64
	}{
		{name: "single", durations: []time.Duration{2 * time.Second}, success: []bool{true}, completed: 1, avg: 2},
		{
			name:      "running average",
			durations: []time.Duration{time.Second, 2 * time.Second, 6 * time.Second},
			success:   []bool{true, false, true},
			completed: 2,
			failed:    1,
			avg:       3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			agg := New(staticSource{"R1": 0.5})
			for i, d := range tc.durations {
				agg.Record(finished(d), tc.success[i])
			}
			snapshot := agg.Snapshot()
			assert.Equal(t, tc.completed, snapshot.Completed)
			assert.Equal(t, tc.failed, snapshot.Failed)
			assert.InDelta(t, tc.avg, snapshot.AvgDuration, 1e-9)
			assert.Equal(t, map[string]float64{"R1": 0.5}, snapshot.Utilization)
		})
	}
}

func TestAggregator_SnapshotIsCopy(t *testing.T) {
	agg := New(staticSource{"R1": 0})
	agg.Record(finished(time.Second), true)
	snapshot := agg.Snapshot()
	snapshot.Utilization["R1"] = 1
	snapshot.Completed = 42
	again := agg.Snapshot()
	assert.Equal(t, 0.0, again.Utilization["R1"])
	assert.Equal(t, 1, again.Completed)
}

func TestAggregator_OnChange(t *testing.T) {
	agg := New(nil)
	var got []Snapshot
	agg.OnChange(func(s Snapshot) { got = append(got, s) })
	agg.Record(finished(time.Second), true)
	agg.Record(finished(time.Second), false)
	agg.RecordRequeue()
	assert.Len(t, got, 2)
	assert.Equal(t, 2, got[1].Finished())
	assert.Equal(t, 1, agg.Snapshot().Requeued)
}

func TestAggregator_Concurrent(t *testing.T) {
	agg := New(staticSource{"R1": 0})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agg.Record(finished(time.Second), i%2 == 0)
			s := agg.Snapshot()
			assert.Equal(t, s.Finished(), s.Completed+s.Failed)
		}(i)
	}
	wg.Wait()
	snapshot := agg.Snapshot()
	assert.Equal(t, 50, snapshot.Finished())
	assert.InDelta(t, 1.0, snapshot.AvgDuration, 1e-9)
}

type sequenceSource struct {
	reads atomic.Int64
}

func (s *sequenceSource) Utilization() map[string]float64 {
	return map[string]float64{"R1": float64(s.reads.Add(1))}
}

func TestAggregator_KeepsLatestUtilization(t *testing.T) {
	source := &sequenceSource{}
	agg := New(source)
	const records = 64
	var wg sync.WaitGroup
	for i := 0; i < records; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record(finished(time.Second), true)
		}()
	}
	wg.Wait()
	assert.Equal(t, float64(records), agg.Snapshot().Utilization["R1"], "the newest reading wins")
}
