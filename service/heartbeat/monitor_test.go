package heartbeat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/registry"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRegistry(t *testing.T) (*registry.Service, *clock.Manual) {
	manual := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	srv := registry.New(registry.WithClock(manual.Now), registry.WithLivenessWindow(30*time.Second))
	require.NoError(t, srv.Register("R1", 1, "cpu"))
	require.NoError(t, srv.Register("R2", 1, "gpu"))
	return srv, manual
}

func TestMonitor_Check(t *testing.T) {
	testCases := []struct {
		name   string
		probe  Probe
		expect []string
	}{
		{
			name:   "passive monitor reports drift",
			expect: []string{"R1", "R2"},
		},
		{
			name:   "probe refreshes live resources",
			probe:  func(context.Context, string) error { return nil },
			expect: nil,
		},
		{
			name: "failing probe leaves resource stale",
			probe: func(_ context.Context, id string) error {
				if id == "R2" {
					return errors.New("unreachable")
				}
				return nil
			},
			expect: []string{"R2"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, manual := newRegistry(t)
			monitor := New(srv, WithProbe(tc.probe))
			manual.Advance(time.Minute)
			assert.Equal(t, tc.expect, monitor.Check(context.Background()))
			_, ok := srv.SelectFor(task.New("T1", nil, nil, 0))
			assert.Equal(t, len(tc.expect) < 2, ok)
		})
	}
}

func TestMonitor_Transitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv, manual := newRegistry(t)
	alive := atomic.Bool{}
	monitor := New(srv, WithLogger(zap.New(core)), WithProbe(func(context.Context, string) error {
		if alive.Load() {
			return nil
		}
		return errors.New("down")
	}))

	manual.Advance(time.Minute)
	monitor.Check(context.Background())
	assert.Equal(t, 2, logs.FilterMessage("resource heartbeat stale").Len())

	monitor.Check(context.Background())
	assert.Equal(t, 2, logs.FilterMessage("resource heartbeat stale").Len(), "transitions are logged once")

	alive.Store(true)
	monitor.Check(context.Background())
	assert.Equal(t, 2, logs.FilterMessage("resource heartbeat recovered").Len())
}

func TestMonitor_StartStop(t *testing.T) {
	srv, _ := newRegistry(t)
	var probes int32
	monitor := New(srv, WithInterval(5*time.Millisecond), WithProbe(func(context.Context, string) error {
		atomic.AddInt32(&probes, 1)
		return nil
	}))

	monitor.Start(context.Background())
	monitor.Start(context.Background())
	assert.True(t, monitor.Running())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&probes) >= 4 }, time.Second, time.Millisecond)

	monitor.Stop()
	monitor.Stop()
	assert.False(t, monitor.Running())
	after := atomic.LoadInt32(&probes)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&probes), "no sweep after stop")

	monitor.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&probes) > after }, time.Second, time.Millisecond)
	monitor.Stop()
}

func TestMonitor_RestartAfterContextCancel(t *testing.T) {
	srv, _ := newRegistry(t)
	var probes int32
	monitor := New(srv, WithInterval(5*time.Millisecond), WithProbe(func(context.Context, string) error {
		atomic.AddInt32(&probes, 1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)
	cancel()
	assert.False(t, monitor.Running())

	monitor.Start(context.Background())
	assert.True(t, monitor.Running())
	after := atomic.LoadInt32(&probes)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&probes) > after }, time.Second, time.Millisecond)
	monitor.Stop()
	assert.False(t, monitor.Running())
}
