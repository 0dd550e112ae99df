package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Lifecycle(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	testCases := []struct {
		name     string
		steps    func(t *Task) error
		expect   Status
		errIs    error
		resource string
	}{
		{
			name:     "start",
			steps:    func(t *Task) error { return t.Start("R1", at) },
			expect:   StatusRunning,
			resource: "R1",
		},
		{
			name: "complete",
			steps: func(t *Task) error {
				if err := t.Start("R1", at); err != nil {
					return err
				}
				return t.Complete("ok", at.Add(time.Second))
			},
			expect:   StatusCompleted,
			resource: "R1",
		},
		{
			name: "fail",
			steps: func(t *Task) error {
				if err := t.Start("R1", at); err != nil {
					return err
				}
				return t.Fail(boom, at.Add(time.Second))
			},
			expect:   StatusFailed,
			resource: "R1",
		},
		{
			name:   "complete without start",
			steps:  func(t *Task) error { return t.Complete("ok", at) },
			expect: StatusPending,
			errIs:  ErrInvalidTransition,
		},
		{
			name: "restart running",
			steps: func(t *Task) error {
				if err := t.Start("R1", at); err != nil {
					return err
				}
				return t.Start("R2", at)
			},
			expect:   StatusRunning,
			errIs:    ErrInvalidTransition,
			resource: "R1",
		},
		{
			name: "fail after complete",
			steps: func(t *Task) error {
				if err := t.Start("R1", at); err != nil {
					return err
				}
				if err := t.Complete("ok", at); err != nil {
					return err
				}
				return t.Fail(boom, at)
			},
			expect:   StatusCompleted,
			errIs:    ErrInvalidTransition,
			resource: "R1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			aTask := New("T1", nil, nil, 0)
			err := tc.steps(aTask)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expect, aTask.Status)
			assert.Equal(t, tc.resource, aTask.ResourceID)
		})
	}
}

func TestTask_ResultAndErrorExclusive(t *testing.T) {
	at := time.Now()
	aTask := New("T1", nil, nil, 0)
	require.NoError(t, aTask.Start("R1", at))
	require.NoError(t, aTask.Fail(errors.New("boom"), at.Add(2*time.Second)))
	assert.Nil(t, aTask.Result)
	assert.Equal(t, "boom", aTask.Error)
	assert.Equal(t, 2*time.Second, aTask.Duration())

	aTask.Release()
	assert.Empty(t, aTask.ResourceID)
}

func TestTask_Clone(t *testing.T) {
	at := time.Now()
	aTask := New("T1", nil, Args{"k": "v"}, 3, WithResourceType("gpu"))
	require.NoError(t, aTask.Start("R1", at))

	clone := aTask.Clone()
	clone.Args["k"] = "changed"
	*clone.StartedAt = at.Add(time.Hour)

	assert.Equal(t, "v", aTask.Args["k"])
	assert.Equal(t, at, *aTask.StartedAt)
	assert.Equal(t, "gpu", clone.ResourceType)
	assert.Equal(t, &Ticket{TaskID: "T1", Priority: 3}, clone.Ticket())
}

func TestTypedFunc(t *testing.T) {
	type input struct {
		Name  string
		Count int
	}
	item := TypedFunc(func(ctx context.Context, in *input) (any, error) {
		return in.Name + ":" + string(rune('0'+in.Count)), nil
	})
	out, err := item.Run(context.Background(), Args{"Name": "job", "Count": 2})
	assert.NoError(t, err)
	assert.Equal(t, "job:2", out)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusUnknown.IsTerminal())
}
