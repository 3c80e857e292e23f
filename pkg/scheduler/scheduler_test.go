package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/metrics"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRegisterValidates(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("bad", 0, 0, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = r.Register("nil", time.Second, 0, nil)
	assert.Error(t, err)
}

func TestRegisterDoesNotStart(t *testing.T) {
	r := NewRegistry()
	var runs atomic.Int32
	_, err := r.Register("report", time.Hour, 0, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, runs.Load())
	assert.Zero(t, r.Running())
}

func TestStartRunsImmediatelyThenOnTick(t *testing.T) {
	r := NewRegistry()
	var runs atomic.Int32
	id, err := r.Register("tick", 10*time.Millisecond, 0, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background(), id))
	require.NoError(t, r.Start(context.Background(), id)) // idempotent
	waitFor(t, func() bool { return runs.Load() >= 3 })

	require.NoError(t, r.Stop(id))
	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "job ran after Stop returned")
	assert.NoError(t, r.Stop(id)) // idempotent
}

func TestFailuresAreRecorded(t *testing.T) {
	reg := metrics.NewRegistry()
	r := NewRegistry(WithMetrics(reg))
	id, err := r.Register("alerts", time.Hour, 0, func(context.Context) error {
		return errors.New("publisher down")
	})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background(), id))
	waitFor(t, func() bool { return r.List()[0].Runs == 1 })
	require.NoError(t, r.Stop(id))

	info := r.List()[0]
	assert.EqualValues(t, 1, info.Failures)
	assert.Equal(t, "publisher down", info.LastError)
	assert.NotNil(t, info.LastRun)
	assert.False(t, info.Running)
}

func TestStopCancelsInFlightRun(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	id, err := r.Register("slow", time.Hour, time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background(), id))
	<-started

	require.NoError(t, r.Stop(id))
	info := r.List()[0]
	assert.Zero(t, info.Failures, "cancellation by Stop is not a failure")
}

func TestUnknownJob(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Start(context.Background(), "missing"), ErrJobNotFound)
	assert.ErrorIs(t, r.Stop("missing"), ErrJobNotFound)
	assert.ErrorIs(t, r.Remove("missing"), ErrJobNotFound)
}

func TestStartAllStopAllAndList(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context) error { return nil }
	_, err := r.Register("b-report", time.Hour, 0, noop)
	require.NoError(t, err)
	idA, err := r.Register("a-alerts", time.Hour, 0, noop)
	require.NoError(t, err)

	r.StartAll(context.Background())
	assert.Equal(t, 2, r.Running())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a-alerts", list[0].Name)
	assert.Equal(t, "b-report", list[1].Name)

	r.StopAll()
	assert.Zero(t, r.Running())

	require.NoError(t, r.Remove(idA))
	assert.Len(t, r.List(), 1)
}
