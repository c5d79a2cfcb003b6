package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopPriorityOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []int
	record := func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		return nil
	}
	loop := NewLoop()
	loop.AddController(PrLvActuate, ControlFunc(record))
	loop.AddController(PrLvSense, ControlFunc(record))
	loop.AddController(PrLvControl, ControlFunc(record))
	loop.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		if cc.Iteration() == 2 {
			cancel()
		}
		return errors.New("reported only")
	}))

	require.Equal(t, context.Canceled, loop.Run(ctx))
	assert.Equal(t, []int{PrLvSense, PrLvControl, PrLvActuate, PrLvSense, PrLvControl, PrLvActuate}, order)
	assert.Equal(t, uint64(2), loop.Iterations())
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestLoopIntervalAndClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	at := time.Unix(42, 0)
	var seen []time.Time
	loop := &Loop{Interval: time.Millisecond, Clock: fixedClock(at)}
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, cc.Time())
		if len(seen) == 3 {
			cancel()
		} else {
			cc.TriggerNext()
		}
		return nil
	}))
	require.Equal(t, context.Canceled, loop.Run(ctx))
	require.Equal(t, []time.Time{at, at, at}, seen)
}

func TestLoopStopsWithRunnable(t *testing.T) {
	failure := errors.New("link down")
	loop := NewLoop()
	loop.AddController(PrLvControl, ControlFunc(func(ControlContext) error {
		time.Sleep(time.Millisecond)
		return nil
	}))
	loop.AddRunnable(NamedRun("failing", RunFunc(func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return failure
	})))

	err := loop.Run(context.Background())
	require.Error(t, err)
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.Equal(t, []error{failure}, agg.Errors)
	require.Equal(t, "link down", err.Error())
}

func TestRunnerWait(t *testing.T) {
	r := NewRunner()
	r.Go(
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		RunFunc(func(ctx context.Context) error {
			return errors.New("a")
		}),
	)
	err := r.Wait()
	require.EqualError(t, err, "a")

	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	require.EqualError(t, errs.Add(errors.New("x"), errors.New("y")).Aggregate(), "2 errors: x; y")
}

type testCloser struct {
	closed  int
	unblock chan struct{}
}

func (c *testCloser) Close() error {
	c.closed++
	close(c.unblock)
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &testCloser{unblock: make(chan struct{})}
	go func() {
		time.Sleep(time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, c, func() error {
		<-c.unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.closed)

	c = &testCloser{unblock: make(chan struct{})}
	err = RunWithContextCloser(context.Background(), c, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, c.closed)
}
