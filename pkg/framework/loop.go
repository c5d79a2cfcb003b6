package framework

import (
	"context"
	"log"
	"time"

	"github.com/golang/glog"
)

// Loop runs controllers in priority order, one iteration at a time.
// All controllers run on the goroutine calling Run.
type Loop struct {
	// Interval between iterations, 0 runs iterations back-to-back.
	Interval time.Duration
	// Clock stamps iterations, defaults to wall clock.
	Clock TimeSource

	controllers [PriorityLevels][]Controller
	runners     []Runnable
	iteration   uint64

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	seq           uint64
	priorityLevel int
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewLoop creates a free-running Loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions started along with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Iterations returns the number of iterations started.
func (l *Loop) Iterations() uint64 {
	return l.iteration
}

// Run implements Runnable. It returns when ctx is done or any of the
// runnables stops, with the runnables' errors if there are any.
func (l *Loop) Run(ctx context.Context) (err error) {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	if l.Clock == nil {
		l.Clock = wallClock{}
	}

	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer func() {
		if werr := runner.Wait(); werr != nil {
			err = werr
		}
	}()
	ctx = runner.Context

	if l.Interval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				l.runIteration(ctx)
			}
		}
	}

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runIteration(ctx)
		case <-l.wakeUpCh:
			l.runIteration(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// TriggerNext runs the next iteration without waiting for the interval.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	l.iteration++
	iter := &loopIteration{Loop: l, ctx: ctx, time: l.Clock.Now(), seq: l.iteration}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, ctl := range l.controllers[i] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Iteration() uint64 {
	return t.seq
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}
