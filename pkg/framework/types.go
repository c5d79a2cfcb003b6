package framework

import (
	"context"
	"time"
)

// Runnable is a background activity stopped by cancelling its context.
type Runnable interface {
	Run(context.Context) error
}

// Named gives a Runnable a name in logs.
type Named interface {
	Name() string
}

// Controller runs once per loop iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource stamps iterations. A simulated board provides its own.
type TimeSource interface {
	Now() time.Time
}

// ControlContext is passed to controllers within one iteration.
type ControlContext interface {
	// Context is done when the loop stops.
	Context() context.Context
	// Time is when the iteration started, from the loop's TimeSource.
	Time() time.Time
	// Iteration numbers iterations from 1.
	Iteration() uint64
	// PriorityLevel of the controller being run.
	PriorityLevel() int
	// TriggerNext runs the next iteration right after this one instead
	// of waiting for the interval.
	TriggerNext()
}

// PriorityLevels is the number of levels, run from 0 up.
const PriorityLevels = 8

// Priority levels of an iteration.
const (
	// PrLvSense reads inputs.
	PrLvSense = 1
	// PrLvControl decides.
	PrLvControl = 3
	// PrLvActuate writes outputs.
	PrLvActuate = 5
	// PrLvPostProc reports on the finished iteration.
	PrLvPostProc = PriorityLevels - 1
)
