// Package control runs the line following loop.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/decision"
	"github.com/robotalks/linebot/pkg/display"
	"github.com/robotalks/linebot/pkg/drive"
	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Mode selects how the decision table is evaluated.
type Mode int

// Modes.
const (
	// Blocking runs delays inline, the loop stalls during them.
	Blocking Mode = iota
	// Timed evaluates delays against the board clock, sampling continues.
	Timed
)

// ParseMode converts a mode name.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "blocking":
		return Blocking, nil
	case "timed":
		return Timed, nil
	}
	return Blocking, fmt.Errorf("unknown control mode %q", name)
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Timed {
		return "timed"
	}
	return "blocking"
}

// Display positions of the readings, as the firmware prints them.
const (
	readingRow   = 1
	leftCol      = 1
	centerCol    = 5
	rightCol     = 9
	readingWidth = 3
	bannerRow    = 2
	bannerCol    = 1
)

// Stats are the counters of a Controller.
type Stats struct {
	Iterations uint64
	// Timeouts counts iterations abandoned on sensor timeout.
	Timeouts uint64
	// Faults counts iterations failed on other errors.
	Faults    uint64
	Decisions decision.Stats
	Last      decision.Outcome
	Reading   sensor.Reading
}

// Controller samples, decides and actuates once per loop iteration.
type Controller struct {
	Sampler    *sensor.Sampler
	Classifier sensor.Classifier
	Actuator   *drive.Actuator
	Display    display.Sink
	Banner     string

	mode    Mode
	clock   hal.Clock
	engine  *decision.Engine
	machine *decision.Machine

	lock  sync.Mutex
	stats Stats
}

// New creates a Controller driving board.
func New(board hal.Board, classifier sensor.Classifier, mode Mode) *Controller {
	c := &Controller{
		Sampler:    sensor.NewSampler(board),
		Classifier: classifier,
		Actuator:   drive.NewActuator(board, board),
		Display:    display.Discard{},
		mode:       mode,
		clock:      board,
	}
	switch mode {
	case Timed:
		c.machine = decision.NewMachine(c.Actuator)
	default:
		c.engine = decision.NewEngine(c.Actuator, c.Sampler, classifier, board)
	}
	return c
}

// Mode returns the evaluation mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, c)
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// iteration is the state of a single pass, never kept across passes.
type iteration struct {
	seq     uint64
	reading sensor.Reading
	state   sensor.LineState
	out     decision.Outcome
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	ctx := cc.Context()
	it := iteration{seq: cc.Iteration()}
	c.count(func(s *Stats) { s.Iterations++ })

	var err error
	if it.reading, err = c.Sampler.Sample(ctx); err != nil {
		return c.fault(ctx, &it, err)
	}
	it.state = c.Classifier.Classify(it.reading)
	c.show(it.reading)

	if c.machine != nil {
		it.out, err = c.machine.Step(c.clock.Now(), it.state)
	} else {
		it.out, err = c.engine.Decide(ctx, it.state)
	}
	c.count(func(s *Stats) {
		s.Last, s.Reading = it.out, it.reading
		s.Decisions = c.decisionStats()
	})
	if err != nil {
		if decision.IsUnhandled(err) {
			glog.Warningf("#%d %s: %v, output kept %s", it.seq, it.reading, err, it.out.Command)
			return nil
		}
		return c.fault(ctx, &it, err)
	}
	if glog.V(3) {
		glog.Infof("#%d %s %s -> %s %s", it.seq, it.reading, it.state, it.out.Rule, it.out.Command)
	}
	if it.out.Pending {
		cc.TriggerNext()
	}
	return nil
}

// Stop stops both motors.
func (c *Controller) Stop() error {
	var errs fx.AggregatedError
	errs.Add(c.Actuator.Apply(drive.Stop), c.Actuator.SetDuty(0, 0))
	return errs.Aggregate()
}

func (c *Controller) fault(ctx context.Context, it *iteration, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, sensor.ErrTimeout) {
		c.count(func(s *Stats) { s.Timeouts++ })
		glog.Warningf("#%d %v, motors stopped", it.seq, err)
		if serr := c.Actuator.Apply(drive.Stop); serr != nil {
			glog.Errorf("stop motors: %v", serr)
		}
		return nil
	}
	c.count(func(s *Stats) { s.Faults++ })
	if serr := c.Actuator.Apply(drive.Stop); serr != nil {
		glog.V(1).Infof("stop motors: %v", serr)
	}
	return fmt.Errorf("iteration %d: %w", it.seq, err)
}

func (c *Controller) show(r sensor.Reading) {
	var errs fx.AggregatedError
	errs.Add(
		c.Display.PrintValue(readingRow, leftCol, uint(r.Left), readingWidth),
		c.Display.PrintValue(readingRow, centerCol, uint(r.Center), readingWidth),
		c.Display.PrintValue(readingRow, rightCol, uint(r.Right), readingWidth),
	)
	if c.Banner != "" {
		errs.Add(c.Display.PrintString(bannerRow, bannerCol, c.Banner))
	}
	errs.Add(c.Display.Flush())
	if err := errs.Aggregate(); err != nil {
		glog.V(2).Infof("display: %v", err)
	}
}

func (c *Controller) decisionStats() decision.Stats {
	if c.machine != nil {
		return c.machine.Stats()
	}
	return c.engine.Stats()
}

func (c *Controller) count(fn func(*Stats)) {
	c.lock.Lock()
	fn(&c.stats)
	c.lock.Unlock()
}
