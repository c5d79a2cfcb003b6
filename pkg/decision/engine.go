package decision

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Sampler re-samples the sensors for the recovery recheck.
type Sampler interface {
	Sample(context.Context) (sensor.Reading, error)
}

// Engine evaluates the decision table with blocking delays.
type Engine struct {
	Actuator   Actuator
	Sampler    Sampler
	Classifier sensor.Classifier
	Delayer    hal.Delayer

	rules []RuleSpec
	stats Stats
}

// NewEngine creates an Engine using the standard table.
func NewEngine(a Actuator, s Sampler, c sensor.Classifier, d hal.Delayer) *Engine {
	return &Engine{
		Actuator:   a,
		Sampler:    s,
		Classifier: c,
		Delayer:    d,
		rules:      table,
	}
}

// Stats returns the counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Decide runs one pass over the table; the first matching rule wins and
// no other rule fires in the same pass. Delays block the caller. When the
// recovery recheck no longer sees all sensors on the line, the pass ends
// with the recovery output still applied.
func (e *Engine) Decide(ctx context.Context, state sensor.LineState) (out Outcome, err error) {
	out.State = state
	defer func() {
		out.Command = e.Actuator.State()
	}()
	i := firstMatch(e.rules, state)
	if i < 0 {
		e.stats.record(RuleNone)
		err = &UnhandledPatternError{State: state}
		return
	}
	r := &e.rules[i]
	out.Rule = r.Rule
	e.stats.record(r.Rule)
	if err = e.run(ctx, r.Steps); err != nil || !r.Recheck {
		return
	}
	var reading sensor.Reading
	if reading, err = e.Sampler.Sample(ctx); err != nil {
		return
	}
	out.Rechecked, out.Recheck = true, e.Classifier.Classify(reading)
	if r.Matches(out.Recheck) {
		err = e.run(ctx, r.Confirm)
		return
	}
	glog.V(2).Infof("recheck %s (%s), %s output kept", out.Recheck, reading, r.Rule)
	return
}

func (e *Engine) run(ctx context.Context, steps []Step) error {
	for _, s := range steps {
		var err error
		if s.Kind == StepDelay {
			err = e.Delayer.Delay(ctx, s.Delay)
		} else {
			err = actuate(e.Actuator, s)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
