package decision

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/sensor"
)

// MachineState is the timed sub-state of a Machine.
type MachineState int

// Machine states.
const (
	StateNormal MachineState = iota
	// StateRecovering backs up before the end-of-course recheck.
	StateRecovering
	// StateHolding is the stop after a confirmed end of course.
	StateHolding
	// StateReacquiring is the stop before driving forward again.
	StateReacquiring
)

// String implements fmt.Stringer.
func (s MachineState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateRecovering:
		return "recovering"
	case StateHolding:
		return "holding"
	case StateReacquiring:
		return "reacquiring"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Machine evaluates the decision table without blocking. A delay step
// suspends the rule until the clock passes its deadline, the caller keeps
// sampling and stepping meanwhile. The sample of the step where the back-up
// delay expires serves as the recovery recheck.
type Machine struct {
	Actuator Actuator

	rules   []RuleSpec
	pending *pending
	stats   Stats
}

type pending struct {
	index    int
	rest     []Step
	deadline time.Time
	recheck  bool
}

// NewMachine creates a Machine using the standard table.
func NewMachine(a Actuator) *Machine {
	return &Machine{Actuator: a, rules: table}
}

// State returns the current sub-state.
func (m *Machine) State() MachineState {
	p := m.pending
	switch {
	case p == nil:
		return StateNormal
	case p.recheck:
		return StateRecovering
	case m.rules[p.index].Rule == RuleEndOfCourse:
		return StateHolding
	}
	return StateReacquiring
}

// Stats returns the counters.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Step advances the machine with a fresh classification at time now.
// At most one rule fires per step; completing a suspended rule counts
// as that rule.
func (m *Machine) Step(now time.Time, state sensor.LineState) (out Outcome, err error) {
	out.State = state
	defer func() {
		out.Pending = m.pending != nil
		out.Command = m.Actuator.State()
	}()

	if p := m.pending; p != nil {
		r := &m.rules[p.index]
		out.Rule = r.Rule
		if now.Before(p.deadline) {
			return
		}
		m.pending = nil
		if !p.recheck {
			err = m.run(now, p.index, p.rest, false)
			return
		}
		out.Rechecked, out.Recheck = true, state
		m.stats.record(r.Rule)
		if r.Matches(state) {
			err = m.run(now, p.index, r.Confirm, false)
			return
		}
		glog.V(2).Infof("recheck %s, %s output kept", state, r.Rule)
		return
	}

	i := firstMatch(m.rules, state)
	if i < 0 {
		m.stats.record(RuleNone)
		err = &UnhandledPatternError{State: state}
		return
	}
	r := &m.rules[i]
	out.Rule = r.Rule
	if !r.Recheck {
		m.stats.record(r.Rule)
	}
	err = m.run(now, i, r.Steps, r.Recheck)
	return
}

// run issues steps until the first delay, which suspends the rest.
func (m *Machine) run(now time.Time, index int, steps []Step, recheck bool) error {
	for n, s := range steps {
		if s.Kind == StepDelay {
			m.pending = &pending{
				index:    index,
				rest:     steps[n+1:],
				deadline: now.Add(s.Delay),
				recheck:  recheck,
			}
			return nil
		}
		if err := actuate(m.Actuator, s); err != nil {
			return err
		}
	}
	if recheck {
		m.pending = &pending{index: index, deadline: now, recheck: true}
	}
	return nil
}
