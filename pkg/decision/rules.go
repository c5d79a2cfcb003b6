// Package decision maps sensor line states to motion commands.
package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/linebot/pkg/drive"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Rule identifies an entry of the decision table, numbered by priority.
type Rule int

// Rules in priority order.
const (
	RuleNone Rule = iota
	RuleEndOfCourse
	RuleReacquire
	RuleStraight
	RuleDriftLeft
	RuleDriftRight
	RuleSharpRight
	RuleSharpLeft
)

var ruleNames = [...]string{
	RuleNone:        "none",
	RuleEndOfCourse: "end-of-course",
	RuleReacquire:   "reacquire",
	RuleStraight:    "straight",
	RuleDriftLeft:   "drift-left",
	RuleDriftRight:  "drift-right",
	RuleSharpRight:  "sharp-right",
	RuleSharpLeft:   "sharp-left",
}

// String implements fmt.Stringer.
func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// StepKind is the kind of a Step.
type StepKind int

// Step kinds.
const (
	StepDuty StepKind = iota
	StepDirection
	StepDelay
)

// Step is one actuator call or delay issued by a rule.
type Step struct {
	Kind      StepKind
	Direction drive.Direction
	Left      uint8
	Right     uint8
	Delay     time.Duration
}

// String implements fmt.Stringer.
func (s Step) String() string {
	switch s.Kind {
	case StepDuty:
		return fmt.Sprintf("duty(%d,%d)", s.Left, s.Right)
	case StepDirection:
		return s.Direction.String()
	case StepDelay:
		return fmt.Sprintf("delay(%v)", s.Delay)
	}
	return "?"
}

// Duty creates a duty step.
func Duty(left, right uint8) Step {
	return Step{Kind: StepDuty, Left: left, Right: right}
}

// Move creates a direction step.
func Move(d drive.Direction) Step {
	return Step{Kind: StepDirection, Direction: d}
}

// Hold creates a delay step.
func Hold(d time.Duration) Step {
	return Step{Kind: StepDelay, Delay: d}
}

// Delays used by the table.
const (
	RecoverBackDelay = 350 * time.Millisecond
	EndOfCourseDelay = 500 * time.Millisecond
	ReacquireDelay   = 250 * time.Millisecond
)

// RuleSpec is an entry of the decision table.
type RuleSpec struct {
	Rule Rule
	// When is the exact line state the rule matches.
	When sensor.LineState
	// Steps are issued in order when the rule matches.
	Steps []Step
	// Recheck re-samples after Steps. If the state still matches,
	// Confirm is issued, otherwise the pass ends with the output of
	// Steps left applied.
	Recheck bool
	Confirm []Step
}

// Matches reports whether the rule matches a line state.
func (r *RuleSpec) Matches(s sensor.LineState) bool {
	return r.When == s
}

// String implements fmt.Stringer.
func (r *RuleSpec) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %-13s %-11s", int(r.Rule), r.Rule, r.When)
	for n, s := range r.Steps {
		if n > 0 {
			sb.WriteString(", ")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(s.String())
	}
	if r.Recheck {
		sb.WriteString(", recheck then")
		for _, s := range r.Confirm {
			sb.WriteString(" " + s.String())
		}
	}
	return sb.String()
}

var table = []RuleSpec{
	{
		Rule:    RuleEndOfCourse,
		When:    sensor.State(true, true, true),
		Steps:   []Step{Duty(100, 100), Move(drive.Back), Hold(RecoverBackDelay)},
		Recheck: true,
		Confirm: []Step{Move(drive.Stop), Hold(EndOfCourseDelay)},
	},
	{
		Rule:  RuleReacquire,
		When:  sensor.State(false, false, false),
		Steps: []Step{Move(drive.Stop), Hold(ReacquireDelay), Move(drive.Forward)},
	},
	{
		Rule:  RuleStraight,
		When:  sensor.State(false, true, false),
		Steps: []Step{Duty(100, 100), Move(drive.Forward)},
	},
	{
		Rule:  RuleDriftLeft,
		When:  sensor.State(true, true, false),
		Steps: []Step{Move(drive.SoftLeft), Move(drive.Forward), Duty(0, 150)},
	},
	{
		Rule:  RuleDriftRight,
		When:  sensor.State(false, true, true),
		Steps: []Step{Move(drive.SoftRight), Move(drive.Forward), Duty(150, 0)},
	},
	{
		Rule:  RuleSharpRight,
		When:  sensor.State(false, false, true),
		Steps: []Step{Move(drive.Right), Move(drive.Forward), Duty(130, 50)},
	},
	{
		Rule:  RuleSharpLeft,
		When:  sensor.State(true, false, false),
		Steps: []Step{Move(drive.Left), Move(drive.Forward), Duty(50, 130)},
	},
}

// Rules returns a copy of the decision table in priority order.
func Rules() []RuleSpec {
	return append([]RuleSpec(nil), table...)
}

// firstMatch finds the first rule matching s, -1 if none.
func firstMatch(rules []RuleSpec, s sensor.LineState) int {
	for i := range rules {
		if rules[i].Matches(s) {
			return i
		}
	}
	return -1
}

// Actuator is the motion output used by rules.
type Actuator interface {
	Apply(drive.Direction) error
	SetDuty(left, right uint8) error
	State() drive.Command
}

func actuate(a Actuator, s Step) error {
	switch s.Kind {
	case StepDuty:
		return a.SetDuty(s.Left, s.Right)
	case StepDirection:
		return a.Apply(s.Direction)
	}
	return nil
}

// Outcome describes one decision pass.
type Outcome struct {
	// State is the classification the pass started with.
	State sensor.LineState
	// Rule is the rule that fired, RuleNone if no rule matched.
	Rule Rule
	// Rechecked is set when the recovery recheck ran.
	Rechecked bool
	// Recheck is the re-sampled state, valid if Rechecked.
	Recheck sensor.LineState
	// Pending is set by Machine while a timed sub-state holds.
	Pending bool
	// Command is the actuator output after the pass.
	Command drive.Command
}

// Stats counts fired rules.
type Stats struct {
	Fired     [len(ruleNames)]uint64
	Unhandled uint64
}

func (s *Stats) record(r Rule) {
	if r == RuleNone {
		s.Unhandled++
	} else {
		s.Fired[r]++
	}
}
