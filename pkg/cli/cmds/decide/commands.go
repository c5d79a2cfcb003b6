package decide

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linebot/pkg/bench"
	"github.com/robotalks/linebot/pkg/cli/sh"
	"github.com/robotalks/linebot/pkg/decision"
	"github.com/robotalks/linebot/pkg/sensor"
	"github.com/robotalks/linebot/pkg/sim"
)

type outcomeResult struct {
	Rule    string
	Command string
	Steps   []string        `json:",omitempty"`
	Reading *sensor.Reading `json:",omitempty"`
}

func formatOutcome(out decision.Outcome) string {
	text := fmt.Sprintf("%s -> %s %s", out.State, out.Rule, out.Command)
	if out.Rechecked {
		text += fmt.Sprintf(" (recheck %s)", out.Recheck)
	}
	return text
}

var (
	// RulesCmd prints the decision table.
	RulesCmd = ishell.Cmd{
		Name: "rules",
		Help: "",
		Func: func(c *ishell.Context) {
			rules := decision.Rules()
			lines := make([]string, len(rules))
			for n := range rules {
				lines[n] = rules[n].String()
			}
			if sh.ShellFrom(c).OutputJSON {
				sh.Print(c, lines, "")
				return
			}
			for _, l := range lines {
				c.Println(l)
			}
		},
	}

	// DecideCmd evaluates the table without touching the board.
	DecideCmd = ishell.Cmd{
		Name:    "decide",
		Aliases: []string{"dry"},
		Help:    "LEFT CENTER RIGHT [RECHECK_LEFT RECHECK_CENTER RECHECK_RIGHT], on/off or 1/0",
		Func: func(c *ishell.Context) {
			var state, recheck sensor.LineState
			var err error
			switch {
			case len(c.Args) == 1:
				state, err = bench.ParseState(c.Args...)
				recheck = state
			case len(c.Args) == 2:
				if state, err = bench.ParseState(c.Args[0]); err == nil {
					recheck, err = bench.ParseState(c.Args[1])
				}
			case len(c.Args) == 3:
				state, err = bench.ParseState(c.Args...)
				recheck = state
			case len(c.Args) == 6:
				if state, err = bench.ParseState(c.Args[:3]...); err == nil {
					recheck, err = bench.ParseState(c.Args[3:]...)
				}
			default:
				err = fmt.Errorf("sensor states required")
			}
			if err != nil {
				c.Err(err)
				return
			}
			out, accesses, err := bench.DryRun(state, recheck)
			if err != nil {
				c.Err(err)
				return
			}
			steps := make([]string, len(accesses))
			for n, a := range accesses {
				steps[n] = a.String()
			}
			sh.Print(c, outcomeResult{
				Rule:    out.Rule.String(),
				Command: out.Command.String(),
				Steps:   steps,
			}, formatOutcome(out)+"\n  "+strings.Join(steps, " "))
		},
	}

	// StepCmd runs one live iteration on the board.
	StepCmd = ishell.Cmd{
		Name:    "step",
		Aliases: []string{"n"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			r, out, err := s.Bench.Step(s.Context())
			if err != nil && !decision.IsUnhandled(err) {
				c.Err(err)
				return
			}
			text := fmt.Sprintf("%s %s", r, formatOutcome(out))
			if err != nil {
				text += ": " + err.Error()
			}
			sh.Print(c, outcomeResult{
				Rule:    out.Rule.String(),
				Command: out.Command.String(),
				Reading: &r,
			}, text)
		}),
	}

	// PoseCmd shows or sets the simulated bot pose.
	PoseCmd = ishell.Cmd{
		Name: "pose",
		Help: "[X Y HEADING(degrees)]",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if s.Backend == nil || s.Backend.Bot == nil {
				c.Err(fmt.Errorf("not a simulated board"))
				return
			}
			bot := s.Backend.Bot
			if len(c.Args) >= 3 {
				var x, y, heading float64
				if _, err := fmt.Sscan(strings.Join(c.Args[:3], " "), &x, &y, &heading); err != nil {
					c.Err(fmt.Errorf("Invalid pose: %v", err))
					return
				}
				bot.SetPose(sim.Pose2D{
					Pos2D:       sim.Pos2D{X: x, Y: y},
					Orientation: sim.AngleFromDegrees(heading),
				})
			}
			pose := bot.Pose()
			sh.Print(c, map[string]float64{
				"x":       pose.X,
				"y":       pose.Y,
				"heading": pose.Orientation.Degrees(),
			}, fmt.Sprintf("(%.1f, %.1f) %.1f° odometer %.1fmm end-pad=%v",
				pose.X, pose.Y, pose.Orientation.Degrees(), bot.Odometer(), bot.OnEndPad()))
		},
	}
)

func init() {
	sh.AddCmds(
		&RulesCmd,
		&DecideCmd,
		&StepCmd,
		&PoseCmd,
	)
}
