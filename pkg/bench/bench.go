// Package bench exercises the sensors, the drive and the decision table
// by hand.
package bench

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/linebot/pkg/decision"
	"github.com/robotalks/linebot/pkg/drive"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Bench wraps a board with the control components.
type Bench struct {
	Board      hal.Board
	Sampler    *sensor.Sampler
	Classifier sensor.Classifier
	Actuator   *drive.Actuator
	Engine     *decision.Engine
}

// New creates a Bench on board.
func New(board hal.Board, classifier sensor.Classifier) *Bench {
	b := &Bench{
		Board:      board,
		Sampler:    sensor.NewSampler(board),
		Classifier: classifier,
		Actuator:   drive.NewActuator(board, board),
	}
	b.Engine = decision.NewEngine(b.Actuator, b.Sampler, classifier, board)
	return b
}

// Sample reads and classifies the sensors.
func (b *Bench) Sample(ctx context.Context) (sensor.Reading, sensor.LineState, error) {
	r, err := b.Sampler.Sample(ctx)
	if err != nil {
		return r, sensor.LineState{}, err
	}
	return r, b.Classifier.Classify(r), nil
}

// Read converts a single channel.
func (b *Bench) Read(ctx context.Context, ch uint8) (uint8, error) {
	if ch > 7 {
		return 0, fmt.Errorf("invalid channel %d", ch)
	}
	return b.Sampler.Read(ctx, ch)
}

// Drive applies a direction by name.
func (b *Bench) Drive(name string) error {
	d, err := drive.ParseDirection(name)
	if err != nil {
		return err
	}
	return b.Actuator.Apply(d)
}

// Stop stops both motors.
func (b *Bench) Stop() error {
	if err := b.Actuator.Apply(drive.Stop); err != nil {
		return err
	}
	return b.Actuator.SetDuty(0, 0)
}

// Step runs one live iteration on the board.
func (b *Bench) Step(ctx context.Context) (sensor.Reading, decision.Outcome, error) {
	r, s, err := b.Sample(ctx)
	if err != nil {
		return r, decision.Outcome{}, err
	}
	out, err := b.Engine.Decide(ctx, s)
	return r, out, err
}

// Status reads the direction port.
func (b *Bench) Status() (drive.Command, byte, error) {
	v, err := b.Board.ReadPort()
	return b.Actuator.State(), v, err
}

// DryRun evaluates the table for state on in-memory registers, the
// recovery recheck sees recheck. It returns what the board would be
// asked to do.
func DryRun(state, recheck sensor.LineState) (decision.Outcome, []hal.Access, error) {
	regs := hal.NewRegisters(time.Time{})
	setReadings(regs, recheck)
	engine := decision.NewEngine(drive.NewActuator(regs, regs), sensor.NewSampler(regs), sensor.NewClassifier(), regs)
	out, err := engine.Decide(context.Background(), state)
	return out, regs.Actuations(), err
}

func setReadings(regs *hal.Registers, s sensor.LineState) {
	value := func(on bool) uint8 {
		if on {
			return 0
		}
		return 0xff
	}
	regs.SetInput(sensor.ChannelLeft, value(s.Left)).
		SetInput(sensor.ChannelCenter, value(s.Center)).
		SetInput(sensor.ChannelRight, value(s.Right))
}

// ParseState parses a line state as "on,off,on", "1 0 1" or "101",
// left first.
func ParseState(args ...string) (sensor.LineState, error) {
	joined := strings.Join(args, ",")
	var tokens []string
	if len(args) == 1 && len(joined) == 3 && strings.Trim(joined, "01") == "" {
		tokens = strings.Split(joined, "")
	} else {
		tokens = strings.FieldsFunc(joined, func(r rune) bool { return r == ',' || r == ' ' })
	}
	if len(tokens) != 3 {
		return sensor.LineState{}, fmt.Errorf("3 sensor states expected: %q", joined)
	}
	var on [3]bool
	for n, tok := range tokens {
		switch strings.ToLower(tok) {
		case "on", "1":
			on[n] = true
		case "off", "0":
		default:
			return sensor.LineState{}, fmt.Errorf("invalid sensor state %q", tok)
		}
	}
	return sensor.State(on[0], on[1], on[2]), nil
}
