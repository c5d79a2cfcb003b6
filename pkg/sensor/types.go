// Package sensor samples the reflectance sensors and classifies readings.
package sensor

import "fmt"

// Channels of the conversion peripheral wired to the sensors.
const (
	ChannelRight  uint8 = 1
	ChannelCenter uint8 = 2
	ChannelLeft   uint8 = 3
)

// DefaultThreshold is the reading at or below which a sensor is on the line.
const DefaultThreshold uint8 = 0x10

// Reading holds raw values of the three sensors for one iteration.
type Reading struct {
	Left   uint8
	Center uint8
	Right  uint8
}

// String implements fmt.Stringer.
func (r Reading) String() string {
	return fmt.Sprintf("L=%d C=%d R=%d", r.Left, r.Center, r.Right)
}

// LineState is the on-line classification of the three sensors.
type LineState struct {
	Left   bool
	Center bool
	Right  bool
}

// State builds a LineState, mostly for tables.
func State(left, center, right bool) LineState {
	return LineState{Left: left, Center: center, Right: right}
}

// Pattern packs the state as 3 bits: left=4, center=2, right=1.
func (s LineState) Pattern() uint8 {
	var p uint8
	if s.Left {
		p |= 4
	}
	if s.Center {
		p |= 2
	}
	if s.Right {
		p |= 1
	}
	return p
}

// AllOn reports all three sensors on the line.
func (s LineState) AllOn() bool {
	return s.Left && s.Center && s.Right
}

// AllOff reports all three sensors off the line.
func (s LineState) AllOff() bool {
	return !s.Left && !s.Center && !s.Right
}

// String renders the state as e.g. "on,off,on".
func (s LineState) String() string {
	return onOff(s.Left) + "," + onOff(s.Center) + "," + onOff(s.Right)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// Classifier compares readings against a single threshold.
type Classifier struct {
	Threshold uint8
}

// NewClassifier creates a Classifier with DefaultThreshold.
func NewClassifier() Classifier {
	return Classifier{Threshold: DefaultThreshold}
}

// OnLine reports whether a raw value is on the line.
func (c Classifier) OnLine(v uint8) bool {
	return v <= c.Threshold
}

// Classify classifies all three readings.
func (c Classifier) Classify(r Reading) LineState {
	return LineState{
		Left:   c.OnLine(r.Left),
		Center: c.OnLine(r.Center),
		Right:  c.OnLine(r.Right),
	}
}
