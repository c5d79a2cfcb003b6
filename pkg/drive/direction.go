// Package drive controls the differential two-motor drive.
package drive

import "fmt"

// Direction is the 4-bit code written to the direction port.
// Bit 0: left backward, bit 1: left forward,
// bit 2: right forward, bit 3: right backward.
type Direction byte

// Directions.
const (
	Stop      Direction = 0x00
	Forward   Direction = 0x06
	Left      Direction = 0x05
	Right     Direction = 0x0a
	SoftRight Direction = 0x02
	SoftLeft  Direction = 0x04
	Back      Direction = 0x09
)

// DirectionMask selects the direction nibble of the port.
const DirectionMask byte = 0x0f

var directionNames = map[Direction]string{
	Stop:      "stop",
	Forward:   "forward",
	Left:      "left",
	Right:     "right",
	SoftRight: "soft_right",
	SoftLeft:  "soft_left",
	Back:      "back",
}

// Directions lists all named directions.
var Directions = []Direction{Stop, Forward, Left, Right, SoftLeft, SoftRight, Back}

// String implements fmt.Stringer.
func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dir(%04b)", byte(d)&DirectionMask)
}

// ParseDirection converts a name into Direction.
func ParseDirection(name string) (Direction, error) {
	for d, n := range directionNames {
		if n == name {
			return d, nil
		}
	}
	return Stop, fmt.Errorf("unknown direction %q", name)
}

// Wheels returns the drive sign of each wheel: 1 forward, -1 backward, 0 idle.
func (d Direction) Wheels() (left, right int) {
	b := byte(d)
	left = int(b>>1&1) - int(b&1)
	right = int(b>>2&1) - int(b>>3&1)
	return
}

// Command is a direction with the duty of both motors.
type Command struct {
	Direction Direction
	LeftDuty  uint8
	RightDuty uint8
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return fmt.Sprintf("%s@(%d,%d)", c.Direction, c.LeftDuty, c.RightDuty)
}
