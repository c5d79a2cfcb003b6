package drive

import (
	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/hal"
)

// Actuator writes direction and duty to the drive peripherals.
// Direction and duty are independent, a change of one keeps the other.
type Actuator struct {
	Port hal.Port
	PWM  hal.PWM

	state Command
}

// NewActuator creates an Actuator.
func NewActuator(port hal.Port, pwm hal.PWM) *Actuator {
	return &Actuator{Port: port, PWM: pwm}
}

// Apply sets the direction nibble, keeping the upper nibble of the port.
func (a *Actuator) Apply(d Direction) error {
	v, err := a.Port.ReadPort()
	if err != nil {
		return err
	}
	v = v&^DirectionMask | byte(d)&DirectionMask
	if err := a.Port.WritePort(v); err != nil {
		return err
	}
	a.state.Direction = d
	glog.V(3).Infof("direction %s", d)
	return nil
}

// SetDuty sets the compare values of both motors.
func (a *Actuator) SetDuty(left, right uint8) error {
	if err := a.PWM.SetDuty(hal.PWMLeft, left); err != nil {
		return err
	}
	a.state.LeftDuty = left
	if err := a.PWM.SetDuty(hal.PWMRight, right); err != nil {
		return err
	}
	a.state.RightDuty = right
	glog.V(3).Infof("duty (%d,%d)", left, right)
	return nil
}

// Execute sets duty then direction.
func (a *Actuator) Execute(cmd Command) error {
	if err := a.SetDuty(cmd.LeftDuty, cmd.RightDuty); err != nil {
		return err
	}
	return a.Apply(cmd.Direction)
}

// State returns the last output written.
func (a *Actuator) State() Command {
	return a.state
}
