// Package hal defines the peripherals the control core talks to.
package hal

import (
	"context"
	"time"
)

// Converter is the shared analog conversion peripheral.
// A conversion is requested on one channel at a time and the result
// must be polled for readiness before it is read.
type Converter interface {
	// StartConversion selects the input channel (0-7) and starts a conversion.
	StartConversion(channel uint8) error
	// ConversionReady reports whether the last requested conversion completed.
	ConversionReady() (bool, error)
	// ConversionResult reads the 8-bit (left-aligned) result and
	// clears the ready flag.
	ConversionResult() (uint8, error)
}

// PWMChannel selects one of the duty registers.
type PWMChannel uint8

// PWM channels of the differential drive.
const (
	PWMLeft PWMChannel = iota
	PWMRight
)

// PWM is the peripheral generating motor drive signals.
type PWM interface {
	// SetDuty writes the 8-bit compare value of a channel.
	SetDuty(ch PWMChannel, duty uint8) error
}

// Port is the output port hosting the direction nibble.
type Port interface {
	ReadPort() (byte, error)
	WritePort(byte) error
}

// Delayer blocks the caller for a fixed duration.
type Delayer interface {
	// Delay returns early only if ctx is cancelled.
	Delay(ctx context.Context, d time.Duration) error
}

// Clock provides the current time of a board.
type Clock interface {
	Now() time.Time
}

// Board bundles every peripheral used by the control core.
type Board interface {
	Converter
	PWM
	Port
	Delayer
	Clock
}

// Nominal PWM carrier of the motor drive (8-bit fast mode).
// The carrier is configured by the board firmware, hosts only
// write compare values.
const (
	BaseClockHz = 14745600
	CarrierHz   = 225
)
