package hal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Op identifies a peripheral access recorded by Registers.
type Op int

// Recorded operations.
const (
	OpStartConversion Op = iota
	OpReadResult
	OpSetDuty
	OpWritePort
	OpDelay
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpStartConversion:
		return "adc"
	case OpReadResult:
		return "result"
	case OpSetDuty:
		return "duty"
	case OpWritePort:
		return "port"
	case OpDelay:
		return "delay"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Access is one recorded peripheral access.
type Access struct {
	Op Op
	// Channel is the ADC or PWM channel.
	Channel uint8
	// Value is the result read, the duty or the port value written.
	Value byte
	// Duration is set for OpDelay.
	Duration time.Duration
}

// String implements fmt.Stringer.
func (a Access) String() string {
	switch a.Op {
	case OpDelay:
		return fmt.Sprintf("delay(%v)", a.Duration)
	case OpWritePort:
		return fmt.Sprintf("port(%04b)", a.Value&0x0f)
	}
	return fmt.Sprintf("%s(%d,%d)", a.Op, a.Channel, a.Value)
}

// ErrNoConversion is returned when a result is read before any conversion.
var ErrNoConversion = errors.New("no conversion started")

// Registers is an in-memory Board. Analog inputs are set directly,
// every access is recorded and delays advance a virtual clock instantly.
type Registers struct {
	// ReadyAfter is the number of polls returning not-ready before
	// a conversion completes.
	ReadyAfter int
	// Stuck makes conversions never complete.
	Stuck bool
	// OnDelay is called (without the lock held) for every delay.
	OnDelay func(d time.Duration)

	inputs  [8]uint8
	duty    [2]uint8
	port    byte
	channel int
	polls   int
	ready   bool
	now     time.Time
	trace   []Access
	lock    sync.Mutex
}

// NewRegisters creates Registers with the clock at the given time.
func NewRegisters(now time.Time) *Registers {
	return &Registers{now: now, channel: -1}
}

// SetInput sets the analog value of a channel.
func (r *Registers) SetInput(ch uint8, value uint8) *Registers {
	r.lock.Lock()
	r.inputs[ch&0x07] = value
	r.lock.Unlock()
	return r
}

// SetPortValue sets the port directly without recording an access.
func (r *Registers) SetPortValue(v byte) *Registers {
	r.lock.Lock()
	r.port = v
	r.lock.Unlock()
	return r
}

// PortValue returns current port value.
func (r *Registers) PortValue() byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.port
}

// Duty returns current duty of a channel.
func (r *Registers) Duty(ch PWMChannel) uint8 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.duty[ch&1]
}

// Trace returns a copy of recorded accesses.
func (r *Registers) Trace() []Access {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Access(nil), r.trace...)
}

// Actuations returns recorded duty, port and delay accesses only.
func (r *Registers) Actuations() []Access {
	var res []Access
	for _, a := range r.Trace() {
		if a.Op == OpSetDuty || a.Op == OpWritePort || a.Op == OpDelay {
			res = append(res, a)
		}
	}
	return res
}

// ResetTrace clears recorded accesses.
func (r *Registers) ResetTrace() {
	r.lock.Lock()
	r.trace = nil
	r.lock.Unlock()
}

// StartConversion implements Converter.
func (r *Registers) StartConversion(ch uint8) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.channel, r.polls, r.ready = int(ch&0x07), 0, false
	r.trace = append(r.trace, Access{Op: OpStartConversion, Channel: ch & 0x07})
	return nil
}

// ConversionReady implements Converter.
func (r *Registers) ConversionReady() (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.channel < 0 || r.Stuck {
		return false, nil
	}
	if !r.ready {
		if r.polls >= r.ReadyAfter {
			r.ready = true
		} else {
			r.polls++
		}
	}
	return r.ready, nil
}

// ConversionResult implements Converter.
func (r *Registers) ConversionResult() (uint8, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.channel < 0 {
		return 0, ErrNoConversion
	}
	v := r.inputs[r.channel]
	r.ready = false
	r.trace = append(r.trace, Access{Op: OpReadResult, Channel: uint8(r.channel), Value: v})
	return v, nil
}

// SetDuty implements PWM.
func (r *Registers) SetDuty(ch PWMChannel, duty uint8) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.duty[ch&1] = duty
	r.trace = append(r.trace, Access{Op: OpSetDuty, Channel: uint8(ch & 1), Value: duty})
	return nil
}

// ReadPort implements Port.
func (r *Registers) ReadPort() (byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.port, nil
}

// WritePort implements Port.
func (r *Registers) WritePort(v byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.port = v
	r.trace = append(r.trace, Access{Op: OpWritePort, Value: v})
	return nil
}

// Delay implements Delayer.
func (r *Registers) Delay(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.lock.Lock()
	r.now = r.now.Add(d)
	r.trace = append(r.trace, Access{Op: OpDelay, Duration: d})
	fn := r.OnDelay
	r.lock.Unlock()
	if fn != nil {
		fn(d)
	}
	return nil
}

// Advance moves the virtual clock forward.
func (r *Registers) Advance(d time.Duration) {
	r.lock.Lock()
	r.now = r.now.Add(d)
	r.lock.Unlock()
}

// Now implements Clock.
func (r *Registers) Now() time.Time {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.now
}
