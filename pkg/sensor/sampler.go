package sensor

import (
	"context"
	"runtime"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/hal"
)

// Sampler reads the sensors through the shared conversion peripheral.
// Channels are converted one at a time, never pipelined.
type Sampler struct {
	Converter hal.Converter
	// Timeout bounds the wait for a conversion, 0 waits forever.
	Timeout time.Duration
	// PollInterval is the pause between readiness polls, 0 busy-polls.
	PollInterval time.Duration
}

// NewSampler creates a Sampler.
func NewSampler(conv hal.Converter) *Sampler {
	return &Sampler{Converter: conv}
}

// Sample reads left, center and right sensors in that order.
func (s *Sampler) Sample(ctx context.Context) (r Reading, err error) {
	if r.Left, err = s.Read(ctx, ChannelLeft); err != nil {
		return
	}
	if r.Center, err = s.Read(ctx, ChannelCenter); err != nil {
		return
	}
	r.Right, err = s.Read(ctx, ChannelRight)
	return
}

// Read performs one conversion: request, poll until ready, read.
func (s *Sampler) Read(ctx context.Context, ch uint8) (uint8, error) {
	if err := s.Converter.StartConversion(ch); err != nil {
		return 0, err
	}
	var deadline time.Time
	if s.Timeout > 0 {
		deadline = time.Now().Add(s.Timeout)
	}
	for polls := 0; ; polls++ {
		ready, err := s.Converter.ConversionReady()
		if err != nil {
			return 0, err
		}
		if ready {
			if polls > 0 && glog.V(5) {
				glog.Infof("channel %d ready after %d polls", ch, polls)
			}
			return s.Converter.ConversionResult()
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return 0, &TimeoutError{Channel: ch, After: s.Timeout}
		}
		if s.PollInterval > 0 {
			time.Sleep(s.PollInterval)
		} else {
			runtime.Gosched()
		}
	}
}
