package hal

import (
	"context"
	"time"
)

// SystemClock uses wall clock time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleeper implements Delayer with a timer.
type Sleeper struct{}

// Delay implements Delayer.
func (Sleeper) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
