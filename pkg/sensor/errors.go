package sensor

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches any TimeoutError with errors.Is.
var ErrTimeout = errors.New("sensor timeout")

// TimeoutError indicates the conversion peripheral never signaled ready.
type TimeoutError struct {
	Channel uint8
	After   time.Duration
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sensor timeout: channel %d not ready after %v", e.Channel, e.After)
}

// Is implements errors.Is.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
