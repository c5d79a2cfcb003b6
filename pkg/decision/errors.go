package decision

import (
	"errors"
	"fmt"

	"github.com/robotalks/linebot/pkg/sensor"
)

// UnhandledPatternError is returned when no rule matches a line state.
// Nothing is actuated, the previous output persists.
type UnhandledPatternError struct {
	State sensor.LineState
}

// Error implements error.
func (e *UnhandledPatternError) Error() string {
	return fmt.Sprintf("unhandled sensor pattern %s (%03b)", e.State, e.State.Pattern())
}

// IsUnhandled checks if err is caused by an unhandled pattern.
func IsUnhandled(err error) bool {
	var e *UnhandledPatternError
	return errors.As(err, &e)
}
