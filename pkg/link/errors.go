package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReply indicates no reply received from the board.
	// This happens on timeout, or when a reply is received for a later
	// request, and all previous requests fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrClosed is returned for requests after the link stopped.
	ErrClosed = errors.New("link closed")
)

// CommandError is a failure reported by the board.
type CommandError struct {
	Code byte
	// Reason is the error byte from the board, 0 if not given.
	Reason byte
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command 0x%02x error %d", e.Code, e.Reason)
}
