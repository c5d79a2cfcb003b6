// Package display renders debug output on a character display.
package display

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Sink is a row/column addressed character display.
// Rows and columns start from 1.
type Sink interface {
	// PrintValue prints value with exactly digits digits, zero padded,
	// keeping the lowest digits if value is larger.
	PrintValue(row, col int, value uint, digits int) error
	// PrintString prints s, truncated at the end of the row.
	PrintString(row, col int, s string) error
	// Flush makes the content visible.
	Flush() error
}

// Size of the LCD module.
const (
	Rows    = 2
	Columns = 16
)

// ErrOutOfRange indicates the position is outside of the display.
var ErrOutOfRange = errors.New("position out of range")

// LCD is an in-memory 2x16 character display, rendered to a writer
// on Flush when the content changed.
type LCD struct {
	Writer io.Writer

	lock     sync.Mutex
	cells    [Rows][Columns]byte
	rendered [Rows][Columns]byte
	flushed  bool
}

// NewLCD creates a blank LCD.
func NewLCD(w io.Writer) *LCD {
	d := &LCD{Writer: w}
	d.Clear()
	return d
}

// Clear blanks the display.
func (d *LCD) Clear() {
	d.lock.Lock()
	for r := range d.cells {
		for c := range d.cells[r] {
			d.cells[r][c] = ' '
		}
	}
	d.lock.Unlock()
}

// PrintValue implements Sink.
func (d *LCD) PrintValue(row, col int, value uint, digits int) error {
	if digits <= 0 {
		return fmt.Errorf("invalid digits %d", digits)
	}
	s := fmt.Sprintf("%0*d", digits, value)
	return d.PrintString(row, col, s[len(s)-digits:])
}

// PrintString implements Sink.
func (d *LCD) PrintString(row, col int, s string) error {
	if row < 1 || row > Rows || col < 1 || col > Columns {
		return ErrOutOfRange
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	for n := 0; n < len(s) && col-1+n < Columns; n++ {
		ch := s[n]
		if ch < 0x20 || ch > 0x7e {
			ch = '?'
		}
		d.cells[row-1][col-1+n] = ch
	}
	return nil
}

// Line returns the content of a row.
func (d *LCD) Line(row int) string {
	if row < 1 || row > Rows {
		return ""
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	return string(d.cells[row-1][:])
}

// String implements fmt.Stringer.
func (d *LCD) String() string {
	return d.Line(1) + "\n" + d.Line(2)
}

// Flush implements Sink.
func (d *LCD) Flush() error {
	d.lock.Lock()
	if d.flushed && d.cells == d.rendered {
		d.lock.Unlock()
		return nil
	}
	d.rendered, d.flushed = d.cells, true
	var buf bytes.Buffer
	for r := range d.rendered {
		buf.WriteString("|")
		buf.Write(d.rendered[r][:])
		buf.WriteString("|\n")
	}
	d.lock.Unlock()
	if d.Writer == nil {
		return nil
	}
	_, err := d.Writer.Write(buf.Bytes())
	return err
}

// LogWriter writes each line to glog at verbosity Level.
type LogWriter struct {
	Level glog.Level
}

// Write implements io.Writer.
func (w LogWriter) Write(p []byte) (int, error) {
	if glog.V(w.Level) {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			glog.Info("lcd ", line)
		}
	}
	return len(p), nil
}

// Discard is a Sink showing nothing.
type Discard struct{}

// PrintValue implements Sink.
func (Discard) PrintValue(int, int, uint, int) error { return nil }

// PrintString implements Sink.
func (Discard) PrintString(int, int, string) error { return nil }

// Flush implements Sink.
func (Discard) Flush() error { return nil }
