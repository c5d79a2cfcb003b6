package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCD(t *testing.T) {
	var buf bytes.Buffer
	lcd := NewLCD(&buf)

	require.NoError(t, lcd.PrintValue(1, 1, 5, 3))
	require.NoError(t, lcd.PrintValue(1, 5, 200, 3))
	require.NoError(t, lcd.PrintValue(1, 9, 1234, 3))
	require.NoError(t, lcd.PrintString(2, 1, "LINE FOLLOWER"))
	assert.Equal(t, "005 200 234     ", lcd.Line(1))
	assert.Equal(t, "LINE FOLLOWER   ", lcd.Line(2))

	require.NoError(t, lcd.Flush())
	assert.Equal(t, "|005 200 234     |\n|LINE FOLLOWER   |\n", buf.String())

	buf.Reset()
	require.NoError(t, lcd.Flush())
	assert.Empty(t, buf.String())

	require.NoError(t, lcd.PrintString(2, 14, "LONG\x01"))
	require.NoError(t, lcd.Flush())
	assert.Equal(t, "|005 200 234     |\n|LINE FOLLOWERLON|\n", buf.String())
}

func TestLCDErrors(t *testing.T) {
	lcd := NewLCD(nil)
	testCases := []struct {
		name     string
		row, col int
	}{
		{"row zero", 0, 1},
		{"row overflow", 3, 1},
		{"col zero", 1, 0},
		{"col overflow", 1, 17},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, ErrOutOfRange, lcd.PrintString(tc.row, tc.col, "x"))
		})
	}
	assert.Error(t, lcd.PrintValue(1, 1, 1, 0))
	require.NoError(t, lcd.PrintString(1, 16, "\x7f"))
	assert.Equal(t, "?", lcd.Line(1)[15:])
	assert.NoError(t, lcd.Flush())
	assert.Empty(t, lcd.Line(3))
}
