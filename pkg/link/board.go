package link

import (
	"context"
	"fmt"

	"github.com/robotalks/linebot/pkg/hal"
)

// Board implements hal.Board with peripherals accessed over the link.
// Delays and time are local to the host.
type Board struct {
	hal.SystemClock
	hal.Sleeper

	client *Client
	// ctx scopes every peripheral request.
	ctx context.Context
}

// NewBoard creates a Board, requests are abandoned once ctx is done.
func NewBoard(ctx context.Context, client *Client) *Board {
	return &Board{client: client, ctx: ctx}
}

// Client returns the underlying client.
func (b *Board) Client() *Client {
	return b.client
}

// StartConversion implements hal.Converter.
func (b *Board) StartConversion(channel uint8) error {
	_, err := b.client.Do(b.ctx, CodeADCStart, channel)
	return err
}

// ConversionReady implements hal.Converter.
func (b *Board) ConversionReady() (bool, error) {
	v, err := b.byteReply(CodeADCPoll)
	return v != 0, err
}

// ConversionResult implements hal.Converter.
func (b *Board) ConversionResult() (uint8, error) {
	return b.byteReply(CodeADCResult)
}

// SetDuty implements hal.PWM.
func (b *Board) SetDuty(ch hal.PWMChannel, duty uint8) error {
	_, err := b.client.Do(b.ctx, CodePWMSet, byte(ch), duty)
	return err
}

// ReadPort implements hal.Port.
func (b *Board) ReadPort() (byte, error) {
	return b.byteReply(CodePortRead)
}

// WritePort implements hal.Port.
func (b *Board) WritePort(v byte) error {
	_, err := b.client.Do(b.ctx, CodePortWrite, v)
	return err
}

func (b *Board) byteReply(code byte) (byte, error) {
	data, err := b.client.Do(b.ctx, code)
	if err != nil {
		return 0, err
	}
	if len(data) < 1 {
		return 0, fmt.Errorf("reply 0x%02x: missing data", code)
	}
	return data[0], nil
}
