package link

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/linebot/pkg/drive"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/sensor"
)

func TestSeq(t *testing.T) {
	for s := byte(0xff); s >= byte(0xf0); s-- {
		require.False(t, Seq(s).IsValid())
		require.Equal(t, Seq(1), Seq(s).Next())
	}
	for s := byte(1); s < byte(0xf0); s++ {
		require.True(t, Seq(s).IsValid())
		if s+1 < 0xf0 {
			require.Equal(t, Seq(s+1), Seq(s).Next())
		} else {
			require.Equal(t, Seq(1), Seq(s).Next())
		}
	}
	require.False(t, Seq(0).IsValid())
	require.True(t, NewSeq().IsValid())
}

func TestPacket(t *testing.T) {
	testCases := []struct {
		name   string
		packet Packet
		expect []byte
	}{
		{"no data", Packet{Seq: 1, Code: CodeADCPoll}, []byte{1, 0x04}},
		{"small data", Packet{Seq: 2, Code: CodePWMSet, Data: []byte{1, 150}}, []byte{2, 0x28, 1, 150}},
		{"large data", Packet{Seq: 3, Code: 0x0e, Data: []byte{1, 2, 3, 4, 5, 6, 7}}, []byte{3, 0x7e, 7, 1, 2, 3, 4, 5, 6, 7}},
		{"failed reply", Packet{Seq: 4, Code: CodeADCStart | 1, Data: []byte{9, 3}}, []byte{4, 0x23, 9, 3}},
		{"event", Packet{Seq: 5, Code: 0x82, Data: []byte{1}}, []byte{5, 0x92, 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.packet.Bytes())
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)

			var dec Decoder
			var pkts []*Packet
			for _, b := range tc.expect {
				if pkt := dec.Feed(b); pkt != nil {
					pkts = append(pkts, pkt)
				}
			}
			require.Len(t, pkts, 1)
			assert.Equal(t, tc.packet.Seq, pkts[0].Seq)
			assert.Equal(t, tc.packet.Code, pkts[0].Code)
			assert.Equal(t, tc.packet.Data, pkts[0].Data)
		})
	}
}

func TestDecoder(t *testing.T) {
	var dec Decoder
	var pkts []*Packet
	feed := func(bs ...byte) {
		for _, b := range bs {
			if pkt := dec.Feed(b); pkt != nil {
				pkts = append(pkts, pkt)
			}
		}
	}

	feed(0, 0xff, 0xf0, 7, 0x14, 1)
	require.Len(t, pkts, 1)
	assert.Equal(t, Seq(7), pkts[0].Seq)
	assert.Equal(t, []byte{1}, pkts[0].Data)
	assert.Equal(t, uint64(3), dec.Skipped())

	// invalid extended length drops the partial packet
	feed(8, 0x70, 0x80, 9, 0x70, 0)
	require.Len(t, pkts, 2)
	assert.Equal(t, Seq(9), pkts[1].Seq)
	assert.Empty(t, pkts[1].Data)
	assert.Equal(t, uint64(4), dec.Skipped())

	feed(10, 0x14)
	dec.Reset()
	feed(11, 0x06)
	require.Len(t, pkts, 3)
	assert.Equal(t, Seq(11), pkts[2].Seq)
	assert.Equal(t, CodeADCResult, pkts[2].Code)
}

type linkTestEnv struct {
	t      *testing.T
	regs   *hal.Registers
	client *Client
	board  *Board
	cancel context.CancelFunc
	done   chan error
}

func newLinkTestEnv(t *testing.T) *linkTestEnv {
	host, dev := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	env := &linkTestEnv{
		t:      t,
		regs:   hal.NewRegisters(time.Unix(0, 0)),
		client: NewClient(host),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	env.client.Timeout = time.Second
	env.board = NewBoard(ctx, env.client)
	go NewResponder(dev, env.regs).Run(ctx)
	go func() { env.done <- env.client.Run(ctx) }()
	t.Cleanup(env.stop)
	return env
}

func (e *linkTestEnv) stop() {
	e.cancel()
	select {
	case <-e.done:
	case <-time.After(time.Second):
		e.t.Fatal("client not stopped")
	}
}

func TestBoardSampling(t *testing.T) {
	env := newLinkTestEnv(t)
	env.regs.ReadyAfter = 2
	env.regs.SetInput(sensor.ChannelLeft, 5).SetInput(sensor.ChannelCenter, 200).SetInput(sensor.ChannelRight, 16)

	r, err := sensor.NewSampler(env.board).Sample(context.Background())
	require.NoError(t, err)
	require.Equal(t, sensor.Reading{Left: 5, Center: 200, Right: 16}, r)
	require.Equal(t, sensor.State(true, false, true), sensor.NewClassifier().Classify(r))
}

func TestBoardActuation(t *testing.T) {
	env := newLinkTestEnv(t)
	env.regs.SetPortValue(0xa0)

	a := drive.NewActuator(env.board, env.board)
	require.NoError(t, a.Execute(drive.Command{Direction: drive.SoftLeft, LeftDuty: 0, RightDuty: 150}))
	require.Equal(t, byte(0xa4), env.regs.PortValue())
	require.Equal(t, uint8(0), env.regs.Duty(hal.PWMLeft))
	require.Equal(t, uint8(150), env.regs.Duty(hal.PWMRight))

	v, err := env.board.ReadPort()
	require.NoError(t, err)
	require.Equal(t, byte(0xa4), v)
}

func TestBoardCommandError(t *testing.T) {
	env := newLinkTestEnv(t)

	_, err := env.board.ConversionResult()
	var cerr *CommandError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, CodeADCResult, cerr.Code)
	require.Equal(t, ReasonPeripheral, cerr.Reason)

	_, err = env.client.Do(context.Background(), 0x0e)
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, ReasonUnknownCode, cerr.Reason)

	_, err = env.client.Do(context.Background(), CodePWMSet, 1)
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, ReasonBadRequest, cerr.Reason)
}

func TestClientReplyMatching(t *testing.T) {
	host, dev := net.Pipe()
	client := NewClient(host)
	client.seq = 1
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	type reply struct {
		data []byte
		err  error
	}
	first, second := make(chan reply, 1), make(chan reply, 1)
	do := func(ch chan reply, code byte) {
		data, err := client.Do(context.Background(), code)
		ch <- reply{data, err}
	}
	buf := make([]byte, 2)

	go do(first, CodeADCPoll)
	_, err := io.ReadFull(dev, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, CodeADCPoll}, buf)

	go do(second, CodePortRead)
	_, err = io.ReadFull(dev, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{2, CodePortRead}, buf)

	// noise, an unknown reply, then the reply of the second request
	_, err = dev.Write([]byte{0xff, 0xf5, 9, CodeADCResult | 1<<4, 0x30, 10, CodePortRead | 2<<4, 2, 0x42})
	require.NoError(t, err)

	r := <-first
	require.Equal(t, ErrNoReply, r.err)
	r = <-second
	require.NoError(t, r.err)
	require.Equal(t, []byte{0x42}, r.data)

	client.Timeout = 10 * time.Millisecond
	go do(first, CodeADCPoll)
	_, err = io.ReadFull(dev, buf)
	require.NoError(t, err)
	r = <-first
	require.Equal(t, ErrNoReply, r.err)

	cancel()
	require.Equal(t, context.Canceled, <-done)
	_, err = client.Do(context.Background(), CodeADCPoll)
	require.Equal(t, ErrClosed, err)
}

func TestClientClosedWhilePending(t *testing.T) {
	host, dev := net.Pipe()
	client := NewClient(host)
	client.Timeout = 0
	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background()) }()

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Do(context.Background(), CodePortRead)
		errCh <- err
	}()
	buf := make([]byte, 2)
	_, err := io.ReadFull(dev, buf)
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	require.Equal(t, ErrClosed, <-errCh)
	require.Error(t, <-done)
}
