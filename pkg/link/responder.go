package link

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
)

// Error reasons sent by Responder.
const (
	ReasonUnknownCode byte = 1
	ReasonBadRequest  byte = 2
	ReasonPeripheral  byte = 3
)

// Responder is the board side of the link, serving requests from
// the peripherals of a hal.Board. It stands in for the firmware when
// the board is simulated.
type Responder struct {
	Board hal.Board

	conn io.ReadWriteCloser
	seq  Seq
}

// NewResponder creates a Responder serving board over conn.
func NewResponder(conn io.ReadWriteCloser, board hal.Board) *Responder {
	return &Responder{Board: board, conn: conn, seq: NewSeq()}
}

// Run implements Runnable.
func (r *Responder) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, r.conn, func() error {
		var dec Decoder
		buf := make([]byte, 64)
		for {
			n, err := r.conn.Read(buf)
			for _, b := range buf[:n] {
				if pkt := dec.Feed(b); pkt != nil {
					if werr := r.reply(pkt); werr != nil {
						return werr
					}
				}
			}
			if err != nil {
				return err
			}
		}
	})
}

func (r *Responder) reply(req *Packet) error {
	data, reason := r.serve(req)
	rep := &Packet{Seq: r.seq, Code: req.Code}
	if reason != 0 {
		rep.Code |= codeFailure
		rep.Data = []byte{byte(req.Seq), reason}
	} else {
		rep.Data = append([]byte{byte(req.Seq)}, data...)
	}
	r.seq = r.seq.Next()
	_, err := rep.WriteTo(r.conn)
	return err
}

func (r *Responder) serve(req *Packet) ([]byte, byte) {
	var err error
	var v byte
	switch req.Code {
	case CodeADCStart:
		if len(req.Data) != 1 {
			return nil, ReasonBadRequest
		}
		err = r.Board.StartConversion(req.Data[0])
	case CodeADCPoll:
		var ready bool
		if ready, err = r.Board.ConversionReady(); ready {
			v = 1
		}
	case CodeADCResult:
		v, err = r.Board.ConversionResult()
	case CodePWMSet:
		if len(req.Data) != 2 {
			return nil, ReasonBadRequest
		}
		err = r.Board.SetDuty(hal.PWMChannel(req.Data[0]), req.Data[1])
	case CodePortRead:
		v, err = r.Board.ReadPort()
	case CodePortWrite:
		if len(req.Data) != 1 {
			return nil, ReasonBadRequest
		}
		err = r.Board.WritePort(req.Data[0])
	default:
		return nil, ReasonUnknownCode
	}
	if err != nil {
		glog.Warningf("link: request 0x%02x failed: %v", req.Code, err)
		return nil, ReasonPeripheral
	}
	switch req.Code {
	case CodeADCPoll, CodeADCResult, CodePortRead:
		return []byte{v}, 0
	}
	return nil, 0
}
