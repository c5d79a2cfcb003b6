package link

import (
	"io"
	"time"
)

// Seq is the sequence number of a packet.
type Seq byte

// NewSeq creates a randomized starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number, skipping invalid ones.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if s can start a packet.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Request codes understood by the board firmware.
// A reply carries the same code, with bit0 set when the request failed.
const (
	CodeADCStart  byte = 0x02
	CodeADCPoll   byte = 0x04
	CodeADCResult byte = 0x06
	CodePWMSet    byte = 0x08
	CodePortRead  byte = 0x0a
	CodePortWrite byte = 0x0c

	codeMask    byte = 0x8f
	codeFailure byte = 0x01
	codeEvent   byte = 0x80
	lenExtended byte = 7
	// MaxDataLen is the largest payload of a packet.
	MaxDataLen = 0x7f
)

// Packet is one frame on the link.
type Packet struct {
	Seq  Seq
	Code byte
	Data []byte
}

// Failed tells if a reply reports a failed request.
func (p *Packet) Failed() bool {
	return p.Code&codeFailure != 0
}

// IsEvent tells if the packet is unsolicited.
func (p *Packet) IsEvent() bool {
	return p.Code&codeEvent != 0
}

func (p *Packet) header() []byte {
	l := byte(len(p.Data))
	if l < lenExtended {
		return []byte{byte(p.Seq), p.Code&codeMask | l<<4}
	}
	return []byte{byte(p.Seq), p.Code&codeMask | lenExtended<<4, l}
}

// Bytes encodes the packet.
func (p *Packet) Bytes() []byte {
	return append(p.header(), p.Data...)
}

// WriteTo writes the encoded packet in a single Write.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// Decoder reassembles packets from a byte stream.
type Decoder struct {
	state   decodeState
	packet  *Packet
	recvLen int
	skipped uint64
}

type decodeState int

const (
	decodeSeq decodeState = iota
	decodeCode
	decodeLen
	decodeData
)

// Skipped returns the number of bytes dropped while looking for a packet.
func (d *Decoder) Skipped() uint64 {
	return d.skipped
}

// Reset drops any partial packet.
func (d *Decoder) Reset() {
	d.state, d.packet = decodeSeq, nil
}

// Feed consumes one byte and returns a packet once it's complete.
func (d *Decoder) Feed(b byte) *Packet {
	switch d.state {
	case decodeSeq:
		if !Seq(b).IsValid() {
			d.skipped++
			return nil
		}
		d.packet = &Packet{Seq: Seq(b)}
		d.state = decodeCode
	case decodeCode:
		d.packet.Code = b & codeMask
		switch l := (b >> 4) & 7; l {
		case 0:
			return d.ready()
		case lenExtended:
			d.state = decodeLen
		default:
			d.expect(int(l))
		}
	case decodeLen:
		if b > MaxDataLen {
			d.skipped++
			d.Reset()
			return nil
		}
		if b == 0 {
			return d.ready()
		}
		d.expect(int(b))
	case decodeData:
		d.packet.Data[d.recvLen] = b
		if d.recvLen++; d.recvLen >= len(d.packet.Data) {
			return d.ready()
		}
	}
	return nil
}

func (d *Decoder) expect(n int) {
	d.packet.Data, d.recvLen = make([]byte, n), 0
	d.state = decodeData
}

func (d *Decoder) ready() (pkt *Packet) {
	pkt, d.packet = d.packet, nil
	d.state = decodeSeq
	return
}
