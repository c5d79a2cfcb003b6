package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/linebot/pkg/framework"
)

// DefaultTimeout bounds the wait for a reply.
const DefaultTimeout = 100 * time.Millisecond

// Client sends requests to the board and matches replies by sequence.
// Run must be running for requests to complete.
type Client struct {
	// Timeout of a request, 0 waits until the context is done.
	Timeout time.Duration
	// Events receives unsolicited packets, dropped if nil or full.
	Events chan<- *Packet

	conn io.ReadWriteCloser

	writeLock sync.Mutex
	seq       Seq

	lock    sync.Mutex
	pending []*request
	closed  bool
}

type request struct {
	seq    Seq
	code   byte
	result chan result
}

type result struct {
	packet *Packet
	err    error
}

// NewClient creates a client over conn.
func NewClient(conn io.ReadWriteCloser) *Client {
	return &Client{Timeout: DefaultTimeout, conn: conn, seq: NewSeq()}
}

// Do sends a request and waits for its reply. The returned data excludes
// the echoed request sequence.
func (c *Client) Do(ctx context.Context, code byte, data ...byte) ([]byte, error) {
	req := &request{code: code, result: make(chan result, 1)}

	c.writeLock.Lock()
	req.seq = c.seq
	if err := c.enqueue(req); err != nil {
		c.writeLock.Unlock()
		return nil, err
	}
	pkt := &Packet{Seq: req.seq, Code: code, Data: data}
	_, err := pkt.WriteTo(c.conn)
	if err == nil {
		c.seq = c.seq.Next()
	}
	c.writeLock.Unlock()
	if err != nil {
		c.remove(req)
		return nil, err
	}
	glog.V(5).Infof("link: sent %d code 0x%02x %v", req.seq, code, data)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	select {
	case r := <-req.result:
		if r.err != nil {
			return nil, r.err
		}
		return r.packet.Data[1:], nil
	case <-ctx.Done():
		c.remove(req)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrNoReply
		}
		return nil, ctx.Err()
	}
}

// Close closes the underlying connection, which also stops Run.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Run implements Runnable, reading replies until ctx is done or
// the connection fails.
func (c *Client) Run(ctx context.Context) error {
	err := fx.RunWithContextCloser(ctx, c.conn, c.readLoop)
	c.lock.Lock()
	pending := c.pending
	c.pending, c.closed = nil, true
	c.lock.Unlock()
	for _, req := range pending {
		req.result <- result{err: ErrClosed}
	}
	return err
}

func (c *Client) readLoop() error {
	var dec Decoder
	buf := make([]byte, 64)
	for {
		n, err := c.conn.Read(buf)
		for _, b := range buf[:n] {
			if pkt := dec.Feed(b); pkt != nil {
				c.dispatch(pkt)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (c *Client) dispatch(pkt *Packet) {
	if pkt.IsEvent() {
		select {
		case c.Events <- pkt:
		default:
			glog.V(3).Infof("link: event 0x%02x dropped", pkt.Code)
		}
		return
	}
	if len(pkt.Data) == 0 || !Seq(pkt.Data[0]).IsValid() {
		glog.V(3).Infof("link: invalid reply %d code 0x%02x", pkt.Seq, pkt.Code)
		return
	}
	seq := Seq(pkt.Data[0])

	c.lock.Lock()
	index := -1
	for n, req := range c.pending {
		if req.seq == seq {
			index = n
			break
		}
	}
	if index < 0 {
		c.lock.Unlock()
		glog.V(3).Infof("link: unexpected reply for %d", seq)
		return
	}
	// Requests before the matched one will never be answered.
	missed, req := c.pending[:index], c.pending[index]
	c.pending = append([]*request(nil), c.pending[index+1:]...)
	c.lock.Unlock()

	for _, m := range missed {
		m.result <- result{err: ErrNoReply}
	}
	if pkt.Failed() {
		cerr := &CommandError{Code: req.code}
		if len(pkt.Data) > 1 {
			cerr.Reason = pkt.Data[1]
		}
		req.result <- result{err: cerr}
		return
	}
	req.result <- result{packet: pkt}
}

func (c *Client) enqueue(req *request) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.pending = append(c.pending, req)
	return nil
}

func (c *Client) remove(req *request) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for n, r := range c.pending {
		if r == req {
			c.pending = append(c.pending[:n], c.pending[n+1:]...)
			return
		}
	}
}
