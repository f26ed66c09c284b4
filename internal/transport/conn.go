// Package transport turns a net.Conn into a framed message stream: connect,
// send one or many frames atomically, receive one frame, and dispatch a
// received frame to a typed handler. Grounded on
// internal/protocol/packet.go's connect/read/write shape, generalized to a
// reusable type shared by the LAN proxy, the node stream, and the
// control-plane stream (spec.md §6: "same framing layer").
package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/udisondev/floclient/internal/wire"
)

// Conn is a bidirectional framed connection. Reads and writes are each
// safe to call from one dedicated goroutine; Send/SendMany additionally
// take an internal write lock so multiple producers may share a Conn
// without tearing a frame (spec.md §5: "writes to any single stream are
// totally ordered").
type Conn struct {
	conn net.Conn
	r    *bufio.Reader

	writeMu sync.Mutex
}

// Connect dials addr over TCP and wraps the resulting connection.
func Connect(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return New(nc), nil
}

// New wraps an already-established net.Conn (e.g. from a listener Accept).
func New(nc net.Conn) *Conn {
	return &Conn{conn: nc, r: bufio.NewReader(nc)}
}

// Raw returns the underlying net.Conn, e.g. to inspect RemoteAddr/LocalAddr.
func (c *Conn) Raw() net.Conn { return c.conn }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

// Send writes one frame.
func (c *Conn) Send(f wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wire.Encode(c.conn, f); err != nil {
		return fmt.Errorf("sending frame type %#x: %w", f.Type, err)
	}
	return nil
}

// SendMany writes a batch of frames under one write-lock hold so a reader
// on the other end always observes them as a coherent, uninterrupted
// prefix (spec.md §5: the lobby handler's join-reply batch must be atomic
// with respect to other writes on the same stream).
func (c *Conn) SendMany(frames []wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	for i, f := range frames {
		if err := wire.Encode(c.conn, f); err != nil {
			return fmt.Errorf("sending frame %d/%d (type %#x): %w", i+1, len(frames), f.Type, err)
		}
	}
	return nil
}

// Recv blocks until one frame is read, or ctx is done. Cancellation closes
// the connection to unblock the in-flight read (TCP reads are not
// context-cancelable on their own); callers that need the connection to
// survive cancellation must not pass a context they intend to cancel
// mid-session.
func (c *Conn) Recv(ctx context.Context) (wire.Frame, error) {
	type result struct {
		f   wire.Frame
		err error
	}
	done := make(chan result, 1)
	go func() {
		f, err := wire.Decode(c.r)
		done <- result{f, err}
	}()

	select {
	case <-ctx.Done():
		c.conn.Close()
		<-done // the decode goroutine will now fail fast; drain it
		return wire.Frame{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return wire.Frame{}, fmt.Errorf("receiving frame: %w", res.err)
		}
		return res.f, nil
	}
}
