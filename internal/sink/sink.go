// Package sink implements the abstract user-facing message channel
// (spec.md §4.H): an outbound sink the control-plane and lobby handler
// push OutgoingMessage values into. Grounded on the teacher's channel-based
// send-queue idiom (internal/gameserver/client.go's sendCh), reused here at
// the message layer rather than the byte-frame layer.
package sink

import (
	"context"
	"fmt"

	"github.com/udisondev/floclient/internal/model"
)

// Sink delivers one message to whatever is on the other end (a UI, a
// subscriber list, a test probe). Delivery failure is the caller's to
// treat as fatal for the session (spec.md §4.H).
type Sink interface {
	Send(ctx context.Context, msg model.OutgoingMessage) error
}

// Chan is a Sink backed by a buffered channel.
type Chan struct {
	ch chan model.OutgoingMessage
}

// NewChan returns a channel-backed sink with the given buffer size.
func NewChan(buffer int) *Chan {
	return &Chan{ch: make(chan model.OutgoingMessage, buffer)}
}

// Send enqueues msg, blocking only if the channel is full, and never
// longer than ctx allows.
func (c *Chan) Send(ctx context.Context, msg model.OutgoingMessage) error {
	select {
	case c.ch <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sink send: %w", ctx.Err())
	}
}

// Messages exposes the receive side for whatever consumes outbound
// messages (a UI event loop, a test).
func (c *Chan) Messages() <-chan model.OutgoingMessage {
	return c.ch
}

// Close closes the underlying channel. Callers must ensure no further
// Send calls are in flight.
func (c *Chan) Close() {
	close(c.ch)
}
