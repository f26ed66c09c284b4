// Package nodestream wires the persistent framed connection to the
// selected relay node (spec.md §4.F). Grounded on the teacher's
// GameClient write-pump pattern (client.sendCh drained by a dedicated
// writer goroutine, internal/gameserver/client.go) generalized into a
// single-writer actor: the proxy's forward path and slot-status reports
// both serialize through one writer holding the one transport.Conn
// (spec.md §5 "single producer handle").
package nodestream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/nodestream/nodepackets"
	"github.com/udisondev/floclient/internal/transport"
	"github.com/udisondev/floclient/internal/wire"
)

const (
	writeQueueSize  = 64
	ringCapacity    = 256
	statusQueueSize = 8
)

// Sender is the fire-and-forget handle the lobby handler holds; it
// never sees the raw connection.
type Sender interface {
	ReportSlotStatus(status model.SlotClientStatus)
}

// Forwarder is the handle the in-game bridge phase of the proxy holds:
// Forward carries client->node bytes, BridgeFrames exposes the
// node->client direction, buffered-then-live across the lobby/bridge
// transition (spec.md §4.F).
type Forwarder interface {
	Forward(f wire.Frame) error
	BridgeFrames() <-chan wire.Frame
}

// Stream is a persistent framed connection to one relay node.
type Stream struct {
	conn     *transport.Conn
	out      chan wire.Frame
	statusCh chan model.NodeGameStatus

	mu       sync.Mutex
	ring     []wire.Frame
	bridging bool
	bridgeCh chan wire.Frame
}

// Connect dials addr and returns a Stream ready to Run.
func Connect(ctx context.Context, addr string) (*Stream, error) {
	conn, err := transport.Connect(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to node %s: %w", addr, err)
	}
	return &Stream{
		conn:     conn,
		out:      make(chan wire.Frame, writeQueueSize),
		statusCh: make(chan model.NodeGameStatus, statusQueueSize),
	}, nil
}

// StatusUpdates exposes the node's game-status reports, one of the
// lobby handler's three wake sources (spec.md §4.E).
func (s *Stream) StatusUpdates() <-chan model.NodeGameStatus {
	return s.statusCh
}

// Run drives the write pump and the read loop until ctx is done or
// either side errors.
func (s *Stream) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.writeLoop(gctx) })
	g.Go(func() error { return s.readLoop(gctx) })
	return g.Wait()
}

func (s *Stream) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-s.out:
			if err := s.conn.Send(f); err != nil {
				return fmt.Errorf("node write: %w", err)
			}
		}
	}
}

func (s *Stream) readLoop(ctx context.Context) error {
	for {
		f, err := s.conn.Recv(ctx)
		if err != nil {
			return fmt.Errorf("node read: %w", err)
		}
		if handled, perr := transport.AnswerPing(s.conn, f); handled {
			if perr != nil {
				slog.Debug("node pong failed", "err", perr)
			}
			continue
		}
		if f.Type == nodepackets.TypeNodeStatus {
			s.deliverStatus(f)
			continue
		}
		s.deliver(f)
	}
}

// deliverStatus decodes a node-status frame and publishes it, dropping
// (never blocking the reader) if nothing has drained the channel yet.
func (s *Stream) deliverStatus(f wire.Frame) {
	status, err := nodepackets.ParseNodeStatus(f.Payload)
	if err != nil {
		slog.Warn("node: dropping malformed status frame", "err", err)
		return
	}
	select {
	case s.statusCh <- status:
	default:
		slog.Debug("node: status channel full, dropping stale update", "status", status)
	}
}

// deliver routes a node->client frame: into the live bridge channel
// once the bridge phase has started, otherwise into the lobby-phase
// ring buffer, evicting the oldest entry rather than blocking the
// reader when the ring is full.
func (s *Stream) deliver(f wire.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bridging {
		select {
		case s.bridgeCh <- f:
		default:
			slog.Warn("dropping node frame, bridge channel full", "type", f.Type)
		}
		return
	}

	if len(s.ring) >= ringCapacity {
		slog.Warn("dropping oldest lobby-phase node frame, ring buffer full")
		s.ring = s.ring[1:]
	}
	s.ring = append(s.ring, f)
}

// ReportSlotStatus is fire-and-forget: a full write queue is logged at
// debug and dropped, never propagated as an error (spec.md §7).
func (s *Stream) ReportSlotStatus(status model.SlotClientStatus) {
	f := wire.Frame{Type: nodepackets.TypeSlotStatusReport, Payload: nodepackets.SlotStatusReport(status)}
	select {
	case s.out <- f:
	default:
		slog.Debug("node write queue full, dropping slot status report", "status", status)
	}
}

// Forward enqueues a client->node frame for the bridge phase's forward
// path.
func (s *Stream) Forward(f wire.Frame) error {
	select {
	case s.out <- f:
		return nil
	default:
		return fmt.Errorf("node write queue full")
	}
}

// BridgeFrames switches the stream into bridge mode: any frames the
// lobby phase buffered are flushed into the returned channel first,
// then subsequent node->client frames flow live. Call exactly once,
// when the lobby handler yields control to the proxy.
func (s *Stream) BridgeFrames() <-chan wire.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan wire.Frame, ringCapacity)
	for _, f := range s.ring {
		ch <- f
	}
	s.ring = nil
	s.bridging = true
	s.bridgeCh = ch
	return ch
}
