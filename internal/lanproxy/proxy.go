// Package lanproxy owns the single client-facing TCP socket an unmodified
// game client connects to as though it were a real LAN host (spec.md
// §4.D). Grounded on the teacher's gslistener/server.go accept loop,
// narrowed from "accept many" to "accept exactly one connection, reject
// the rest" via a CAS-guarded flag in place of the teacher's unbounded
// accept loop.
package lanproxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/floclient/internal/lobby"
	"github.com/udisondev/floclient/internal/lobby/lanpackets"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/nodestream"
	"github.com/udisondev/floclient/internal/sink"
	"github.com/udisondev/floclient/internal/transport"
	"github.com/udisondev/floclient/internal/wire"
)

// Listener binds the client-facing socket. Bind before constructing the
// advertiser, since the advertised service record needs the bound port,
// which the game supervisor reads through Port.
type Listener struct {
	ln net.Listener

	accepted atomic.Bool
}

// Listen binds 127.0.0.1:0 (an OS-assigned ephemeral port, unless addr
// names one explicitly).
func Listen(addr string) (*Listener, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("lanproxy: binding %s: %w", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Port returns the bound TCP port.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Close releases the listening socket. Safe to call after Accept or
// instead of ever calling it.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Session carries everything Accept needs to drive one client through the
// lobby phase and, on ActionStart, the in-game bridge phase. Sender and
// Node are split because the lobby phase may start before the node dial
// finishes (spec.md §4.D): callers hand the lobby phase a
// nodestream.PendingSender in that case, and the real Forwarder once
// dialing completes, which is guaranteed by the time ActionStart fires
// since the lobby's own start condition requires a node status update.
type Session struct {
	Info          model.LanGameInfo
	Sender        nodestream.Sender
	Node          nodestream.Forwarder
	StatusCh      <-chan model.NodeGameStatus
	CountdownSync <-chan struct{}
	Sink          sink.Sink
	LobbyConfig   lobby.Config

	// PlayerEvents carries control-plane notifications (status changes,
	// ping-map updates) to multiplex into the client during the bridge
	// phase as PlayerEvent frames (spec.md §4.D). A nil channel is valid
	// and simply never fires, for callers that don't wire a control-plane
	// session into this LAN game.
	PlayerEvents <-chan model.OutgoingMessage
}

// Accept blocks for exactly one incoming connection (or until ctx is
// done), rejecting — by closing immediately — any further dial attempts
// that race it (spec.md §4.D: "accept exactly one connection, reject the
// rest"). It then drives the session through lobby.Run and, if the lobby
// finishes with ActionStart, the bridge phase, returning once the client
// connection ends.
func (l *Listener) Accept(ctx context.Context, sess Session) error {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	resCh := make(chan acceptResult, 1)
	go func() {
		for {
			nc, err := l.ln.Accept()
			if err != nil {
				select {
				case resCh <- acceptResult{nil, err}:
				default:
				}
				return
			}
			if !l.accepted.CompareAndSwap(false, true) {
				slog.Warn("lanproxy: rejecting extra connection attempt", "remote", nc.RemoteAddr())
				nc.Close()
				continue
			}
			resCh <- acceptResult{nc, nil}
		}
	}()

	var res acceptResult
	select {
	case <-ctx.Done():
		l.ln.Close()
		return ctx.Err()
	case res = <-resCh:
	}
	if res.err != nil {
		return fmt.Errorf("lanproxy: accept: %w", res.err)
	}
	defer res.conn.Close()

	clientAddr, err := remoteIP(res.conn)
	if err != nil {
		return fmt.Errorf("lanproxy: resolving client address: %w", err)
	}

	client := transport.New(res.conn)

	action, err := lobby.Run(ctx, client, clientAddr, sess.Sender, sess.Info, sess.StatusCh, sess.CountdownSync, sess.Sink, sess.LobbyConfig)
	if err != nil {
		return fmt.Errorf("lanproxy: lobby phase: %w", err)
	}
	if action != lobby.ActionStart {
		return nil
	}

	return bridge(ctx, client, sess.Node, sess.PlayerEvents)
}

// bridge copies client<->node frames once the lobby phase hands off
// control. Grounded on lanproxy's single-writer/single-reader pairing:
// either direction failing tears down both via errgroup's shared context
// (spec.md §4.D "io.Copy-style two-goroutine forward loop"). It is not a
// bare copy loop: a `LeaveReq` read from the client is translated into a
// graceful shutdown of the bridge instead of being forwarded to the node,
// and control-plane notifications arriving on events are multiplexed into
// the client as PlayerEvent frames (spec.md §4.D).
func bridge(ctx context.Context, client *transport.Conn, node nodestream.Forwarder, events <-chan model.OutgoingMessage) error {
	g, gctx := errgroup.WithContext(ctx)
	bridgeCtx, bridgeCancel := context.WithCancel(gctx)
	defer bridgeCancel()

	g.Go(func() error {
		defer bridgeCancel()
		for {
			f, err := client.Recv(bridgeCtx)
			if err != nil {
				return fmt.Errorf("bridge: reading client: %w", err)
			}
			if handled, perr := transport.AnswerPing(client, f); handled {
				if perr != nil {
					return fmt.Errorf("bridge: answering client ping: %w", perr)
				}
				continue
			}
			if f.Type == lanpackets.TypeLeaveReq {
				slog.Info("bridge: client sent LeaveReq, shutting down gracefully")
				return nil
			}
			if err := node.Forward(f); err != nil {
				return fmt.Errorf("bridge: forwarding to node: %w", err)
			}
		}
	})

	g.Go(func() error {
		frames := node.BridgeFrames()
		for {
			select {
			case <-bridgeCtx.Done():
				return gctx.Err()
			case f, ok := <-frames:
				if !ok {
					return fmt.Errorf("bridge: node frame channel closed")
				}
				if err := client.Send(f); err != nil {
					return fmt.Errorf("bridge: writing to client: %w", err)
				}
			case msg, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				frame, ok := encodePlayerEvent(msg)
				if !ok {
					continue
				}
				if err := client.Send(frame); err != nil {
					return fmt.Errorf("bridge: writing player event to client: %w", err)
				}
			}
		}
	})

	return g.Wait()
}

// encodePlayerEvent maps a control-plane notification onto the LAN wire's
// PlayerEvent subtype (spec.md §4.D: "status changes, ping-map updates").
// Messages outside this set are not PlayerEvent candidates and are
// reported as unhandled so the caller can skip them.
func encodePlayerEvent(msg model.OutgoingMessage) (wire.Frame, bool) {
	var subtype byte
	var body []byte

	switch m := msg.(type) {
	case model.GamePlayerEnterMsg:
		subtype, body = lanpackets.PlayerEventStatusChange, m.Raw
	case model.GamePlayerLeaveMsg:
		subtype, body = lanpackets.PlayerEventStatusChange, m.Raw
	case model.GamePlayerSlotUpdateMsg:
		subtype, body = lanpackets.PlayerEventStatusChange, m.Raw
	case model.GamePlayerPingMapUpdateMsg:
		subtype, body = lanpackets.PlayerEventPingMapUpdate, m.Raw
	case model.GamePlayerPingMapSnapshotMsg:
		subtype, body = lanpackets.PlayerEventPingMapUpdate, m.Raw
	default:
		return wire.Frame{}, false
	}

	return wire.Frame{Type: lanpackets.TypePlayerEvent, Payload: lanpackets.PlayerEvent(subtype, body)}, true
}

func remoteIP(c net.Conn) (net.IP, error) {
	tcpAddr, ok := c.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("remote address %v is not a TCP address", c.RemoteAddr())
	}
	return tcpAddr.IP, nil
}
