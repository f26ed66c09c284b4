// Package controlplane implements the persistent session with the
// central lobby server (spec.md §4.G): handshake, steady-state dispatch
// into user-facing messages, and the shared current-game-id / selected-
// node state other components observe. Grounded on the teacher's
// internal/login/handler.go state-gated dispatch and
// internal/login/session_manager.go's single-writer cell pattern,
// generalized from sync.Map (keyed lookups) to internal/model.Cell
// (whole-value swap), since the shared values here are "the current game
// id" and "the selected node id", not a keyed table.
package controlplane

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/floclient/internal/controlplane/cppackets"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/sink"
	"github.com/udisondev/floclient/internal/transport"
	"github.com/udisondev/floclient/internal/wire"
)

// outboundCapacity is the literal capacity spec.md §4.G names for the
// control-plane's outbound queue.
const outboundCapacity = 5

// Stream is one connected control-plane session.
type Stream struct {
	conn *transport.Conn
	out  chan wire.Frame

	currentGameID *model.Cell[*int32]
	selectedNode  *model.Cell[*int32]

	nodes *model.NodeRegistry // owned solely by the Run goroutine
}

// Connect dials cfg.Addr(), performs the ConnectLobby handshake, and
// returns a Stream ready to Run. A ConnectLobbyReject fails the call with
// a *RejectedError; no retry happens at this layer (spec.md §4.G, §8
// scenario 4: "no background task is spawned").
func Connect(ctx context.Context, cfg Config, snk sink.Sink) (*Stream, error) {
	conn, err := transport.Connect(ctx, cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("controlplane: dialing %s: %w", cfg.Addr(), err)
	}

	hello := cppackets.ConnectLobby{Version: cfg.Version, Token: cfg.Token}
	if err := conn.Send(wire.Frame{Type: cppackets.TypeConnectLobby, Payload: hello.Encode()}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("controlplane: sending ConnectLobby: %w", err)
	}

	f, err := conn.Recv(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("controlplane: receiving handshake reply: %w", err)
	}

	switch f.Type {
	case cppackets.TypeConnectLobbyAccept:
		accept, err := cppackets.ParseConnectLobbyAccept(f.Payload)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("controlplane: parsing ConnectLobbyAccept: %w", err)
		}

		var gameID *int32
		if accept.HasGameID {
			id := accept.GameID
			gameID = &id
		}
		session := model.PlayerSession{
			Player: model.Player{
				ID:     accept.PlayerID,
				Name:   accept.PlayerName,
				Source: model.PlayerSource(accept.Source),
			},
			Status: model.PlayerStatus(accept.Status),
			GameID: gameID,
		}

		s := &Stream{
			conn:          conn,
			out:           make(chan wire.Frame, outboundCapacity),
			currentGameID: model.NewCell(gameID),
			selectedNode:  model.NewCell[*int32](nil),
			nodes:         model.NewNodeRegistry(),
		}

		if err := snk.Send(ctx, model.PlayerSessionMsg{Session: session}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("controlplane: notifying sink of session: %w", err)
		}
		return s, nil

	case cppackets.TypeConnectLobbyReject:
		reject, err := cppackets.ParseConnectLobbyReject(f.Payload)
		conn.Close()
		if err != nil {
			return nil, fmt.Errorf("controlplane: parsing ConnectLobbyReject: %w", err)
		}
		return nil, &RejectedError{Reason: model.RejectReason(reject.Reason)}

	default:
		conn.Close()
		return nil, fmt.Errorf("controlplane: unexpected handshake reply type %#x", f.Type)
	}
}

// CurrentGameID exposes the shared, single-writer/many-reader cell other
// components observe to answer "am I in a game?" (spec.md §3).
func (s *Stream) CurrentGameID() *model.Cell[*int32] { return s.currentGameID }

// SelectedNode exposes the shared selected-node-id cell.
func (s *Stream) SelectedNode() *model.Cell[*int32] { return s.selectedNode }

// Send enqueues an outbound frame; blocks only until ctx is done or the
// queue (capacity 5) has room.
func (s *Stream) Send(ctx context.Context, f wire.Frame) error {
	select {
	case s.out <- f:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("controlplane: enqueueing frame: %w", ctx.Err())
	}
}

// Close closes the outbound queue, causing a running Run loop to exit
// silently (spec.md §4.G: "Sender-dropped is a silent exit"), then closes
// the connection.
func (s *Stream) Close() error {
	close(s.out)
	return s.conn.Close()
}

// Run owns the dispatch loop until ctx is done, the connection fails, or
// the outbound queue is closed. On any transport- or dispatch-level
// error it emits a best-effort Disconnect to snk before returning
// (spec.md §4.G, §7).
func (s *Stream) Run(ctx context.Context, snk sink.Sink) error {
	frameCh := make(chan wire.Frame)
	errCh := make(chan error, 1)
	go func() {
		for {
			f, err := s.conn.Recv(ctx)
			if err != nil {
				errCh <- err
				return
			}
			select {
			case frameCh <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	handlers := s.buildHandlers(snk)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f, ok := <-s.out:
			if !ok {
				return nil
			}
			if err := s.conn.Send(f); err != nil {
				s.disconnect(ctx, snk, fmt.Sprintf("send: %v", err))
				return fmt.Errorf("controlplane: sending frame: %w", err)
			}

		case err := <-errCh:
			s.disconnect(ctx, snk, fmt.Sprintf("receive: %v", err))
			return fmt.Errorf("controlplane: receiving frame: %w", err)

		case f := <-frameCh:
			if f.IsPing() {
				if err := s.conn.Send(f.Pong()); err != nil {
					s.disconnect(ctx, snk, fmt.Sprintf("pong: %v", err))
					return fmt.Errorf("controlplane: answering ping: %w", err)
				}
				continue
			}
			if err := transport.DispatchStrict(f, handlers); err != nil {
				s.disconnect(ctx, snk, fmt.Sprintf("dispatch: %v", err))
				return fmt.Errorf("controlplane: dispatch: %w", err)
			}
		}
	}
}

// disconnect is the best-effort notification described in spec.md §7; its
// own failure is logged, never propagated (the loop is already exiting).
func (s *Stream) disconnect(ctx context.Context, snk sink.Sink, phase string) {
	msg := model.DisconnectMsg{Reason: model.DisconnectReasonUnknown, Message: phase}
	if err := snk.Send(ctx, msg); err != nil {
		slog.Debug("controlplane: best-effort disconnect notice failed", "err", err)
	}
}

func (s *Stream) buildHandlers(snk sink.Sink) map[byte]transport.HandlerFunc {
	return map[byte]transport.HandlerFunc{
		cppackets.TypeLobbyDisconnect: func(payload []byte) error {
			reason := model.DisconnectReasonUnknown
			if len(payload) >= 1 {
				reason = model.DisconnectReason(payload[0])
			}
			return snk.Send(context.Background(), model.DisconnectMsg{Reason: reason, Message: "Server closed the connection"})
		},

		cppackets.TypeGameInfo: func(payload []byte) error {
			gi, err := cppackets.ParseGameInfo(payload)
			if err != nil {
				return fmt.Errorf("parsing GameInfo: %w", err)
			}

			var nodeID *int32
			if gi.HasNodeID {
				if err := s.nodes.Select(gi.NodeID); err != nil {
					return fmt.Errorf("selecting node from GameInfo: %w", err)
				}
				id := gi.NodeID
				nodeID = &id
			} else {
				s.nodes.Clear()
			}
			s.selectedNode.Store(nodeID)

			return snk.Send(context.Background(), model.CurrentGameInfoMsg{
				Game: model.GameInfo{GameID: gi.GameID, Name: gi.Name, NodeID: nodeID},
			})
		},

		cppackets.TypeGamePlayerEnter: func(payload []byte) error {
			return snk.Send(context.Background(), model.GamePlayerEnterMsg{Raw: payload})
		},
		cppackets.TypeGamePlayerLeave: func(payload []byte) error {
			return snk.Send(context.Background(), model.GamePlayerLeaveMsg{Raw: payload})
		},
		cppackets.TypeGamePlayerSlotUpdate: func(payload []byte) error {
			return snk.Send(context.Background(), model.GamePlayerSlotUpdateMsg{Raw: payload})
		},

		cppackets.TypePlayerSessionUpdate: func(payload []byte) error {
			psu, err := cppackets.ParsePlayerSessionUpdate(payload)
			if err != nil {
				return fmt.Errorf("parsing PlayerSessionUpdate: %w", err)
			}

			var gameID *int32
			if psu.HasGameID {
				id := psu.GameID
				gameID = &id
			} else {
				s.nodes.Clear()
				s.selectedNode.Store(nil)
			}
			s.currentGameID.Store(gameID)

			session := model.PlayerSession{
				Player: model.Player{ID: psu.PlayerID, Name: psu.PlayerName, Source: model.PlayerSource(psu.Source)},
				Status: model.PlayerStatus(psu.Status),
				GameID: gameID,
			}
			return snk.Send(context.Background(), model.PlayerSessionUpdateMsg{Session: session})
		},

		cppackets.TypeListNodes: func(payload []byte) error {
			ln, err := cppackets.ParseListNodes(payload)
			if err != nil {
				return fmt.Errorf("parsing ListNodes: %w", err)
			}
			nodes := make([]model.Node, len(ln.Nodes))
			for i, n := range ln.Nodes {
				nodes[i] = model.Node{ID: n.ID, Name: n.Name, Location: n.Location, CountryID: n.CountryID, Ping: n.Ping}
			}
			s.nodes.Replace(nodes)
			return snk.Send(context.Background(), model.ListNodesMsg{Nodes: s.nodes.Snapshot()})
		},

		cppackets.TypeGameSelectNode: func(payload []byte) error {
			gsn, err := cppackets.ParseGameSelectNode(payload)
			if err != nil {
				return fmt.Errorf("parsing GameSelectNode: %w", err)
			}
			if err := s.nodes.Select(gsn.NodeID); err != nil {
				return fmt.Errorf("selecting node from GameSelectNode: %w", err)
			}
			id := gsn.NodeID
			s.selectedNode.Store(&id)
			return snk.Send(context.Background(), model.GameSelectNodeMsg{NodeID: gsn.NodeID})
		},

		cppackets.TypeGamePlayerPingMapUpdate: func(payload []byte) error {
			return snk.Send(context.Background(), model.GamePlayerPingMapUpdateMsg{Raw: payload})
		},
		cppackets.TypeGamePlayerPingMapSnapshot: func(payload []byte) error {
			return snk.Send(context.Background(), model.GamePlayerPingMapSnapshotMsg{Raw: payload})
		},
	}
}
