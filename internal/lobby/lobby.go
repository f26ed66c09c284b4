// Package lobby implements the lobby-phase state machine that drives an
// unmodified game client through ReqJoin -> SlotInfo -> PlayerInfo/Skins/
// Profile x N -> MapCheck -> CountDownStart -> CountDownEnd (spec.md
// §4.E). Grounded on the teacher's Handler.HandlePacket opcode switch
// shape (internal/login/handler.go), but driven by a select loop instead
// of a single blocking read, because this handler has three wake sources
// (client frame, 15s ping ticker, node-status change) rather than one.
package lobby

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/udisondev/floclient/internal/lobby/lanpackets"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/nodestream"
	"github.com/udisondev/floclient/internal/sink"
	"github.com/udisondev/floclient/internal/transport"
	"github.com/udisondev/floclient/internal/wire"
)

// Action is the lobby handler's terminal outcome.
type Action int

const (
	// ActionStart means the countdown completed and the proxy should
	// switch the client connection into the in-game bridge phase.
	ActionStart Action = iota
	// ActionLeave is reserved for externally induced teardown; the
	// handler never returns it as a successful outcome, only alongside a
	// non-nil error when Run fails (spec.md §9).
	ActionLeave
)

// Config carries the lobby's timing knobs. Production callers use
// DefaultConfig; tests scale these down to keep the suite fast
// (spec.md §8: countdown timing tests use short, scaled durations rather
// than sleeping the real 3s/6s).
type Config struct {
	PingInterval     time.Duration
	PostStartWait    time.Duration // fixed minimum after CountDownStart
	NotifierCeiling  time.Duration // ceiling waiting on the countdown sync notifier
	PostNotifierWait time.Duration // extra wait when no notifier is configured
	LobbyName        string        // explicit override; empty derives from (game.name, player_id)
}

// DefaultConfig returns the spec-literal timings (spec.md §5).
func DefaultConfig() Config {
	return Config{
		PingInterval:     15 * time.Second,
		PostStartWait:    3 * time.Second,
		NotifierCeiling:  6 * time.Second,
		PostNotifierWait: 3 * time.Second,
	}
}

type handler struct {
	ctx        context.Context
	client     *transport.Conn
	clientAddr net.IP
	node       nodestream.Sender
	snk    sink.Sink
	info   model.LanGameInfo
	cfg    Config

	countdownSync <-chan struct{}

	baseT      time.Time
	joinState  model.JoinRecvState
	nodeStatus model.NodeGameStatus
	sentJoined bool
	starting   bool

	handlers map[byte]transport.HandlerFunc
}

// Run drives one lobby session to completion: it returns once the
// countdown sequence finishes (ActionStart) or a fatal error occurs.
// countdownSync may be nil, in which case the fixed 3+3-second schedule
// applies (spec.md §4.E, §9 "Countdown synchronization").
// clientAddr is the game client socket's own address, as seen by the
// proxy at accept time (internal/lanproxy resolves it from the accepted
// net.Conn's RemoteAddr). Passed explicitly rather than introspected from
// client.Raw() so the handler can be driven in tests over a net.Pipe(),
// whose Addr carries no IP at all.
func Run(
	ctx context.Context,
	client *transport.Conn,
	clientAddr net.IP,
	node nodestream.Sender,
	info model.LanGameInfo,
	statusCh <-chan model.NodeGameStatus,
	countdownSync <-chan struct{},
	snk sink.Sink,
	cfg Config,
) (Action, error) {
	h := &handler{
		ctx:           ctx,
		client:        client,
		clientAddr:    clientAddr,
		node:          node,
		snk:           snk,
		info:          info,
		cfg:           cfg,
		countdownSync: countdownSync,
		baseT:         time.Now(),
		joinState:     model.JoinRecvState{TotalPlayers: 1 + len(info.SlotInfo.PlayerInfos)},
	}
	h.handlers = h.buildHandlers()

	pingTicker := time.NewTicker(cfg.PingInterval)
	defer pingTicker.Stop()

	frameCh := make(chan wire.Frame)
	errCh := make(chan error, 1)
	go func() {
		for {
			f, err := client.Recv(ctx)
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

	for {
		select {
		case <-ctx.Done():
			return ActionLeave, ctx.Err()

		case err := <-errCh:
			return ActionLeave, fmt.Errorf("lobby: reading client: %w", err)

		case status := <-statusCh:
			h.nodeStatus = status
			if action, done, err := h.checkStart(); done {
				return action, err
			}

		case <-pingTicker.C:
			elapsed := time.Since(h.baseT).Milliseconds()
			f := wire.Frame{Type: lanpackets.TypePingFromHost, Payload: lanpackets.PingFromHost(elapsed)}
			if err := client.Send(f); err != nil {
				return ActionLeave, fmt.Errorf("lobby: sending ping: %w", err)
			}

		case f := <-frameCh:
			if err := h.dispatch(f); err != nil {
				return ActionLeave, err
			}
			if action, done, err := h.checkStart(); done {
				return action, err
			}
		}
	}
}

// dispatch routes one client frame. Anything outside the lobby whitelist
// is fatal (spec.md §4.E); whitelisted ids are routed through
// transport.DispatchStrict for consistency with the generic dispatch
// helper every other stream uses (spec.md §4.A).
func (h *handler) dispatch(f wire.Frame) error {
	if _, ok := lanpackets.Whitelist[f.Type]; !ok {
		return newUnexpectedPacketError(f.Type)
	}
	return transport.DispatchStrict(f, h.handlers)
}

func (h *handler) buildHandlers() map[byte]transport.HandlerFunc {
	return map[byte]transport.HandlerFunc{
		lanpackets.TypeReqJoin:        h.onReqJoin,
		lanpackets.TypeMapSize:        h.onMapSize,
		lanpackets.TypeChatToHost:     h.onChatToHost,
		lanpackets.TypePongToHost:     h.onPongToHost,
		lanpackets.TypeProtoBufPayload: h.onProtoBufPayload,
		lanpackets.TypeLeaveReq:       h.onLeaveReq,
	}
}

// onReqJoin builds and sends the consolidated join-reply batch
// (spec.md §4.E, steps 1-7). IPv6 client sockets fail the session here.
func (h *handler) onReqJoin(payload []byte) error {
	req, err := lanpackets.ParseReqJoin(payload)
	if err != nil {
		return fmt.Errorf("lobby: %w", err)
	}

	if h.clientAddr.To4() == nil {
		if err := h.snk.Send(h.ctx, model.DisconnectMsg{
			Reason:  model.DisconnectReasonUnknown,
			Message: ErrIpv6NotSupported.Error(),
		}); err != nil {
			slog.Debug("lobby: notifying sink of ipv6 rejection failed", "err", err)
		}
		return ErrIpv6NotSupported
	}

	slots := h.info.SlotInfo
	slotPayload, err := lanpackets.SlotInfo(slots.Slots, slots.MySlotPlayer, h.clientAddr)
	if err != nil {
		return fmt.Errorf("lobby: encoding slot info: %w", err)
	}

	frames := make([]wire.Frame, 0, 8+2*len(slots.PlayerInfos))
	frames = append(frames,
		wire.Frame{Type: lanpackets.TypeSlotInfoJoin, Payload: slotPayload},
		wire.Frame{Type: lanpackets.TypeSlotInfo, Payload: slotPayload},
	)
	for _, p := range slots.PlayerInfos {
		frames = append(frames, wire.Frame{Type: lanpackets.TypePlayerInfo, Payload: lanpackets.PlayerInfo(p.SlotPlayerID, p.Name)})
	}
	for _, p := range slots.PlayerInfos {
		frames = append(frames, wire.Frame{Type: lanpackets.TypePlayerSkinsMessage, Payload: lanpackets.PlayerSkinsMessage(p.SlotPlayerID)})
	}
	frames = append(frames, wire.Frame{Type: lanpackets.TypePlayerProfileMessage, Payload: lanpackets.PlayerProfileMessage(slots.MySlotPlayer, req.PlayerName)})
	for _, p := range slots.PlayerInfos {
		frames = append(frames, wire.Frame{Type: lanpackets.TypePlayerProfileMessage, Payload: lanpackets.PlayerProfileMessage(p.SlotPlayerID, p.Name)})
	}

	if obID, ok := slots.ObPlayerID(); ok {
		const obName = "FLO"
		frames = append(frames,
			wire.Frame{Type: lanpackets.TypePlayerInfo, Payload: lanpackets.PlayerInfo(obID, obName)},
			wire.Frame{Type: lanpackets.TypePlayerSkinsMessage, Payload: lanpackets.PlayerSkinsMessage(obID)},
			wire.Frame{Type: lanpackets.TypePlayerProfileMessage, Payload: lanpackets.PlayerProfileMessage(obID, obName)},
		)
	}

	frames = append(frames, wire.Frame{
		Type:    lanpackets.TypeMapCheck,
		Payload: lanpackets.MapCheck(h.info.MapFileSize, h.info.MapCRC32, h.info.GameSettings),
	})

	if err := h.client.SendMany(frames); err != nil {
		return fmt.Errorf("lobby: sending join reply: %w", err)
	}
	return nil
}

func (h *handler) onMapSize(payload []byte) error {
	ms, err := lanpackets.ParseMapSize(payload)
	if err != nil {
		return fmt.Errorf("lobby: %w", err)
	}
	slog.Debug("lobby: map size report", "file_size", ms.FileSize)
	return nil
}

func (h *handler) onChatToHost(payload []byte) error {
	if _, err := lanpackets.ParseChatToHost(payload); err != nil {
		return fmt.Errorf("lobby: %w", err)
	}
	f := wire.Frame{Type: lanpackets.TypeHostChat, Payload: lanpackets.HostChat(lanpackets.DisabledChatNotice)}
	if err := h.client.Send(f); err != nil {
		return fmt.Errorf("lobby: replying to chat: %w", err)
	}
	return nil
}

func (h *handler) onPongToHost(payload []byte) error {
	pong, err := lanpackets.ParsePongToHost(payload)
	if err != nil {
		return fmt.Errorf("lobby: %w", err)
	}
	rtt := time.Since(h.baseT).Milliseconds() - pong.ElapsedMillis
	slog.Debug("lobby: ping rtt", "millis", rtt)
	return nil
}

func (h *handler) onProtoBufPayload(payload []byte) error {
	pp, err := lanpackets.ParseProtoBufPayload(payload)
	if err != nil {
		return fmt.Errorf("lobby: %w", err)
	}

	switch pp.Kind {
	case model.ProtoPayloadPlayerProfile:
		h.joinState.NumProfile++
		if err := h.echoProtoBufPayload(lanpackets.ProtoKindPlayerProfile, pp.Payload); err != nil {
			return err
		}
	case model.ProtoPayloadPlayerSkins:
		h.joinState.NumSkins++
		if err := h.echoProtoBufPayload(lanpackets.ProtoKindPlayerSkins, pp.Payload); err != nil {
			return err
		}
	case model.ProtoPayloadPlayerUnknown5:
		// Accepted exactly once with no documented semantics; the count
		// is asserted but the payload is never interpreted (spec.md §9).
		h.joinState.NumUnk5++
		if err := h.echoProtoBufPayload(lanpackets.ProtoKindPlayerUnknown5, pp.Payload); err != nil {
			return err
		}
		slog.Debug("lobby: player unknown5 payload", "bytes", len(pp.Payload))
	case model.ProtoPayloadUnknown2:
		slog.Warn("lobby: dropping Unknown2 proto payload")
		return nil
	default:
		slog.Warn("lobby: dropping unrecognized proto payload", "raw_id", fmt.Sprintf("%#x", pp.RawID))
		return nil
	}

	if !h.joinState.Valid() {
		return fmt.Errorf("lobby: join state invariant violated: %+v", h.joinState)
	}

	return h.tryBecomeReady()
}

func (h *handler) echoProtoBufPayload(kind byte, body []byte) error {
	f := wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(kind, body)}
	if err := h.client.Send(f); err != nil {
		return fmt.Errorf("lobby: echoing proto payload: %w", err)
	}
	return nil
}

func (h *handler) onLeaveReq(_ []byte) error {
	slog.Warn("lobby: ignoring LeaveReq during lobby phase")
	return nil
}

// tryBecomeReady performs the one-time readiness transition (spec.md
// §4.E): report Joined to the node and notify the sink. Idempotent via
// sentJoined.
func (h *handler) tryBecomeReady() error {
	if h.sentJoined || !h.joinState.Ready() {
		return nil
	}
	h.sentJoined = true

	h.node.ReportSlotStatus(model.SlotClientStatusJoined)

	return h.snk.Send(h.ctx, model.LanGameJoinedMsg{LobbyName: h.lobbyName()})
}

func (h *handler) lobbyName() string {
	if h.cfg.LobbyName != "" {
		return h.cfg.LobbyName
	}
	return fmt.Sprintf("%s#%d", h.info.Game.Name, h.info.Game.PlayerID)
}

// checkStart evaluates should_start and, the first time it holds, runs
// the countdown sequence to completion (spec.md §4.E "Start transition").
func (h *handler) checkStart() (Action, bool, error) {
	if h.starting {
		return 0, false, nil
	}
	if !h.joinState.Ready() {
		return 0, false, nil
	}
	if h.nodeStatus != model.NodeGameStatusLoading && h.nodeStatus != model.NodeGameStatusRunning {
		return 0, false, nil
	}

	h.starting = true
	action, err := h.runStart()
	return action, true, err
}

// runStart sends the current SlotInfo, starts the countdown, waits out
// the fixed and/or notifier-gated windows, then ends the countdown
// (spec.md §4.E, §5 timeouts).
func (h *handler) runStart() (Action, error) {
	slots := h.info.SlotInfo
	slotPayload, err := lanpackets.SlotInfo(slots.Slots, slots.MySlotPlayer, net.IPv4zero)
	if err != nil {
		return 0, fmt.Errorf("lobby: encoding start slot info: %w", err)
	}
	if err := h.client.Send(wire.Frame{Type: lanpackets.TypeSlotInfo, Payload: slotPayload}); err != nil {
		return 0, fmt.Errorf("lobby: sending start slot info: %w", err)
	}
	if err := h.client.Send(wire.Frame{Type: lanpackets.TypeCountDownStart, Payload: lanpackets.CountDownStart}); err != nil {
		return 0, fmt.Errorf("lobby: sending countdown start: %w", err)
	}

	if err := sleepCtx(h.ctx, h.cfg.PostStartWait); err != nil {
		return 0, err
	}

	if h.countdownSync != nil {
		select {
		case <-h.countdownSync:
		case <-time.After(h.cfg.NotifierCeiling):
		case <-h.ctx.Done():
			return 0, h.ctx.Err()
		}
	} else if err := sleepCtx(h.ctx, h.cfg.PostNotifierWait); err != nil {
		return 0, err
	}

	if err := h.client.Send(wire.Frame{Type: lanpackets.TypeCountDownEnd, Payload: lanpackets.CountDownEnd}); err != nil {
		return 0, fmt.Errorf("lobby: sending countdown end: %w", err)
	}
	return ActionStart, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
