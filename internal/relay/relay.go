// Package relay owns LanGame: the per-game supervisor tying together the
// mDNS advertiser, the LAN proxy's accept loop, the node stream, and
// (optionally) the control-plane link under one cancelable scope
// (spec.md §5, SPEC_FULL.md §5). Grounded on the teacher's
// cmd/loginserver/main.go ctx-cancel-on-signal shape, generalized from a
// top-level process loop into a reusable, caller-constructed scope object.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/floclient/internal/advertiser"
	"github.com/udisondev/floclient/internal/lanproxy"
	"github.com/udisondev/floclient/internal/lobby"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/nodeauth"
	"github.com/udisondev/floclient/internal/nodestream"
	"github.com/udisondev/floclient/internal/sink"
)

// Params is everything Create needs to stand up one LAN game.
type Params struct {
	Info model.LanGameInfo

	NodeAddr     string // dial address of the relay node
	NodeToken    []byte // join token presented to, and verified against, the node
	NodeTokenKey []byte

	LobbyBindAddr string // "" selects an OS-assigned ephemeral port

	Sink sink.Sink

	LobbyConfig lobby.Config // zero value selects lobby.DefaultConfig() behavior

	// PlayerEvents is the control-plane notification feed (status changes,
	// ping-map updates) multiplexed into the client during the in-game
	// bridge phase (spec.md §4.D). Nil if no control-plane session is
	// wired to this LanGame.
	PlayerEvents <-chan model.OutgoingMessage
}

// LanGame is one running impersonated LAN game: an advertised mDNS
// record, a single-client proxy listener, and a node stream, all torn
// down together on Shutdown.
type LanGame struct {
	id string

	ln  *lanproxy.Listener
	adv *advertiser.Advertiser

	cancel   context.CancelFunc
	shutdown *notifyOnce
	done     chan error
}

// Create verifies the node token, binds the client-facing listener,
// builds the advertiser around the bound port, and starts the
// advertiser/proxy/node-stream trio under one errgroup (spec.md §5: "three
// independent async endpoints... multiplexed, cancelable"). The returned
// LanGame is already running; call Shutdown to tear it down.
func Create(parentCtx context.Context, params Params) (*LanGame, error) {
	id := uuid.NewString()

	if _, err := nodeauth.Verify(params.NodeToken, params.NodeTokenKey); err != nil {
		return nil, fmt.Errorf("relay[%s]: verifying node token: %w", id, err)
	}

	ln, err := lanproxy.Listen(params.LobbyBindAddr)
	if err != nil {
		return nil, fmt.Errorf("relay[%s]: %w", id, err)
	}

	adv, err := advertiser.New(advertiser.ServiceInfo{
		GameID:      params.Info.Game.GameID,
		GameName:    params.Info.Game.Name,
		MapPath:     params.Info.Game.MapPath,
		MapSHA1:     params.Info.Game.MapSHA1,
		MapChecksum: params.Info.Game.MapChecksum,
		Port:        ln.Port(),
	})
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("relay[%s]: building advertiser: %w", id, err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	g := &LanGame{
		id:       id,
		ln:       ln,
		adv:      adv,
		cancel:   cancel,
		shutdown: newNotifyOnce(),
		done:     make(chan error, 1),
	}

	go g.run(ctx, params)

	return g, nil
}

// run drives the trio to completion and stashes the aggregated result for
// Shutdown to collect.
func (g *LanGame) run(ctx context.Context, params Params) {
	if params.LobbyConfig == (lobby.Config{}) {
		params.LobbyConfig = lobby.DefaultConfig()
	}

	eg, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var all error
	collect := func(err error) error {
		mu.Lock()
		all = multierr.Append(all, err)
		mu.Unlock()
		return err
	}

	eg.Go(func() error {
		return collect(g.adv.Run(gctx, g.shutdown.C()))
	})

	node, err := nodestream.Connect(gctx, params.NodeAddr)
	pending := nodestream.NewPendingSender()
	var forwarder nodestream.Forwarder
	var statusCh <-chan model.NodeGameStatus
	if err != nil {
		slog.Warn("relay: node dial failed, lobby starts with a buffering placeholder", "game_id", g.id, "err", err)
	} else {
		pending.Attach(node)
		forwarder = node
		statusCh = node.StatusUpdates()
		eg.Go(func() error { return collect(node.Run(gctx)) })
	}

	eg.Go(func() error {
		return collect(g.ln.Accept(gctx, lanproxy.Session{
			Info:         params.Info,
			Sender:       pending,
			Node:         forwarder,
			StatusCh:     statusCh,
			Sink:         params.Sink,
			LobbyConfig:  params.LobbyConfig,
			PlayerEvents: params.PlayerEvents,
		}))
	})

	eg.Wait()
	g.done <- all
	close(g.done)
}

// Shutdown cancels the scope, fires the advertiser's drain signal, and
// waits for every component to finish, aggregating whatever errors come
// back via multierr rather than surfacing only the first (spec.md §5,
// grounded on the teacher's multi-source error surfacing in
// acceptLoop/handleConnection, generalized from "log and continue" to
// "collect and return" since Shutdown is a caller-facing API here).
func (g *LanGame) Shutdown() error {
	g.shutdown.Fire()
	g.cancel()

	var err error
	for e := range g.done {
		err = multierr.Append(err, e)
	}
	if closeErr := g.ln.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("closing lan listener: %w", closeErr))
	}
	return err
}

// ID returns the relay's own correlation id, for logging.
func (g *LanGame) ID() string {
	return g.id
}
