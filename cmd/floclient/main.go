package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/floclient/internal/config"
	"github.com/udisondev/floclient/internal/controlplane"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/sink"
)

const ConfigPath = "config/floclient.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	slog.Info("floclient starting")

	cfgPath := ConfigPath
	cfg, err := config.LoadClient(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "domain", cfg.Domain, "port", cfg.Port, "lobby_socket_port", cfg.LobbySocketPort)

	snk := sink.NewChan(32)
	go logOutgoingMessages(ctx, snk)

	dialCfg := controlplane.DialConfig{
		Config: controlplane.Config{
			Domain:  cfg.Domain,
			Port:    cfg.Port,
			Version: cfg.Version,
			Token:   []byte(cfg.Token),
		},
		MaxAttempts: cfg.ReconnectMaxAttempts,
	}

	if err := controlplane.Dial(ctx, dialCfg, snk); err != nil {
		return fmt.Errorf("control-plane session ended: %w", err)
	}

	return nil
}

// logOutgoingMessages drains the sink and logs every message; the game-
// creation decision (when to stand up an internal/relay.LanGame for a
// selected node) belongs to whatever UI or session layer sits above this
// process, not to this bootstrap.
func logOutgoingMessages(ctx context.Context, snk *sink.Chan) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-snk.Messages():
			logMessage(msg)
		}
	}
}

func logMessage(msg model.OutgoingMessage) {
	switch m := msg.(type) {
	case model.PlayerSessionMsg:
		slog.Info("session established", "player_id", m.Session.Player.ID, "name", m.Session.Player.Name)
	case model.PlayerSessionUpdateMsg:
		slog.Info("session updated", "player_id", m.Session.Player.ID, "in_game", m.Session.InGame())
	case model.DisconnectMsg:
		slog.Warn("disconnected", "reason", m.Reason, "message", m.Message)
	case model.CurrentGameInfoMsg:
		slog.Info("game info", "game_id", m.Game.GameID, "name", m.Game.Name)
	case model.ListNodesMsg:
		slog.Debug("node list updated", "count", len(m.Nodes))
	case model.GameSelectNodeMsg:
		slog.Info("node selected", "node_id", m.NodeID)
	case model.LanGameJoinedMsg:
		slog.Info("lan lobby joined", "lobby_name", m.LobbyName)
	default:
		slog.Debug("outgoing message", "type", fmt.Sprintf("%T", m))
	}
}
