// Package advertiser publishes the mDNS service record that lets an
// unmodified game client discover the impersonated LAN host (spec.md
// §4.B). Grounded on gslistener/server.go's goroutine-driven accept loop
// shape (ctx.Done() plus an explicit shutdown signal), generalized from
// "accept TCP connections" to "publish and later retract a service
// record" via github.com/hashicorp/mdns.
package advertiser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// drainWait is how long the advertiser keeps the record alive after a
// shutdown signal fires, so in-flight mDNS probes on the LAN see a
// consistent answer (spec.md §5).
const drainWait = time.Second

// ServiceInfo is the set of fields published in the service record
// (spec.md §4.B / §6 "mDNS").
type ServiceInfo struct {
	GameID       int32
	GameName     string
	MapPath      string // forward-slash normalized
	MapSHA1      [20]byte
	MapChecksum  uint32
	Port         int
}

// Advertiser owns one published mDNS service record.
type Advertiser struct {
	info   ServiceInfo
	server *mdns.Server
}

// New builds the mDNS service and zone for info and starts the responder,
// which answers queries from then on; Run keeps it alive until shutdown and
// then tears it down.
func New(info ServiceInfo) (*Advertiser, error) {
	if info.Port <= 0 {
		return nil, fmt.Errorf("advertiser: invalid port %d", info.Port)
	}

	txt := []string{
		fmt.Sprintf("game_id=%d", info.GameID),
		fmt.Sprintf("map_path=%s", normalizeMapPath(info.MapPath)),
		fmt.Sprintf("map_sha1=%x", info.MapSHA1),
		fmt.Sprintf("map_checksum=%d", info.MapChecksum),
	}

	svc, err := mdns.NewMDNSService(
		info.GameName,
		"_flogame._tcp",
		"",
		"",
		info.Port,
		nil,
		txt,
	)
	if err != nil {
		return nil, fmt.Errorf("building mdns service record: %w", err)
	}

	srv, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return nil, fmt.Errorf("starting mdns responder: %w", err)
	}

	return &Advertiser{info: info, server: srv}, nil
}

// Run blocks until ctx is done or shutdown fires, then drains for one
// second before tearing down the mDNS responder.
func (a *Advertiser) Run(ctx context.Context, shutdown <-chan struct{}) error {
	slog.Info("advertising lan game", "game_id", a.info.GameID, "name", a.info.GameName, "port", a.info.Port)

	select {
	case <-ctx.Done():
	case <-shutdown:
	}

	slog.Debug("advertiser draining", "game_id", a.info.GameID, "wait", drainWait)
	time.Sleep(drainWait)

	if err := a.server.Shutdown(); err != nil {
		return fmt.Errorf("shutting down mdns responder: %w", err)
	}
	return nil
}

func normalizeMapPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
