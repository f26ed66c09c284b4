// Package relay owns the top-level LanGame supervisor: the scope token a
// game's advertiser, proxy, and control-plane link all subscribe to, plus
// the sentinel errors those components and the lobby handler surface.
// Grounded on internal/game/instance/errors.go's flat var block.
//
// The lobby-phase and control-plane-phase sentinels are defined in their
// owning packages (internal/lobby, internal/controlplane) and re-exported
// here rather than the other way around: relay imports lobby (directly
// and through lanproxy) and controlplane, so those packages cannot import
// relay for shared error types without creating a cycle.
package relay

import (
	"errors"

	"github.com/udisondev/floclient/internal/controlplane"
	"github.com/udisondev/floclient/internal/lobby"
	"github.com/udisondev/floclient/internal/nodeauth"
)

var (
	// ErrStreamClosed is returned when a peer closes a stream this side
	// was actively reading (spec.md §7).
	ErrStreamClosed = errors.New("stream closed by peer")

	// ErrTaskCancelled marks a watch/notify producer going away out from
	// under a consumer; treated as a fatal session error.
	ErrTaskCancelled = errors.New("task cancelled")

	// ErrIpv6NotSupported re-exports the lobby package's sentinel under
	// the relay package's error surface (spec.md §7).
	ErrIpv6NotSupported = lobby.ErrIpv6NotSupported

	// ErrInvalidNodeToken re-exports nodeauth's sentinel under the
	// relay package's error surface (spec.md §7).
	ErrInvalidNodeToken = nodeauth.ErrInvalidNodeToken
)

// UnexpectedPacketError re-exports the lobby package's frame-type error so
// callers working at the relay layer can errors.As without importing
// internal/lobby directly.
type UnexpectedPacketError = lobby.UnexpectedPacketError

// RejectedError re-exports the control-plane package's rejection error.
type RejectedError = controlplane.RejectedError
