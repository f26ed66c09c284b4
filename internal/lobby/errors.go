package lobby

import (
	"errors"
	"fmt"
)

// ErrIpv6NotSupported is fatal at lobby accept time: the game client's own
// socket reported an address the canonical slot info can't embed
// (spec.md §6, §7).
var ErrIpv6NotSupported = errors.New("ipv6 client sockets are not supported")

// UnexpectedPacketError wraps a frame type id outside the lobby-phase
// whitelist (spec.md §4.E "Anything else: fatal, terminates the session
// with UnexpectedPacket"; §9 re-architecture note: unknown ids are a
// first-class variant at the ProtoBufPayload layer, but at the top-level
// lobby dispatch an out-of-whitelist id is fatal, not a warn-and-drop).
type UnexpectedPacketError struct {
	Type byte
}

func (e *UnexpectedPacketError) Error() string {
	return fmt.Sprintf("unexpected lobby packet type %#x", e.Type)
}

func newUnexpectedPacketError(t byte) error {
	return &UnexpectedPacketError{Type: t}
}
