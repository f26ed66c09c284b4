// Package nodepackets defines the small wire dialect spoken on the
// relay-node stream: a client->node SlotClientStatus report and a
// node->client NodeGameStatus report; everything else is opaque game-phase
// bytes forwarded verbatim (spec.md §4.F / §6 "Node TCP"). Grounded on the
// lanpackets/cppackets one-file-per-packet convention.
package nodepackets

import (
	"fmt"

	"github.com/udisondev/floclient/internal/model"
)

// TypeSlotStatusReport is the only node-bound packet type this client
// originates; in the node->client direction only TypeNodeStatus is parsed.
const TypeSlotStatusReport byte = 0x01

// SlotStatusReport encodes a SlotClientStatus as a single byte payload.
func SlotStatusReport(status model.SlotClientStatus) []byte {
	return []byte{byte(status)}
}

// ParseSlotStatusReport is exposed for tests and for a node-side
// implementation exercising the same wire dialect.
func ParseSlotStatusReport(payload []byte) (model.SlotClientStatus, error) {
	if len(payload) != 1 {
		return 0, fmt.Errorf("slot status report: want 1 byte, got %d", len(payload))
	}
	return model.SlotClientStatus(payload[0]), nil
}
