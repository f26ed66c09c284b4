package nodepackets

import (
	"fmt"

	"github.com/udisondev/floclient/internal/model"
)

// TypeNodeStatus is the only packet type nodestream interprets in the
// node->client direction; everything else flows through unparsed
// (spec.md §4.F). It carries the relay node's NodeGameStatus, the signal
// the lobby handler's should_start check watches for.
const TypeNodeStatus byte = 0x02

// NodeStatus encodes a model.NodeGameStatus as a single byte payload.
func NodeStatus(status model.NodeGameStatus) []byte {
	return []byte{byte(status)}
}

// ParseNodeStatus is the receive-side counterpart.
func ParseNodeStatus(payload []byte) (model.NodeGameStatus, error) {
	if len(payload) != 1 {
		return 0, fmt.Errorf("node status: want 1 byte, got %d", len(payload))
	}
	return model.NodeGameStatus(payload[0]), nil
}
