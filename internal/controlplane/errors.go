package controlplane

import (
	"fmt"

	"github.com/udisondev/floclient/internal/model"
)

// RejectedError wraps a ConnectLobbyReject reason. Terminal for the
// handshake; Connect never retries at this layer (spec.md §4.G, §7).
type RejectedError struct {
	Reason model.RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("connection request rejected: %s", e.Reason)
}
