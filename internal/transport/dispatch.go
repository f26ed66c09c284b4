package transport

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/floclient/internal/wire"
)

// HandlerFunc processes one frame's payload.
type HandlerFunc func(payload []byte) error

// DispatchStrict routes f to the matching arm in handlers; an unmatched
// type id is an error (spec.md §4.A: "control-plane dispatch").
func DispatchStrict(f wire.Frame, handlers map[byte]HandlerFunc) error {
	h, ok := handlers[f.Type]
	if !ok {
		return fmt.Errorf("unexpected frame type %#x", f.Type)
	}
	return h(f.Payload)
}

// DispatchLenient routes f to the matching arm; an unmatched type id is
// logged and dropped rather than treated as fatal (spec.md §4.A: "LAN
// lobby phase, for types outside its whitelist").
func DispatchLenient(f wire.Frame, handlers map[byte]HandlerFunc) error {
	h, ok := handlers[f.Type]
	if !ok {
		slog.Warn("dropping unhandled frame", "type", fmt.Sprintf("%#x", f.Type))
		return nil
	}
	return h(f.Payload)
}
