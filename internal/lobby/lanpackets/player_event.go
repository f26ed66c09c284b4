package lanpackets

// PlayerEvent subtypes: which control-plane notification is being relayed
// into the client during the in-game bridge phase (spec.md §4.D).
const (
	PlayerEventStatusChange byte = 0x01
	PlayerEventPingMapUpdate byte = 0x02
)

// PlayerEvent encodes a subtype tag and an opaque body. The body format for
// each subtype is whatever the game client's in-game protocol expects; the
// relay does not interpret it, only forwards what the control-plane already
// decoded into model types (spec.md §4.D: "multiplexing PlayerEvent
// notifications ... into the client as applicable packets"). Called from
// internal/lanproxy.bridge's encodePlayerEvent during the in-game phase.
func PlayerEvent(subtype byte, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = subtype
	copy(out[1:], body)
	return out
}
