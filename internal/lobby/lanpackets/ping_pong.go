package lanpackets

import "encoding/binary"

// PingFromHost encodes the lobby's own heartbeat, carrying elapsed
// milliseconds since the handler's base_t (spec.md §4.E).
func PingFromHost(elapsedMillis int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(elapsedMillis))
	return buf
}

// PongToHost is the client's reply, carrying back the elapsed-millis value
// of the PingFromHost it answers; the handler subtracts it from its own
// current elapsed time since base_t to get the RTT and otherwise discards
// it (spec.md §4.E).
type PongToHost struct {
	ElapsedMillis int64
}

func ParsePongToHost(payload []byte) (PongToHost, error) {
	if len(payload) < 8 {
		return PongToHost{}, errShortPacket("PongToHost", 8, len(payload))
	}
	return PongToHost{ElapsedMillis: int64(binary.BigEndian.Uint64(payload))}, nil
}
