package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is 1 byte type id + 4 bytes big-endian payload length,
// generalized from the teacher's 2-byte little-endian length-only header in
// internal/protocol/packet.go (the teacher's header carries no type id
// because it multiplexes opcodes inside the payload instead; this protocol
// needs the type id outside the payload so DispatchStrict/DispatchLenient
// can route before touching the payload bytes).
const headerSize = 5

// MaxPayloadSize bounds a single frame's payload to guard against a
// corrupt or hostile length prefix driving an unbounded allocation.
const MaxPayloadSize = 16 << 20 // 16 MiB

// Encode writes one frame to w as [type:1][length:4 BE][payload].
func Encode(w io.Writer, f Frame) error {
	header := make([]byte, headerSize)
	header[0] = f.Type
	binary.BigEndian.PutUint32(header[1:], uint32(len(f.Payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return fmt.Errorf("writing frame payload: %w", err)
		}
	}
	return nil
}

// Decode reads one frame from r.
func Decode(r io.Reader) (Frame, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Frame{}, fmt.Errorf("reading frame header: %w", err)
	}

	typeID := header[0]
	payloadLen := binary.BigEndian.Uint32(header[1:])
	if payloadLen > MaxPayloadSize {
		return Frame{}, fmt.Errorf("frame payload %d exceeds max %d", payloadLen, MaxPayloadSize)
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, fmt.Errorf("reading frame payload: %w", err)
		}
	}

	return Frame{Type: typeID, Payload: payload}, nil
}
