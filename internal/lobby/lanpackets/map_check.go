package lanpackets

import (
	"bytes"
	"encoding/binary"
)

// MapCheck encodes the final join-reply frame: file size, crc32, and the
// opaque game-settings blob passed through verbatim (spec.md §4.E step 7).
func MapCheck(fileSize uint32, crc32 uint32, gameSettings []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, fileSize)
	binary.Write(&buf, binary.BigEndian, crc32)
	binary.Write(&buf, binary.BigEndian, uint32(len(gameSettings)))
	buf.Write(gameSettings)
	return buf.Bytes()
}

// MapSize is the client->host packet logged and otherwise ignored
// (spec.md §4.E: "MapSize — log only").
type MapSize struct {
	FileSize uint32
}

func ParseMapSize(payload []byte) (MapSize, error) {
	if len(payload) < 4 {
		return MapSize{}, errShortPacket("MapSize", 4, len(payload))
	}
	return MapSize{FileSize: binary.BigEndian.Uint32(payload)}, nil
}
