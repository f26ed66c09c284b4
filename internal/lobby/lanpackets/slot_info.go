package lanpackets

import (
	"bytes"
	"encoding/binary"
	"net"

	"github.com/udisondev/floclient/internal/model"
)

// SlotInfo builds the payload shared by SlotInfoJoin and SlotInfo: the
// canonical slot table followed by the local player's own slot id
// (spec.md §4.E step 1/2), then localAddr as four IPv4 bytes (zero when it
// has no IPv4 form). The join reply uses the client's address for both the
// SlotInfoJoin and the SlotInfo frame; the re-send during Start passes a
// zero IP.
func SlotInfo(slots []model.SlotEntry, mySlotPlayer int32, localAddr net.IP) ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(slots))); err != nil {
		return nil, err
	}
	for _, s := range slots {
		buf.WriteByte(boolByte(s.Occupied))
		buf.WriteByte(s.Race)
		buf.WriteByte(s.Color)
		buf.WriteByte(s.Team)
		buf.WriteByte(s.Handicap)
		buf.WriteByte(byte(s.Download))
	}

	if err := binary.Write(&buf, binary.BigEndian, mySlotPlayer); err != nil {
		return nil, err
	}

	ip4 := localAddr.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	buf.Write(ip4)

	return buf.Bytes(), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
