package lanpackets

import (
	"bytes"
	"encoding/binary"
	"io"
)

// PlayerInfo encodes a PlayerInfo(id, name) packet.
func PlayerInfo(slotPlayerID int32, name string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, slotPlayerID)
	writeString(&buf, name)
	return buf.Bytes()
}

// PlayerSkinsMessage encodes a zeroed PlayerSkinsMessage for slotPlayerID
// (spec.md §4.E: "all zeroed").
func PlayerSkinsMessage(slotPlayerID int32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, slotPlayerID)
	return buf.Bytes()
}

// PlayerProfileMessage encodes a PlayerProfileMessage(id, name).
func PlayerProfileMessage(slotPlayerID int32, name string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, slotPlayerID)
	writeString(&buf, name)
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
