package cppackets

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// GameInfo describes one game and its currently assigned node, if any.
type GameInfo struct {
	GameID    int32
	Name      string
	HasNodeID bool
	NodeID    int32
}

func ParseGameInfo(payload []byte) (GameInfo, error) {
	r := bytes.NewReader(payload)
	var out GameInfo
	if err := binary.Read(r, binary.BigEndian, &out.GameID); err != nil {
		return out, fmt.Errorf("parsing GameInfo id: %w", err)
	}
	name, err := readString(r)
	if err != nil {
		return out, fmt.Errorf("parsing GameInfo name: %w", err)
	}
	out.Name = name
	hasNode, err := r.ReadByte()
	if err != nil {
		return out, fmt.Errorf("parsing GameInfo has-node flag: %w", err)
	}
	out.HasNodeID = hasNode != 0
	if err := binary.Read(r, binary.BigEndian, &out.NodeID); err != nil {
		return out, fmt.Errorf("parsing GameInfo node id: %w", err)
	}
	return out, nil
}

func (p GameInfo) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, p.GameID)
	writeString(&buf, p.Name)
	buf.WriteByte(boolByte(p.HasNodeID))
	binary.Write(&buf, binary.BigEndian, p.NodeID)
	return buf.Bytes()
}

// GameSelectNode names the node the lobby server picked for a game.
type GameSelectNode struct {
	NodeID int32
}

func ParseGameSelectNode(payload []byte) (GameSelectNode, error) {
	if len(payload) < 4 {
		return GameSelectNode{}, fmt.Errorf("GameSelectNode packet too short")
	}
	return GameSelectNode{NodeID: int32(binary.BigEndian.Uint32(payload))}, nil
}

func (p GameSelectNode) Encode() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(p.NodeID))
	return buf
}
