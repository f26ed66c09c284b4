package cppackets

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// NodeEntry is one node as carried over the wire (ping is filled in by the
// server except where the relay re-annotates it per spec.md §4.G).
type NodeEntry struct {
	ID        int32
	Name      string
	Location  string
	CountryID int32
	Ping      int32
}

// ListNodes replaces the client's node registry wholesale.
type ListNodes struct {
	Nodes []NodeEntry
}

func ParseListNodes(payload []byte) (ListNodes, error) {
	r := bytes.NewReader(payload)
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return ListNodes{}, fmt.Errorf("parsing ListNodes count: %w", err)
	}
	nodes := make([]NodeEntry, 0, count)
	for i := 0; i < int(count); i++ {
		var n NodeEntry
		if err := binary.Read(r, binary.BigEndian, &n.ID); err != nil {
			return ListNodes{}, fmt.Errorf("parsing ListNodes[%d] id: %w", i, err)
		}
		name, err := readString(r)
		if err != nil {
			return ListNodes{}, fmt.Errorf("parsing ListNodes[%d] name: %w", i, err)
		}
		n.Name = name
		loc, err := readString(r)
		if err != nil {
			return ListNodes{}, fmt.Errorf("parsing ListNodes[%d] location: %w", i, err)
		}
		n.Location = loc
		if err := binary.Read(r, binary.BigEndian, &n.CountryID); err != nil {
			return ListNodes{}, fmt.Errorf("parsing ListNodes[%d] country id: %w", i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &n.Ping); err != nil {
			return ListNodes{}, fmt.Errorf("parsing ListNodes[%d] ping: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return ListNodes{Nodes: nodes}, nil
}

// Encode re-serializes an (annotated) node list, used only in tests to
// build fixture payloads.
func (p ListNodes) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(len(p.Nodes)))
	for _, n := range p.Nodes {
		binary.Write(&buf, binary.BigEndian, n.ID)
		writeString(&buf, n.Name)
		writeString(&buf, n.Location)
		binary.Write(&buf, binary.BigEndian, n.CountryID)
		binary.Write(&buf, binary.BigEndian, n.Ping)
	}
	return buf.Bytes()
}
