package cppackets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ConnectLobby is the first frame the client sends (spec.md §4.G).
type ConnectLobby struct {
	Version int32
	Token   []byte
}

func (p ConnectLobby) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, p.Version)
	binary.Write(&buf, binary.BigEndian, uint16(len(p.Token)))
	buf.Write(p.Token)
	return buf.Bytes()
}

func ParseConnectLobby(payload []byte) (ConnectLobby, error) {
	r := bytes.NewReader(payload)
	var version int32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return ConnectLobby{}, fmt.Errorf("parsing ConnectLobby version: %w", err)
	}
	var tokenLen uint16
	if err := binary.Read(r, binary.BigEndian, &tokenLen); err != nil {
		return ConnectLobby{}, fmt.Errorf("parsing ConnectLobby token length: %w", err)
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(r, token); err != nil {
		return ConnectLobby{}, fmt.Errorf("parsing ConnectLobby token: %w", err)
	}
	return ConnectLobby{Version: version, Token: token}, nil
}

// ConnectLobbyAccept carries the freshly established PlayerSession, encoded
// inline (player id, name, source, status, optional game id).
type ConnectLobbyAccept struct {
	PlayerID     int32
	PlayerName   string
	Source       byte // model.PlayerSource
	Status       byte // model.PlayerStatus
	HasGameID    bool
	GameID       int32
}

func (p ConnectLobbyAccept) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, p.PlayerID)
	writeString(&buf, p.PlayerName)
	buf.WriteByte(p.Source)
	buf.WriteByte(p.Status)
	buf.WriteByte(boolByte(p.HasGameID))
	binary.Write(&buf, binary.BigEndian, p.GameID)
	return buf.Bytes()
}

func ParseConnectLobbyAccept(payload []byte) (ConnectLobbyAccept, error) {
	r := bytes.NewReader(payload)
	var out ConnectLobbyAccept
	if err := binary.Read(r, binary.BigEndian, &out.PlayerID); err != nil {
		return out, fmt.Errorf("parsing ConnectLobbyAccept player id: %w", err)
	}
	name, err := readString(r)
	if err != nil {
		return out, fmt.Errorf("parsing ConnectLobbyAccept name: %w", err)
	}
	out.PlayerName = name
	if out.Source, err = r.ReadByte(); err != nil {
		return out, fmt.Errorf("parsing ConnectLobbyAccept source: %w", err)
	}
	if out.Status, err = r.ReadByte(); err != nil {
		return out, fmt.Errorf("parsing ConnectLobbyAccept status: %w", err)
	}
	hasGame, err := r.ReadByte()
	if err != nil {
		return out, fmt.Errorf("parsing ConnectLobbyAccept has-game flag: %w", err)
	}
	out.HasGameID = hasGame != 0
	if err := binary.Read(r, binary.BigEndian, &out.GameID); err != nil {
		return out, fmt.Errorf("parsing ConnectLobbyAccept game id: %w", err)
	}
	return out, nil
}

// ConnectLobbyReject carries the reason the server refused the handshake.
type ConnectLobbyReject struct {
	Reason byte // model.RejectReason
}

func (p ConnectLobbyReject) Encode() []byte {
	return []byte{p.Reason}
}

func ParseConnectLobbyReject(payload []byte) (ConnectLobbyReject, error) {
	if len(payload) < 1 {
		return ConnectLobbyReject{}, fmt.Errorf("ConnectLobbyReject packet too short")
	}
	return ConnectLobbyReject{Reason: payload[0]}, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
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
