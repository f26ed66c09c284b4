package cppackets

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PlayerSessionUpdate carries the same session shape as ConnectLobbyAccept.
type PlayerSessionUpdate struct {
	PlayerID   int32
	PlayerName string
	Source     byte
	Status     byte
	HasGameID  bool
	GameID     int32
}

func ParsePlayerSessionUpdate(payload []byte) (PlayerSessionUpdate, error) {
	r := bytes.NewReader(payload)
	var out PlayerSessionUpdate
	if err := binary.Read(r, binary.BigEndian, &out.PlayerID); err != nil {
		return out, fmt.Errorf("parsing PlayerSessionUpdate player id: %w", err)
	}
	name, err := readString(r)
	if err != nil {
		return out, fmt.Errorf("parsing PlayerSessionUpdate name: %w", err)
	}
	out.PlayerName = name
	if out.Source, err = r.ReadByte(); err != nil {
		return out, fmt.Errorf("parsing PlayerSessionUpdate source: %w", err)
	}
	if out.Status, err = r.ReadByte(); err != nil {
		return out, fmt.Errorf("parsing PlayerSessionUpdate status: %w", err)
	}
	hasGame, err := r.ReadByte()
	if err != nil {
		return out, fmt.Errorf("parsing PlayerSessionUpdate has-game flag: %w", err)
	}
	out.HasGameID = hasGame != 0
	if err := binary.Read(r, binary.BigEndian, &out.GameID); err != nil {
		return out, fmt.Errorf("parsing PlayerSessionUpdate game id: %w", err)
	}
	return out, nil
}
