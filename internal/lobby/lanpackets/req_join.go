package lanpackets

import (
	"bytes"
	"fmt"
)

// ReqJoin is the client's initial join request. The relay only needs to
// know it arrived — the game description it joins into was fixed at
// LanGame creation time — but the player name is carried for logging.
type ReqJoin struct {
	PlayerName string
}

func ParseReqJoin(payload []byte) (ReqJoin, error) {
	s, err := readString(bytes.NewReader(payload))
	if err != nil {
		return ReqJoin{}, fmt.Errorf("parsing ReqJoin: %w", err)
	}
	return ReqJoin{PlayerName: s}, nil
}
