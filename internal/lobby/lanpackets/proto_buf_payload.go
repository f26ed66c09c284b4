package lanpackets

import (
	"github.com/udisondev/floclient/internal/model"
)

// ParseProtoBufPayload demuxes a ProtoBufPayload frame's inner kind byte
// into a first-class model.ProtoPayload, never panicking on an unrecognized
// id (spec.md §9 re-architecture note).
func ParseProtoBufPayload(payload []byte) (model.ProtoPayload, error) {
	if len(payload) < 1 {
		return model.ProtoPayload{}, errShortPacket("ProtoBufPayload", 1, len(payload))
	}
	kindByte := payload[0]
	body := payload[1:]

	switch kindByte {
	case ProtoKindPlayerProfile:
		return model.ProtoPayload{Kind: model.ProtoPayloadPlayerProfile, Payload: body}, nil
	case ProtoKindPlayerSkins:
		return model.ProtoPayload{Kind: model.ProtoPayloadPlayerSkins, Payload: body}, nil
	case ProtoKindPlayerUnknown5:
		return model.ProtoPayload{Kind: model.ProtoPayloadPlayerUnknown5, Payload: body}, nil
	case ProtoKindUnknown2:
		return model.ProtoPayload{Kind: model.ProtoPayloadUnknown2, Payload: body}, nil
	default:
		return model.ProtoPayload{Kind: model.ProtoPayloadUnknownValue, RawID: kindByte, Payload: body}, nil
	}
}

// EncodeProtoBufPayload re-wraps a kind byte and body for the echo-back
// replies the lobby handler sends for PlayerProfile/PlayerSkins/Unknown5.
func EncodeProtoBufPayload(kindByte byte, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = kindByte
	copy(out[1:], body)
	return out
}
