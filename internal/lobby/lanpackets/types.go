// Package lanpackets defines the client-facing LAN lobby wire dialect:
// type ids and the binary encoding of each payload named in spec.md §4.E.
// Grounded on the teacher's internal/login/serverpackets and
// internal/gslistener/clientpackets packages (one file per packet, a
// package-level Encode function or a Parse method, sequential
// offset/binary.Write field encoding) — generalized from little-endian
// fixed-size opcode-in-payload packets to payloads whose type id already
// lives in the wire.Frame header (internal/wire).
package lanpackets

// Type ids for frames exchanged on the client-facing LAN connection.
// 0xF0/0xF1 (wire.TypePing/TypePong) are never used here: spec.md §4.E
// names the lobby's own heartbeat pair PingFromHost/PongToHost instead of
// the transport-generic Ping/Pong, because the lobby ping carries an
// elapsed-millis payload the generic heartbeat does not.
const (
	TypeReqJoin             byte = 0x01
	TypeSlotInfoJoin         byte = 0x02
	TypeSlotInfo             byte = 0x03
	TypePlayerInfo           byte = 0x04
	TypePlayerSkinsMessage   byte = 0x05
	TypePlayerProfileMessage byte = 0x06
	TypeMapCheck             byte = 0x07
	TypeMapSize              byte = 0x08
	TypeChatToHost           byte = 0x09
	TypeHostChat             byte = 0x0A
	TypePongToHost           byte = 0x0B
	TypePingFromHost         byte = 0x0C
	TypeProtoBufPayload      byte = 0x0D
	TypeLeaveReq             byte = 0x0E
	TypeCountDownStart       byte = 0x0F
	TypeCountDownEnd         byte = 0x10
	TypePlayerEvent          byte = 0x11
)

// ProtoBufPayload inner message kinds (spec.md §4.E demux table).
const (
	ProtoKindPlayerProfile byte = 0x01
	ProtoKindPlayerSkins   byte = 0x02
	ProtoKindPlayerUnknown5 byte = 0x03
	ProtoKindUnknown2      byte = 0x04
)

// Whitelist is the set of type ids the lobby phase accepts before it has
// finished; anything outside it is fatal (spec.md §4.E "Anything else").
var Whitelist = map[byte]struct{}{
	TypeReqJoin:        {},
	TypeMapSize:        {},
	TypeChatToHost:     {},
	TypePongToHost:     {},
	TypeProtoBufPayload: {},
	TypeLeaveReq:       {},
}
