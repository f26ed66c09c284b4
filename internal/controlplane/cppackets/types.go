// Package cppackets defines the control-plane wire dialect (spec.md §4.G):
// type ids and binary encodings for the handshake and the steady-state
// packet set. Grounded on the same one-file-per-packet convention as
// internal/lobby/lanpackets; Ping/Pong reuse the transport-generic
// wire.TypePing/TypePong (spec.md §4.G: "rewritten to Pong ... without
// invoking dispatch"), unlike the lobby's own named heartbeat pair.
package cppackets

const (
	TypeConnectLobby       byte = 0x01
	TypeConnectLobbyAccept byte = 0x02
	TypeConnectLobbyReject byte = 0x03
	TypeLobbyDisconnect    byte = 0x04
	TypeGameInfo           byte = 0x05
	TypeGamePlayerEnter    byte = 0x06
	TypeGamePlayerLeave    byte = 0x07
	TypeGamePlayerSlotUpdate byte = 0x08
	TypePlayerSessionUpdate byte = 0x09
	TypeListNodes          byte = 0x0A
	TypeGameSelectNode     byte = 0x0B
	TypeGamePlayerPingMapUpdate   byte = 0x0C
	TypeGamePlayerPingMapSnapshot byte = 0x0D
)
