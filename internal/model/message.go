package model

// OutgoingMessage is the closed set of values the control-plane (and, for
// LanGameJoined, the lobby handler) emits into the user-facing sink
// (internal/sink). A Go interface with unexported marker methods models the
// spec's tagged union without reflection at the call site — callers type
// switch on the concrete type.
type OutgoingMessage interface {
	isOutgoingMessage()
}

type PlayerSessionMsg struct{ Session PlayerSession }

func (PlayerSessionMsg) isOutgoingMessage() {}

type DisconnectMsg struct {
	Reason  DisconnectReason
	Message string
}

func (DisconnectMsg) isOutgoingMessage() {}

type CurrentGameInfoMsg struct{ Game GameInfo }

func (CurrentGameInfoMsg) isOutgoingMessage() {}

type GamePlayerEnterMsg struct{ Raw []byte }

func (GamePlayerEnterMsg) isOutgoingMessage() {}

type GamePlayerLeaveMsg struct{ Raw []byte }

func (GamePlayerLeaveMsg) isOutgoingMessage() {}

type GamePlayerSlotUpdateMsg struct{ Raw []byte }

func (GamePlayerSlotUpdateMsg) isOutgoingMessage() {}

type PlayerSessionUpdateMsg struct{ Session PlayerSession }

func (PlayerSessionUpdateMsg) isOutgoingMessage() {}

type ListNodesMsg struct{ Nodes []Node }

func (ListNodesMsg) isOutgoingMessage() {}

type GameSelectNodeMsg struct{ NodeID int32 }

func (GameSelectNodeMsg) isOutgoingMessage() {}

type GamePlayerPingMapUpdateMsg struct{ Raw []byte }

func (GamePlayerPingMapUpdateMsg) isOutgoingMessage() {}

type GamePlayerPingMapSnapshotMsg struct{ Raw []byte }

func (GamePlayerPingMapSnapshotMsg) isOutgoingMessage() {}

// LanGameJoinedMsg is emitted by the lobby handler (not the control-plane)
// the first time a session becomes ready (spec.md §4.E).
type LanGameJoinedMsg struct{ LobbyName string }

func (LanGameJoinedMsg) isOutgoingMessage() {}

// GameInfo is the lobby server's description of one in-progress game,
// including the node it has been assigned (if any).
type GameInfo struct {
	GameID  int32
	Name    string
	NodeID  *int32
}

// ProtoPayloadKind is the closed-with-escape-hatch set of inner types
// carried by a ProtoBufPayload lobby frame (spec.md §4.E, §9 re-architecture
// note: unknown ids are a first-class variant, never a panic).
type ProtoPayloadKind int

const (
	ProtoPayloadPlayerProfile ProtoPayloadKind = iota
	ProtoPayloadPlayerSkins
	ProtoPayloadPlayerUnknown5
	ProtoPayloadUnknown2
	ProtoPayloadUnknownValue
)

// ProtoPayload is one decoded ProtoBufPayload inner message.
type ProtoPayload struct {
	Kind    ProtoPayloadKind
	RawID   byte // populated when Kind == ProtoPayloadUnknownValue
	Payload []byte
}
