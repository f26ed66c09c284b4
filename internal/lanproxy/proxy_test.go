package lanproxy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/floclient/internal/lobby"
	"github.com/udisondev/floclient/internal/lobby/lanpackets"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/sink"
	"github.com/udisondev/floclient/internal/slot"
	"github.com/udisondev/floclient/internal/wire"
)

type fakeSender struct {
	reports []model.SlotClientStatus
}

func (f *fakeSender) ReportSlotStatus(status model.SlotClientStatus) {
	f.reports = append(f.reports, status)
}

type fakeForwarder struct {
	forwarded chan wire.Frame
	bridge    chan wire.Frame
}

func newFakeForwarder() *fakeForwarder {
	return &fakeForwarder{forwarded: make(chan wire.Frame, 8), bridge: make(chan wire.Frame, 8)}
}

func (f *fakeForwarder) Forward(fr wire.Frame) error {
	f.forwarded <- fr
	return nil
}

func (f *fakeForwarder) BridgeFrames() <-chan wire.Frame { return f.bridge }

func twoPlayerInfo(t *testing.T) model.LanGameInfo {
	t.Helper()
	planned, err := slot.Plan(slot.Input{
		MyPlayerID: 1,
		Slots: []slot.Slot{
			{Occupied: true, PlayerID: 1, PlayerName: "me"},
			{Occupied: true, PlayerID: 2, PlayerName: "peer"},
		},
	})
	require.NoError(t, err)
	return model.LanGameInfo{
		Game:     model.LocalGameInfo{GameID: 1, Name: "testgame", PlayerID: 1},
		SlotInfo: planned,
	}
}

func fastLobbyConfig() lobby.Config {
	return lobby.Config{
		PingInterval:     time.Hour,
		PostStartWait:    10 * time.Millisecond,
		NotifierCeiling:  10 * time.Millisecond,
		PostNotifierWait: 10 * time.Millisecond,
	}
}

func TestListener_RejectsSecondConnection(t *testing.T) {
	ln, err := Listen("")
	require.NoError(t, err)
	defer ln.Close()

	statusCh := make(chan model.NodeGameStatus, 1)
	node := newFakeForwarder()
	sess := Session{
		Info:        twoPlayerInfo(t),
		Sender:      &fakeSender{},
		Node:        node,
		StatusCh:    statusCh,
		Sink:        sink.NewChan(8),
		LobbyConfig: fastLobbyConfig(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptErr := make(chan error, 1)
	go func() { acceptErr <- ln.Accept(ctx, sess) }()

	// The real client connects first and drives the lobby to completion,
	// then leaves so Accept returns.
	client, err := net.Dial("tcp", ln.ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	// Dial a second, unwanted connection and confirm it gets closed
	// without ever completing a handshake.
	extra, err := net.Dial("tcp", ln.ln.Addr().String())
	require.NoError(t, err)
	defer extra.Close()

	require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}}))

	// Drain join-reply frames (2x SlotInfo, 1x PlayerInfo, 1x Skins, 2x
	// Profile, 1x MapCheck = 7), and the subsequent echoed proto frames.
	for i := 0; i < 7; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}
	for _, kind := range []byte{lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerSkins, lanpackets.ProtoKindPlayerUnknown5} {
		require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(kind, nil)}))
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	statusCh <- model.NodeGameStatusLoading

	// SlotInfo re-send, countdown start, countdown end.
	_, err = wire.Decode(client)
	require.NoError(t, err)
	_, err = wire.Decode(client)
	require.NoError(t, err)
	_, err = wire.Decode(client)
	require.NoError(t, err)

	// extra connection must have been closed without data exchange.
	extra.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err = extra.Read(buf)
	require.Error(t, err)

	// Accept is now bridging; a LeaveReq ends it gracefully.
	require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeLeaveReq}))
	require.NoError(t, <-acceptErr)
}

func TestListener_BridgesAfterActionStart(t *testing.T) {
	ln, err := Listen("")
	require.NoError(t, err)
	defer ln.Close()

	statusCh := make(chan model.NodeGameStatus, 1)
	node := newFakeForwarder()
	sess := Session{
		Info:        twoPlayerInfo(t),
		Sender:      &fakeSender{},
		Node:        node,
		StatusCh:    statusCh,
		Sink:        sink.NewChan(8),
		LobbyConfig: fastLobbyConfig(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptErr := make(chan error, 1)
	go func() { acceptErr <- ln.Accept(ctx, sess) }()

	client, err := net.Dial("tcp", ln.ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}}))
	for i := 0; i < 7; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}
	for _, kind := range []byte{lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerSkins, lanpackets.ProtoKindPlayerUnknown5} {
		require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(kind, nil)}))
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	statusCh <- model.NodeGameStatusLoading
	for i := 0; i < 3; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	// Now in bridge phase: a client frame must reach the fake node's
	// Forward, and a frame pushed into the node's bridge channel must
	// reach the client.
	require.NoError(t, wire.Encode(client, wire.Frame{Type: 0x77, Payload: []byte("ingame")}))
	select {
	case f := <-node.forwarded:
		require.Equal(t, []byte("ingame"), f.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client->node forward")
	}

	node.bridge <- wire.Frame{Type: 0x78, Payload: []byte("fromnode")}
	got, err := wire.Decode(client)
	require.NoError(t, err)
	require.Equal(t, []byte("fromnode"), got.Payload)

	client.Close()
	require.Error(t, <-acceptErr)
}

func TestListener_LeaveReq_ShutsDownGracefullyWithoutForwarding(t *testing.T) {
	ln, err := Listen("")
	require.NoError(t, err)
	defer ln.Close()

	statusCh := make(chan model.NodeGameStatus, 1)
	node := newFakeForwarder()
	sess := Session{
		Info:        twoPlayerInfo(t),
		Sender:      &fakeSender{},
		Node:        node,
		StatusCh:    statusCh,
		Sink:        sink.NewChan(8),
		LobbyConfig: fastLobbyConfig(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptErr := make(chan error, 1)
	go func() { acceptErr <- ln.Accept(ctx, sess) }()

	client, err := net.Dial("tcp", ln.ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}}))
	for i := 0; i < 7; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}
	for _, kind := range []byte{lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerSkins, lanpackets.ProtoKindPlayerUnknown5} {
		require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(kind, nil)}))
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	statusCh <- model.NodeGameStatusLoading
	for i := 0; i < 3; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	// LeaveReq must end the bridge cleanly, and must never reach the node.
	require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeLeaveReq}))

	select {
	case err := <-acceptErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for graceful shutdown after LeaveReq")
	}

	select {
	case f := <-node.forwarded:
		t.Fatalf("LeaveReq must not be forwarded to the node, got %v", f)
	default:
	}
}

func TestListener_PlayerEvents_MultiplexedIntoClient(t *testing.T) {
	ln, err := Listen("")
	require.NoError(t, err)
	defer ln.Close()

	statusCh := make(chan model.NodeGameStatus, 1)
	events := make(chan model.OutgoingMessage, 1)
	node := newFakeForwarder()
	sess := Session{
		Info:         twoPlayerInfo(t),
		Sender:       &fakeSender{},
		Node:         node,
		StatusCh:     statusCh,
		Sink:         sink.NewChan(8),
		LobbyConfig:  fastLobbyConfig(),
		PlayerEvents: events,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptErr := make(chan error, 1)
	go func() { acceptErr <- ln.Accept(ctx, sess) }()

	client, err := net.Dial("tcp", ln.ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}}))
	for i := 0; i < 7; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}
	for _, kind := range []byte{lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerProfile, lanpackets.ProtoKindPlayerSkins, lanpackets.ProtoKindPlayerUnknown5} {
		require.NoError(t, wire.Encode(client, wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(kind, nil)}))
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	statusCh <- model.NodeGameStatusLoading
	for i := 0; i < 3; i++ {
		_, err := wire.Decode(client)
		require.NoError(t, err)
	}

	events <- model.GamePlayerPingMapUpdateMsg{Raw: []byte("pingmap")}

	got, err := wire.Decode(client)
	require.NoError(t, err)
	require.Equal(t, lanpackets.TypePlayerEvent, got.Type)
	require.Equal(t, lanpackets.PlayerEventPingMapUpdate, got.Payload[0])
	require.Equal(t, []byte("pingmap"), got.Payload[1:])

	client.Close()
	<-acceptErr
}

func TestRemoteIP_RejectsNonTCPAddr(t *testing.T) {
	clientConn, _ := net.Pipe()
	defer clientConn.Close()

	_, err := remoteIP(clientConn)
	require.Error(t, err)
}
