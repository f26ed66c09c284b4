package lobby

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/floclient/internal/lobby/lanpackets"
	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/sink"
	"github.com/udisondev/floclient/internal/slot"
	"github.com/udisondev/floclient/internal/transport"
	"github.com/udisondev/floclient/internal/wire"
)

type fakeNode struct {
	reports []model.SlotClientStatus
}

func (f *fakeNode) ReportSlotStatus(status model.SlotClientStatus) {
	f.reports = append(f.reports, status)
}

func testConfig() Config {
	return Config{
		PingInterval:     time.Hour, // never fires during these tests
		PostStartWait:    20 * time.Millisecond,
		NotifierCeiling:  20 * time.Millisecond,
		PostNotifierWait: 20 * time.Millisecond,
	}
}

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
		Game:         model.LocalGameInfo{GameID: 1, Name: "testgame", PlayerID: 1},
		SlotInfo:     planned,
		MapFileSize:  1024,
		MapCRC32:     0xdeadbeef,
		GameSettings: []byte{1, 2, 3},
	}
}

// driver wraps the test's end of the net.Pipe and reads/writes wire
// frames the way the real game client would.
type driver struct {
	t    *testing.T
	conn net.Conn
}

func (d *driver) send(f wire.Frame) {
	d.t.Helper()
	require.NoError(d.t, wire.Encode(d.conn, f))
}

func (d *driver) recv() wire.Frame {
	d.t.Helper()
	f, err := wire.Decode(d.conn)
	require.NoError(d.t, err)
	return f
}

func (d *driver) recvN(n int) []wire.Frame {
	out := make([]wire.Frame, n)
	for i := range out {
		out[i] = d.recv()
	}
	return out
}

func countTypes(frames []wire.Frame, want byte) int {
	n := 0
	for _, f := range frames {
		if f.Type == want {
			n++
		}
	}
	return n
}

func TestLobby_HappyPath_TwoPlayers(t *testing.T) {
	clientConn, lobbyConn := net.Pipe()
	defer clientConn.Close()

	info := twoPlayerInfo(t)
	node := &fakeNode{}
	snk := sink.NewChan(8)

	statusCh := make(chan model.NodeGameStatus, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resultCh := make(chan struct {
		action Action
		err    error
	}, 1)
	go func() {
		action, err := Run(ctx, transport.New(lobbyConn), net.IPv4(127, 0, 0, 1), node, info, statusCh, nil, snk, testConfig())
		resultCh <- struct {
			action Action
			err    error
		}{action, err}
	}()

	d := &driver{t: t, conn: clientConn}
	d.send(wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}})

	// 2x SlotInfo, 1x PlayerInfo (peer), 1x PlayerSkinsMessage (peer),
	// 2x PlayerProfileMessage, 1x MapCheck = 7 frames.
	frames := d.recvN(7)
	require.Equal(t, 2, countTypes(frames, lanpackets.TypeSlotInfo)+countTypes(frames, lanpackets.TypeSlotInfoJoin))
	require.Equal(t, 1, countTypes(frames, lanpackets.TypePlayerInfo))
	require.Equal(t, 1, countTypes(frames, lanpackets.TypePlayerSkinsMessage))
	require.Equal(t, 2, countTypes(frames, lanpackets.TypePlayerProfileMessage))
	require.Equal(t, 1, countTypes(frames, lanpackets.TypeMapCheck))

	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerProfile, nil)})
	d.recv() // echo
	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerProfile, nil)})
	d.recv() // echo
	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerSkins, nil)})
	d.recv() // echo
	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerUnknown5, nil)})
	d.recv() // echo

	statusCh <- model.NodeGameStatusLoading

	startFrames := d.recvN(2)
	require.Equal(t, lanpackets.TypeSlotInfo, startFrames[0].Type)
	require.Equal(t, lanpackets.TypeCountDownStart, startFrames[1].Type)

	end := d.recv()
	require.Equal(t, lanpackets.TypeCountDownEnd, end.Type)

	res := <-resultCh
	require.NoError(t, res.err)
	require.Equal(t, ActionStart, res.action)
	require.Equal(t, []model.SlotClientStatus{model.SlotClientStatusJoined}, node.reports)

	msg := <-snk.Messages()
	joined, ok := msg.(model.LanGameJoinedMsg)
	require.True(t, ok)
	require.NotEmpty(t, joined.LobbyName)
}

func TestLobby_WithObserver_JoinReply(t *testing.T) {
	clientConn, lobbyConn := net.Pipe()
	defer clientConn.Close()

	planned, err := slot.Plan(slot.Input{
		MyPlayerID: 1,
		Slots: []slot.Slot{
			{Occupied: true, PlayerID: 1, PlayerName: "me"},
			{Occupied: true, PlayerID: 2, PlayerName: "p2"},
			{Occupied: true, PlayerID: 3, PlayerName: "p3"},
			{Occupied: true, IsObserver: true, PlayerName: "FLO"},
		},
	})
	require.NoError(t, err)
	info := model.LanGameInfo{
		Game:     model.LocalGameInfo{GameID: 1, Name: "obs-game", PlayerID: 1},
		SlotInfo: planned,
	}

	node := &fakeNode{}
	snk := sink.NewChan(8)
	statusCh := make(chan model.NodeGameStatus, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go Run(ctx, transport.New(lobbyConn), net.IPv4(127, 0, 0, 1), node, info, statusCh, nil, snk, testConfig())

	d := &driver{t: t, conn: clientConn}
	d.send(wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}})

	// 2x SlotInfo, 2x PlayerInfo (p2,p3) + 1 (FLO) = 3, 3x Skins
	// (p2,p3,FLO), 3x Profile (me,p2,p3) + 1 (FLO) = 4, 1x MapCheck.
	frames := d.recvN(2 + 3 + 3 + 4 + 1)
	require.Equal(t, 3, countTypes(frames, lanpackets.TypePlayerInfo))
	require.Equal(t, 3, countTypes(frames, lanpackets.TypePlayerSkinsMessage))
	require.Equal(t, 4, countTypes(frames, lanpackets.TypePlayerProfileMessage))
}

func TestLobby_Ipv6Client_Fails(t *testing.T) {
	clientConn, lobbyConn := net.Pipe()
	defer clientConn.Close()

	info := twoPlayerInfo(t)
	node := &fakeNode{}
	snk := sink.NewChan(8)
	statusCh := make(chan model.NodeGameStatus, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		_, err := Run(ctx, transport.New(lobbyConn), net.ParseIP("::1"), node, info, statusCh, nil, snk, testConfig())
		resultCh <- err
	}()

	d := &driver{t: t, conn: clientConn}
	d.send(wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}})

	err := <-resultCh
	require.ErrorIs(t, err, ErrIpv6NotSupported)
}

func TestLobby_CountdownStart_SentExactlyOnce(t *testing.T) {
	clientConn, lobbyConn := net.Pipe()
	defer clientConn.Close()

	info := twoPlayerInfo(t)
	node := &fakeNode{}
	snk := sink.NewChan(8)
	statusCh := make(chan model.NodeGameStatus, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resultCh := make(chan Action, 1)
	go func() {
		action, _ := Run(ctx, transport.New(lobbyConn), net.IPv4(127, 0, 0, 1), node, info, statusCh, nil, snk, testConfig())
		resultCh <- action
	}()

	d := &driver{t: t, conn: clientConn}
	d.send(wire.Frame{Type: lanpackets.TypeReqJoin, Payload: []byte{0, 2, 'm', 'e'}})
	d.recvN(7)

	// Flip Waiting -> Loading -> Waiting before readiness; should_start
	// must not fire since the lobby isn't ready yet.
	statusCh <- model.NodeGameStatusWaiting
	statusCh <- model.NodeGameStatusLoading
	statusCh <- model.NodeGameStatusWaiting

	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerProfile, nil)})
	d.recv()
	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerProfile, nil)})
	d.recv()
	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerSkins, nil)})
	d.recv()
	d.send(wire.Frame{Type: lanpackets.TypeProtoBufPayload, Payload: lanpackets.EncodeProtoBufPayload(lanpackets.ProtoKindPlayerUnknown5, nil)})
	d.recv()

	// Now ready, but node is Waiting: should_start still false.
	statusCh <- model.NodeGameStatusLoading

	start := d.recvN(2)
	require.Equal(t, lanpackets.TypeCountDownStart, start[1].Type)
	end := d.recv()
	require.Equal(t, lanpackets.TypeCountDownEnd, end.Type)

	require.Equal(t, ActionStart, <-resultCh)
}
