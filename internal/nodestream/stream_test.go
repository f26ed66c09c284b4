package nodestream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/nodestream/nodepackets"
	"github.com/udisondev/floclient/internal/transport"
	"github.com/udisondev/floclient/internal/wire"
)

func pipeStream(t *testing.T) (*Stream, *transport.Conn) {
	t.Helper()
	clientConn, nodeConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	s := &Stream{
		conn:     transport.New(clientConn),
		out:      make(chan wire.Frame, writeQueueSize),
		statusCh: make(chan model.NodeGameStatus, statusQueueSize),
	}
	return s, transport.New(nodeConn)
}

func TestStream_StatusUpdates_DecodedFromNodeFrames(t *testing.T) {
	s, node := pipeStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go s.readLoop(ctx)

	require.NoError(t, node.Send(wire.Frame{Type: nodepackets.TypeNodeStatus, Payload: nodepackets.NodeStatus(model.NodeGameStatusLoading)}))

	select {
	case status := <-s.StatusUpdates():
		require.Equal(t, model.NodeGameStatusLoading, status)
	case <-ctx.Done():
		t.Fatal("timed out waiting for status update")
	}
}

func TestStream_RingBuffersUntilBridging(t *testing.T) {
	s, node := pipeStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go s.readLoop(ctx)

	require.NoError(t, node.Send(wire.Frame{Type: 0x55, Payload: []byte("buffered")}))
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.ring) == 1
	}, time.Second, 10*time.Millisecond)

	frames := s.BridgeFrames()
	first := <-frames
	require.Equal(t, []byte("buffered"), first.Payload)

	require.NoError(t, node.Send(wire.Frame{Type: 0x56, Payload: []byte("live")}))
	select {
	case f := <-frames:
		require.Equal(t, []byte("live"), f.Payload)
	case <-ctx.Done():
		t.Fatal("timed out waiting for live bridge frame")
	}
}

func TestStream_PingAnsweredNotDelivered(t *testing.T) {
	s, node := pipeStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go s.readLoop(ctx)

	require.NoError(t, node.Send(wire.Frame{Type: wire.TypePing, Payload: []byte("x")}))
	pong, err := node.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wire.TypePong, pong.Type)

	s.mu.Lock()
	ringLen := len(s.ring)
	s.mu.Unlock()
	require.Zero(t, ringLen, "a ping must never land in the lobby-phase ring")
}

func TestPendingSender_BuffersThenReplays(t *testing.T) {
	p := NewPendingSender()
	p.ReportSlotStatus(model.SlotClientStatusConnected)
	p.ReportSlotStatus(model.SlotClientStatusJoined)

	var got []model.SlotClientStatus
	real := sinkSender{report: func(s model.SlotClientStatus) { got = append(got, s) }}

	p.Attach(real)
	require.Equal(t, []model.SlotClientStatus{model.SlotClientStatusConnected, model.SlotClientStatusJoined}, got)

	p.ReportSlotStatus(model.SlotClientStatusLoading)
	require.Equal(t, model.SlotClientStatusLoading, got[len(got)-1])
}

type sinkSender struct {
	report func(model.SlotClientStatus)
}

func (s sinkSender) ReportSlotStatus(status model.SlotClientStatus) { s.report(status) }
