package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/netcode-core/internal/protocol"
)

func TestStrategy_TickSimulatesBroadcastsAndAcksActions(t *testing.T) {
	snapshots := make(chan protocol.SnapshotMessage[counterWorld], 16)
	acks := make(chan protocol.ActionAckMessage[bool], 16)

	cfg := StrategyConfig{TickRate: 200, SnapshotHistorySize: 16, MaxRewindMs: 300}
	s := NewStrategy[counterWorld, int, string, bool](
		counterDefinition(), counterWorld{}, 0, nil, cfg,
		func(msg protocol.SnapshotMessage[counterWorld]) { snapshots <- msg },
		func(clientID string, ack protocol.ActionAckMessage[bool]) { acks <- ack },
		nil,
	)

	world := s.AddClient("p1")
	assert.Contains(t, world, "p1")

	s.OnClientInput("p1", protocol.InputMessage[int]{Seq: 1, Input: 5})
	s.OnClientAction("p1", protocol.ActionMessage[string]{Seq: 1, Action: "attack", TimestampMs: time.Now().UnixMilli()})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	defer s.Stop()
	defer cancel()

	select {
	case msg := <-snapshots:
		assert.Equal(t, 5, msg.State["p1"])
		assert.Equal(t, uint32(1), msg.InputAcks["p1"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a snapshot broadcast")
	}

	select {
	case ack := <-acks:
		assert.Equal(t, uint32(1), ack.Seq)
		assert.True(t, ack.Success)
		assert.True(t, ack.Result)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an action ack")
	}
}

func TestStrategy_RemoveClientForgetsQueuedState(t *testing.T) {
	cfg := StrategyConfig{TickRate: 200, SnapshotHistorySize: 16, MaxRewindMs: 300}
	s := NewStrategy[counterWorld, int, string, bool](
		counterDefinition(), counterWorld{}, 0, nil, cfg,
		func(msg protocol.SnapshotMessage[counterWorld]) {},
		func(clientID string, ack protocol.ActionAckMessage[bool]) {},
		nil,
	)

	s.AddClient("p1")
	s.OnClientInput("p1", protocol.InputMessage[int]{Seq: 1, Input: 5})
	s.RemoveClient("p1")

	assert.NotContains(t, s.world.Current(), "p1")
	inputs, acks := s.inputs.Drain()
	assert.Empty(t, inputs)
	assert.Empty(t, acks)
}

func TestStrategy_JoinLeaveHooksFire(t *testing.T) {
	cfg := StrategyConfig{TickRate: 200, SnapshotHistorySize: 16, MaxRewindMs: 300}
	s := NewStrategy[counterWorld, int, string, bool](
		counterDefinition(), counterWorld{}, 0, nil, cfg,
		func(msg protocol.SnapshotMessage[counterWorld]) {},
		func(clientID string, ack protocol.ActionAckMessage[bool]) {},
		nil,
	)

	var joined, left string
	s.SetJoinLeaveHooks(
		func(clientID string, world counterWorld) { joined = clientID },
		func(clientID string) { left = clientID },
	)

	s.AddClient("p1")
	require.Equal(t, "p1", joined)

	s.RemoveClient("p1")
	require.Equal(t, "p1", left)
}
