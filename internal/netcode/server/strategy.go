package server

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/netcode-core/internal/logging"
	"github.com/annel0/netcode-core/internal/netcode/game"
	"github.com/annel0/netcode-core/internal/netcode/snapshot"
	"github.com/annel0/netcode-core/internal/protocol"
)

// Strategy wires InputQueue, ActionQueue, WorldManager, GameLoop and
// LagCompensator into the full server-authoritative tick (spec §4.12):
// every tick it drains merged input, simulates, appends to the snapshot
// history and broadcasts, then drains and validates queued actions against
// the lag-compensated historical world.
type Strategy[W any, I any, A any, R any] struct {
	mu sync.RWMutex

	def      *game.Definition[W, I, A, R]
	world    *WorldManager[W, I, A, R]
	inputs   *InputQueue[I]
	actions  *ActionQueue[A]
	history  *snapshot.Buffer[W]
	lagComp  *LagCompensator[W, A, R]
	loop     *GameLoop
	idle     I
	dtMs     float64

	broadcastSnapshot func(protocol.SnapshotMessage[W])
	ackAction         func(clientID string, ack protocol.ActionAckMessage[R])
	onJoin            func(clientID string, world W)
	onLeave           func(clientID string)
	logger            *logging.Logger
}

// StrategyConfig bundles the tunables a server Strategy needs.
type StrategyConfig struct {
	TickRate            int
	SnapshotHistorySize int
	MaxRewindMs         int64
}

// NewStrategy constructs a server Strategy for one running game instance.
// idleInput is used for a connected client that has not sent any input yet;
// a client that sent input before but none this tick repeats its last one.
func NewStrategy[W any, I any, A any, R any](
	def *game.Definition[W, I, A, R],
	initialWorld W,
	idleInput I,
	merger Merger[I],
	cfg StrategyConfig,
	broadcastSnapshot func(protocol.SnapshotMessage[W]),
	ackAction func(clientID string, ack protocol.ActionAckMessage[R]),
	logger *logging.Logger,
) *Strategy[W, I, A, R] {
	history := snapshot.NewBuffer[W](cfg.SnapshotHistorySize)
	worldMgr := NewWorldManager[W, I, A, R](def, initialWorld)

	s := &Strategy[W, I, A, R]{
		def:               def,
		world:             worldMgr,
		inputs:            NewInputQueue[I](merger),
		actions:           NewActionQueue[A](),
		history:           history,
		lagComp:           NewLagCompensator[W, A, R](history, cfg.MaxRewindMs, def.ActionValidator),
		idle:              idleInput,
		dtMs:              1000.0 / float64(cfg.TickRate),
		broadcastSnapshot: broadcastSnapshot,
		ackAction:         ackAction,
		logger:            logger,
	}
	s.loop = NewGameLoop(cfg.TickRate, s.onTick, logger)
	return s
}

// SetJoinLeaveHooks installs callbacks fired after a client is added to or
// removed from the world, for event-bus fan-out.
func (s *Strategy[W, I, A, R]) SetJoinLeaveHooks(onJoin func(clientID string, world W), onLeave func(clientID string)) {
	s.onJoin = onJoin
	s.onLeave = onLeave
}

// Start begins the fixed-timestep tick loop.
func (s *Strategy[W, I, A, R]) Start(ctx context.Context) { s.loop.Start(ctx) }

// Stop halts the tick loop, waiting for any in-flight tick to finish.
func (s *Strategy[W, I, A, R]) Stop() { s.loop.Stop() }

// GetTick reports the last completed tick number.
func (s *Strategy[W, I, A, R]) GetTick() uint64 { return s.loop.Tick() }

// AddClient registers a new client and returns the world state to hand back
// in the JoinMessage response.
func (s *Strategy[W, I, A, R]) AddClient(clientID string) W {
	world := s.world.AddClient(clientID)
	if s.onJoin != nil {
		s.onJoin(clientID, world)
	}
	return world
}

// RemoveClient unregisters a client and clears its queued state.
func (s *Strategy[W, I, A, R]) RemoveClient(clientID string) {
	s.world.RemoveClient(clientID)
	s.inputs.Forget(clientID)
	s.actions.Forget(clientID)
	s.lagComp.Forget(clientID)
	if s.onLeave != nil {
		s.onLeave(clientID)
	}
}

// OnClientInput submits a received InputMessage into the current tick's
// input queue (spec §4.3).
func (s *Strategy[W, I, A, R]) OnClientInput(clientID string, msg protocol.InputMessage[I]) {
	s.inputs.Submit(clientID, msg.Seq, msg.Input)
}

// OnClientAction enqueues a received ActionMessage for lag-compensated
// validation on the next tick (spec §4.10-§4.11).
func (s *Strategy[W, I, A, R]) OnClientAction(clientID string, msg protocol.ActionMessage[A]) {
	s.actions.Submit(clientID, msg.Seq, msg.Action, msg.TimestampMs)
}

// UpdateClientClock refreshes a client's latency/skew estimate, typically
// from periodic ping/pong round trips.
func (s *Strategy[W, I, A, R]) UpdateClientClock(clientID string, latencyMs, clockSkewMs float64) {
	s.lagComp.UpdateClock(clientID, latencyMs, clockSkewMs)
}

func (s *Strategy[W, I, A, R]) onTick(tick uint64, dtMs float64) {
	inputs, acks := s.inputs.Drain()
	world := s.world.Simulate(inputs, s.idle, dtMs)

	nowMs := time.Now().UnixMilli()
	snap := snapshot.Snapshot[W]{Tick: tick, TimestampMs: nowMs, State: world, InputAcks: acks}
	if err := s.history.Add(snap); err != nil && s.logger != nil {
		s.logger.Warn("tick %d: snapshot history add failed: %v", tick, err)
	}

	if s.broadcastSnapshot != nil {
		s.broadcastSnapshot(protocol.SnapshotMessage[W]{Tick: tick, TimestampMs: nowMs, State: world, InputAcks: acks})
	}

	for _, qa := range s.actions.Drain() {
		ok, result, err := s.lagComp.ValidateAction(qa.clientID, qa.action, qa.timestampMs, nowMs)
		if err != nil && s.logger != nil {
			s.logger.Debug("tick %d: action from %s rejected: %v", tick, qa.clientID, err)
		}
		if s.ackAction != nil {
			s.ackAction(qa.clientID, protocol.ActionAckMessage[R]{Seq: qa.seq, Success: ok, Result: result})
		}
	}
}
