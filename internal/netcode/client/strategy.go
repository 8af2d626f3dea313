package client

import (
	"sync"

	"github.com/annel0/netcode-core/internal/logging"
	"github.com/annel0/netcode-core/internal/netcode/game"
	"github.com/annel0/netcode-core/internal/netcode/snapshot"
	"github.com/annel0/netcode-core/internal/protocol"
)

// Strategy orchestrates the full client-side pipeline (spec §4.13): it
// stamps and sends local input, predicts ahead of the server, reconciles on
// every snapshot, interpolates remote state for smooth rendering, and
// smooths away the visual pop of a correction.
//
// It does not own a transport.Channel or protocol.Codec directly — the
// caller supplies SendInput/SendAction closures, keeping Strategy agnostic
// to how bytes actually reach the server (KCP, memory channel, or a test
// double).
type Strategy[W any, I any, A any, R any] struct {
	mu sync.Mutex

	localID string
	scope   *game.PredictionScope[W, I]

	inputBuffer  *InputBuffer[I]
	predictor    *Predictor[W, I]
	reconciler   *Reconciler[W, I]
	interpolator *Interpolator[W]
	smoother     *TickSmoother

	dtMs       float64
	actionSeq  uint32
	renderBase W // latest reconciled world, before the local predicted overlay

	sendInput  func(protocol.InputMessage[I]) error
	sendAction func(protocol.ActionMessage[A]) error

	logger *logging.Logger
}

// Config bundles the tunables a Strategy needs beyond the game's own
// capability bundles (spec §6).
type Config struct {
	DtMs                    float64
	MaxInputBufferSize      int
	InterpolationHistory    int
	InterpolationDelayMs    int64
	SmoothingDurationFrames int
}

// NewStrategy wires up InputBuffer, Predictor, Reconciler and Interpolator
// for localID. sendInput/sendAction are invoked synchronously from
// SendLocalInput/SendAction respectively.
func NewStrategy[W any, I any, A any, R any](
	localID string,
	scope *game.PredictionScope[W, I],
	cfg Config,
	sendInput func(protocol.InputMessage[I]) error,
	sendAction func(protocol.ActionMessage[A]) error,
	logger *logging.Logger,
) *Strategy[W, I, A, R] {
	inputBuffer := NewInputBuffer[I](cfg.MaxInputBufferSize)
	return &Strategy[W, I, A, R]{
		localID:      localID,
		scope:        scope,
		inputBuffer:  inputBuffer,
		predictor:    NewPredictor[W, I](scope),
		reconciler:   NewReconciler[W, I](localID, scope, inputBuffer),
		interpolator: NewInterpolator[W](cfg.InterpolationHistory, cfg.InterpolationDelayMs, nil),
		smoother:     NewTickSmoother(cfg.SmoothingDurationFrames),
		dtMs:         cfg.DtMs,
		sendInput:    sendInput,
		sendAction:   sendAction,
		logger:       logger,
	}
}

// SetInterpolate installs the game's Interpolate function. Kept separate
// from NewStrategy so Config stays free of function-typed fields.
func (s *Strategy[W, I, A, R]) SetInterpolate(fn func(from, to W, alpha float64) W) {
	s.interpolator.interpolate = fn
}

// OnJoin seeds prediction and the render base from the world the server
// handed back in the JoinMessage response.
func (s *Strategy[W, I, A, R]) OnJoin(world W) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderBase = world
	s.predictor.SetInitial(s.scope.ExtractPredictable(world, s.localID))
	if s.logger != nil {
		s.logger.Info("client strategy joined as %s", s.localID)
	}
}

// SendLocalInput stamps input with the next seq, predicts ahead locally,
// and forwards it to the server via sendInput.
func (s *Strategy[W, I, A, R]) SendLocalInput(input I, timestampMs int64) error {
	s.mu.Lock()
	msg := s.inputBuffer.Add(input, timestampMs)
	s.predictor.Predict(input, s.dtMs)
	s.mu.Unlock()

	return s.sendInput(msg)
}

// SendAction stamps and forwards a one-off action (spec §4.10's client
// half): unlike input, actions are not locally predicted.
func (s *Strategy[W, I, A, R]) SendAction(action A, timestampMs int64) (uint32, error) {
	s.mu.Lock()
	seq := s.actionSeq
	s.actionSeq++
	s.mu.Unlock()

	msg := protocol.ActionMessage[A]{Seq: seq, Action: action, TimestampMs: timestampMs}
	return seq, s.sendAction(msg)
}

// OnSnapshot feeds a server snapshot through the interpolator (for remote
// rendering) and the reconciler (for local-player correction), per spec
// §4.7-§4.8. Stale/out-of-order snapshots are dropped silently.
func (s *Strategy[W, I, A, R]) OnSnapshot(msg protocol.SnapshotMessage[W]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.interpolator.Ingest(snapshot.Snapshot[W]{
		Tick:        msg.Tick,
		TimestampMs: msg.TimestampMs,
		State:       msg.State,
		InputAcks:   msg.InputAcks,
	}); err != nil {
		return
	}

	ackSeq := msg.InputAcks[s.localID]
	merged, predicted, replayed := s.reconciler.Reconcile(msg.State, ackSeq, s.dtMs)
	if !replayed {
		return
	}

	prevX, prevY, havePrev := s.scope.GetLocalPlayerPosition(s.renderBase, s.localID)
	s.renderBase = merged
	s.predictor.SetInitial(predicted)
	newX, newY, haveNew := s.scope.GetLocalPlayerPosition(merged, s.localID)
	if havePrev && haveNew {
		s.smoother.Correct(prevX, prevY, newX, newY)
	}
}

// Render produces the world to draw this frame: the interpolated remote
// state at render time, with the locally predicted partial merged back in
// on top (spec §4.8-§4.9). The returned smoothX/smoothY offset should be
// added to the local player's rendered position by the caller.
func (s *Strategy[W, I, A, R]) Render(nowMs int64) (world W, smoothX, smoothY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := s.interpolator.Render(nowMs)
	if !ok {
		base = s.renderBase
	}

	predicted, hasPredicted := s.predictor.Current()
	if hasPredicted {
		base = s.scope.MergePrediction(base, predicted)
	}

	dx, dy := s.smoother.Tick()
	return base, dx, dy
}

// Reset clears all per-connection state, used on disconnect/reconnect.
func (s *Strategy[W, I, A, R]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inputBuffer.Clear()
	s.predictor.Reset()
	s.reconciler.Reset()
	s.interpolator.Reset()
	s.smoother.Reset()
	s.actionSeq = 0
	var zero W
	s.renderBase = zero
}
