package client

import (
	"github.com/annel0/netcode-core/internal/netcode/game"
)

// Reconciler is the correctness engine of the client strategy (spec §4.7):
// on every snapshot it acknowledges the Input Buffer up to the server's
// reported ack_seq, replays whatever inputs remain unacknowledged over the
// server's state, and publishes the merged result. It never byte-compares
// to detect divergence — every snapshot triggers a replay, since any acked
// input transition may itself correct drift.
type Reconciler[W any, I any] struct {
	localID       string
	scope         *game.PredictionScope[W, I]
	inputBuffer   *InputBuffer[I]
	lastAckedSeq  int64 // -1 means "none yet"
}

// NewReconciler creates a reconciler for localID, sharing inputBuffer with
// the Strategy's local-input pipeline.
func NewReconciler[W any, I any](localID string, scope *game.PredictionScope[W, I], inputBuffer *InputBuffer[I]) *Reconciler[W, I] {
	return &Reconciler[W, I]{localID: localID, scope: scope, inputBuffer: inputBuffer, lastAckedSeq: -1}
}

// Reconcile implements spec §4.7 steps 1-6. dtMs is the fixed per-input
// timestep used to replay unacknowledged inputs (the server's tick period).
// It returns the merged world to publish to the render sink, the replayed
// predicted partial (so the caller's Predictor can resync to it instead of
// drifting from its own, now-stale copy), and whether a replay actually ran
// (false when ackSeq equals the last one processed).
func (r *Reconciler[W, I]) Reconcile(serverWorld W, ackSeq uint32, dtMs float64) (merged W, predicted W, replayed bool) {
	if int64(ackSeq) == r.lastAckedSeq {
		// Redundant: this ack was already processed. No replay.
		var zero W
		return zero, zero, false
	}

	r.inputBuffer.Acknowledge(ackSeq)
	unacked := r.inputBuffer.Unacknowledged(ackSeq)

	predicted = r.scope.ExtractPredictable(serverWorld, r.localID)
	for _, msg := range unacked {
		predicted = r.scope.SimulatePredicted(predicted, msg.Input, dtMs)
	}

	r.lastAckedSeq = int64(ackSeq)
	return r.scope.MergePrediction(serverWorld, predicted), predicted, true
}

// LastAckedSeq reports the most recently processed ack_seq, or -1 if none.
func (r *Reconciler[W, I]) LastAckedSeq() int64 { return r.lastAckedSeq }

// Reset clears reconciliation state on disconnect.
func (r *Reconciler[W, I]) Reset() { r.lastAckedSeq = -1 }
