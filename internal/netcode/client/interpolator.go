package client

import "github.com/annel0/netcode-core/internal/netcode/snapshot"

// Interpolator renders remote entities from two past snapshots, delayed
// INTERPOLATION_DELAY_MS behind wall clock so there is always a bracketing
// pair of snapshots to blend between (spec §4.8).
type Interpolator[W any] struct {
	buffer      *snapshot.Buffer[W]
	delayMs     int64
	interpolate func(from, to W, alpha float64) W
}

// NewInterpolator creates an interpolator with its own received-snapshot
// buffer (distinct from the server's authoritative one) and delayMs lag.
func NewInterpolator[W any](historySize int, delayMs int64, interpolate func(from, to W, alpha float64) W) *Interpolator[W] {
	return &Interpolator[W]{
		buffer:      snapshot.NewBuffer[W](historySize),
		delayMs:     delayMs,
		interpolate: interpolate,
	}
}

// Ingest feeds a newly-received snapshot into the interpolation buffer.
// Per spec §5, out-of-order or stale snapshots (tick <= latest processed)
// must be dropped; Buffer.Add already enforces strictly increasing ticks
// and returns an error for such cases, which the caller should swallow.
func (ip *Interpolator[W]) Ingest(s snapshot.Snapshot[W]) error {
	return ip.buffer.Add(s)
}

// Render computes the interpolated world at render time now - delayMs,
// clamped to the buffered range (spec §4.8 steps 1-4).
func (ip *Interpolator[W]) Render(nowMs int64) (W, bool) {
	var zero W
	target := nowMs - ip.delayMs

	a, b, ok := ip.buffer.Adjacent(target)
	if !ok {
		return zero, false
	}

	if a.TimestampMs == b.TimestampMs {
		return ip.interpolate(a.State, b.State, 0), true
	}

	alpha := float64(target-a.TimestampMs) / float64(b.TimestampMs-a.TimestampMs)
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return ip.interpolate(a.State, b.State, alpha), true
}

// Reset clears the interpolation history, used on disconnect.
func (ip *Interpolator[W]) Reset() { ip.buffer.Clear() }
