package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/netcode-core/internal/netcode/snapshot"
)

func newTestLagCompensator(t *testing.T, maxRewindMs int64) (*LagCompensator[int, string, bool], *snapshot.Buffer[int]) {
	t.Helper()
	buf := snapshot.NewBuffer[int](16)
	validate := func(world int, clientID string, action string) (bool, bool, error) {
		return world > 0, world > 0, nil
	}
	return NewLagCompensator[int, string, bool](buf, maxRewindMs, validate), buf
}

func TestLagCompensator_ValidatesAgainstHistoricalSnapshot(t *testing.T) {
	lc, buf := newTestLagCompensator(t, 300)
	require.NoError(t, buf.Add(snapshot.Snapshot[int]{Tick: 1, TimestampMs: 1000, State: 0}))
	require.NoError(t, buf.Add(snapshot.Snapshot[int]{Tick: 2, TimestampMs: 1100, State: 5}))

	// 1050 rewinds to the tick-1 snapshot (State 0), not the newer State 5
	// one, so the validator rejects the action.
	ok, result, err := lc.ValidateAction("p1", "attack", 1050, 1150)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, result)
}

func TestLagCompensator_RejectsExcessiveRewind(t *testing.T) {
	lc, buf := newTestLagCompensator(t, 100)
	require.NoError(t, buf.Add(snapshot.Snapshot[int]{Tick: 1, TimestampMs: 1000, State: 5}))

	_, _, err := lc.ValidateAction("p1", "attack", 500, 1000) // 500ms rewind > 100ms max
	assert.ErrorIs(t, err, ErrRewindWindowExceeded)
}

func TestLagCompensator_AppliesClockSkew(t *testing.T) {
	lc, buf := newTestLagCompensator(t, 300)
	require.NoError(t, buf.Add(snapshot.Snapshot[int]{Tick: 1, TimestampMs: 1000, State: 0}))
	require.NoError(t, buf.Add(snapshot.Snapshot[int]{Tick: 2, TimestampMs: 1100, State: 7}))

	// Client clock reads 50ms behind the server; without skew correction the
	// rewind target would land on the earlier (State: 0) snapshot.
	lc.UpdateClock("p1", 20, 50)
	ok, _, err := lc.ValidateAction("p1", "attack", 1050, 1150)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLagCompensator_FutureTimestampClampsToNow(t *testing.T) {
	lc, buf := newTestLagCompensator(t, 300)
	require.NoError(t, buf.Add(snapshot.Snapshot[int]{Tick: 1, TimestampMs: 1000, State: 9}))

	// clientTimestampMs > nowMs yields a negative rewind, which clamps to now
	// rather than rejecting or underflowing.
	ok, _, err := lc.ValidateAction("p1", "attack", 2000, 1000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLagCompensator_NoHistoricalSnapshotWhenBufferEmpty(t *testing.T) {
	lc, _ := newTestLagCompensator(t, 300)
	_, _, err := lc.ValidateAction("p1", "attack", 1000, 1050)
	assert.ErrorIs(t, err, ErrNoHistoricalSnapshot)
}

func TestLagCompensator_LatencyPercentile(t *testing.T) {
	lc, _ := newTestLagCompensator(t, 300)
	for _, ms := range []float64{10, 20, 30, 40, 50} {
		lc.UpdateClock("p1", ms, 0)
	}

	p50, err := lc.LatencyPercentile("p1", 50)
	require.NoError(t, err)
	assert.InDelta(t, 30, p50, 5)
}

func TestLagCompensator_ForgetClearsClockAndLatency(t *testing.T) {
	lc, _ := newTestLagCompensator(t, 300)
	lc.UpdateClock("p1", 10, 0)
	lc.Forget("p1")

	_, ok := lc.Clock("p1")
	assert.False(t, ok)
	_, err := lc.LatencyPercentile("p1", 50)
	assert.Error(t, err)
}
