package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AddRejectsNonIncreasingTick(t *testing.T) {
	b := NewBuffer[int](4)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 1, TimestampMs: 100, State: 1}))
	require.NoError(t, b.Add(Snapshot[int]{Tick: 2, TimestampMs: 200, State: 2}))

	err := b.Add(Snapshot[int]{Tick: 2, TimestampMs: 300, State: 3})
	assert.Error(t, err)

	err = b.Add(Snapshot[int]{Tick: 1, TimestampMs: 400, State: 4})
	assert.Error(t, err)
}

func TestBuffer_LatestScansForTrueMaximum(t *testing.T) {
	b := NewBuffer[int](3)
	for tick := uint64(1); tick <= 5; tick++ {
		require.NoError(t, b.Add(Snapshot[int]{Tick: tick, TimestampMs: int64(tick * 10), State: int(tick)}))
	}

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(5), latest.Tick)
	assert.Equal(t, 3, b.Len())
}

func TestBuffer_AtTick(t *testing.T) {
	b := NewBuffer[string](4)
	require.NoError(t, b.Add(Snapshot[string]{Tick: 10, TimestampMs: 1000, State: "a"}))
	require.NoError(t, b.Add(Snapshot[string]{Tick: 11, TimestampMs: 1050, State: "b"}))

	got, ok := b.AtTick(11)
	require.True(t, ok)
	assert.Equal(t, "b", got.State)

	_, ok = b.AtTick(99)
	assert.False(t, ok)
}

func TestBuffer_AtTimestampFallsBackToEarliest(t *testing.T) {
	b := NewBuffer[int](4)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 1, TimestampMs: 100, State: 1}))
	require.NoError(t, b.Add(Snapshot[int]{Tick: 2, TimestampMs: 200, State: 2}))

	got, ok := b.AtTimestamp(50)
	require.True(t, ok)
	assert.Equal(t, int64(100), got.TimestampMs)

	got, ok = b.AtTimestamp(150)
	require.True(t, ok)
	assert.Equal(t, int64(100), got.TimestampMs)

	got, ok = b.AtTimestamp(1000)
	require.True(t, ok)
	assert.Equal(t, int64(200), got.TimestampMs)
}

func TestBuffer_AdjacentClampsToEndpoints(t *testing.T) {
	b := NewBuffer[int](4)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 1, TimestampMs: 100, State: 1}))
	require.NoError(t, b.Add(Snapshot[int]{Tick: 2, TimestampMs: 200, State: 2}))

	before, after, ok := b.Adjacent(150)
	require.True(t, ok)
	assert.Equal(t, int64(100), before.TimestampMs)
	assert.Equal(t, int64(200), after.TimestampMs)

	before, after, ok = b.Adjacent(50)
	require.True(t, ok)
	assert.Equal(t, before.Tick, after.Tick)
	assert.Equal(t, uint64(1), before.Tick)

	before, after, ok = b.Adjacent(500)
	require.True(t, ok)
	assert.Equal(t, uint64(2), before.Tick)
	assert.Equal(t, before.Tick, after.Tick)
}

func TestBuffer_AdjacentEmpty(t *testing.T) {
	b := NewBuffer[int](4)
	_, _, ok := b.Adjacent(100)
	assert.False(t, ok)
}

func TestBuffer_ReplaceOverwritesInPlace(t *testing.T) {
	b := NewBuffer[int](4)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 5, TimestampMs: 500, State: 1}))

	replaced := b.Replace(5, Snapshot[int]{Tick: 5, TimestampMs: 500, State: 99})
	assert.True(t, replaced)

	got, ok := b.AtTick(5)
	require.True(t, ok)
	assert.Equal(t, 99, got.State)

	assert.False(t, b.Replace(123, Snapshot[int]{Tick: 123, State: 1}))
}

func TestBuffer_ReplaceDoesNotMatchUnusedZeroTickSlots(t *testing.T) {
	b := NewBuffer[int](4)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 1, TimestampMs: 100, State: 1}))

	// Tick 0 was never added; the buffer's unused ring slots default to
	// Tick 0, and Replace must not treat those as a match.
	assert.False(t, b.Replace(0, Snapshot[int]{Tick: 0, State: -1}))
}

func TestBuffer_ClearResetsOrderingCheck(t *testing.T) {
	b := NewBuffer[int](4)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 10, TimestampMs: 100, State: 1}))
	b.Clear()
	assert.Equal(t, 0, b.Len())

	// After Clear, tick ordering restarts from scratch.
	require.NoError(t, b.Add(Snapshot[int]{Tick: 1, TimestampMs: 10, State: 2}))
}

func TestBuffer_EvictsOldestWhenFull(t *testing.T) {
	b := NewBuffer[int](2)
	require.NoError(t, b.Add(Snapshot[int]{Tick: 1, TimestampMs: 100, State: 1}))
	require.NoError(t, b.Add(Snapshot[int]{Tick: 2, TimestampMs: 200, State: 2}))
	require.NoError(t, b.Add(Snapshot[int]{Tick: 3, TimestampMs: 300, State: 3}))

	assert.Equal(t, 2, b.Len())
	_, ok := b.AtTick(1)
	assert.False(t, ok)
	_, ok = b.AtTick(3)
	assert.True(t, ok)
}
