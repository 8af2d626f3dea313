package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputQueue_SubmitAndDrain(t *testing.T) {
	q := NewInputQueue[int](nil)
	q.Submit("p1", 5, 10)
	q.Submit("p2", 3, 20)

	inputs, acks := q.Drain()
	require.Len(t, inputs, 2)
	assert.Equal(t, 10, inputs["p1"])
	assert.Equal(t, 20, inputs["p2"])
	assert.Equal(t, uint32(5), acks["p1"])
	assert.Equal(t, uint32(3), acks["p2"])
}

func TestInputQueue_DrainClearsInputsButAcksPersist(t *testing.T) {
	q := NewInputQueue[int](nil)
	q.Submit("p1", 1, 1)
	q.Drain()

	// A quiet tick with no new submissions still reports p1's last-known
	// ack (spec §3/§8: input_acks must be monotonically non-decreasing),
	// even though there is no buffered input to re-simulate.
	inputs, acks := q.Drain()
	assert.Empty(t, inputs)
	assert.Equal(t, uint32(1), acks["p1"])
}

func TestInputQueue_LastWinsDefaultMerger(t *testing.T) {
	q := NewInputQueue[int](nil)
	q.Submit("p1", 1, 10)
	q.Submit("p1", 2, 20)

	inputs, acks := q.Drain()
	assert.Equal(t, 20, inputs["p1"])
	assert.Equal(t, uint32(2), acks["p1"])
}

func TestInputQueue_SeqTracksHighestSeen(t *testing.T) {
	q := NewInputQueue[int](nil)
	q.Submit("p1", 5, 10)
	q.Submit("p1", 3, 20) // out-of-order arrival, lower seq

	_, acks := q.Drain()
	assert.Equal(t, uint32(5), acks["p1"])
}

type bitmask int

func (b bitmask) Union(other bitmask) bitmask { return b | other }

func TestOrMerger_CombinesBitmasks(t *testing.T) {
	q := NewInputQueue[bitmask](OrMerger[bitmask]())
	q.Submit("p1", 1, 0b001)
	q.Submit("p1", 2, 0b010)

	inputs, _ := q.Drain()
	assert.Equal(t, bitmask(0b011), inputs["p1"])
}

func TestInputQueue_Forget(t *testing.T) {
	q := NewInputQueue[int](nil)
	q.Submit("p1", 1, 10)
	q.Forget("p1")

	inputs, acks := q.Drain()
	assert.Empty(t, inputs)
	assert.Empty(t, acks)
}
