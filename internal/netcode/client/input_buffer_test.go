package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputBuffer_AddAssignsMonotonicSeq(t *testing.T) {
	b := NewInputBuffer[int](10)

	m0 := b.Add(1, 100)
	m1 := b.Add(2, 110)
	m2 := b.Add(3, 120)

	assert.Equal(t, uint32(0), m0.Seq)
	assert.Equal(t, uint32(1), m1.Seq)
	assert.Equal(t, uint32(2), m2.Seq)
	assert.Equal(t, 3, b.Len())
}

func TestInputBuffer_EvictsLowestSeqOverCapacity(t *testing.T) {
	b := NewInputBuffer[int](2)
	b.Add(1, 0)
	b.Add(2, 10)
	b.Add(3, 20)

	require.Equal(t, 2, b.Len())
	unacked := b.Unacknowledged(0)
	require.Len(t, unacked, 2)
	assert.Equal(t, uint32(1), unacked[0].Seq)
	assert.Equal(t, uint32(2), unacked[1].Seq)
}

func TestInputBuffer_UnacknowledgedSortedAndFiltered(t *testing.T) {
	b := NewInputBuffer[int](10)
	b.Add(1, 0)
	b.Add(2, 10)
	b.Add(3, 20)

	unacked := b.Unacknowledged(1)
	require.Len(t, unacked, 2)
	assert.Equal(t, uint32(2), unacked[0].Seq)
	assert.Equal(t, uint32(3), unacked[1].Seq)
}

func TestInputBuffer_AcknowledgeIsIdempotent(t *testing.T) {
	b := NewInputBuffer[int](10)
	b.Add(1, 0)
	b.Add(2, 10)
	b.Add(3, 20)

	b.Acknowledge(1)
	assert.Equal(t, 1, b.Len())

	// Calling again with the same (or lower) upTo changes nothing further.
	b.Acknowledge(1)
	assert.Equal(t, 1, b.Len())
}

func TestInputBuffer_ClearResetsSeqCounter(t *testing.T) {
	b := NewInputBuffer[int](10)
	b.Add(1, 0)
	b.Add(2, 10)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	m := b.Add(3, 20)
	assert.Equal(t, uint32(0), m.Seq)
}
