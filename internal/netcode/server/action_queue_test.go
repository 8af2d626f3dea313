package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionQueue_SubmitAndDrain(t *testing.T) {
	q := NewActionQueue[string]()
	ok := q.Submit("p1", 1, "attack", 100)
	assert.True(t, ok)

	items := q.Drain()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].clientID)
	assert.Equal(t, "attack", items[0].action)
	assert.Equal(t, int64(100), items[0].timestampMs)
}

func TestActionQueue_DedupsBySeq(t *testing.T) {
	q := NewActionQueue[string]()
	assert.True(t, q.Submit("p1", 1, "attack", 100))
	assert.False(t, q.Submit("p1", 1, "attack-retry", 110)) // same seq, at-least-once redelivery
	assert.False(t, q.Submit("p1", 0, "stale", 90))         // older seq

	items := q.Drain()
	require.Len(t, items, 1)
	assert.Equal(t, "attack", items[0].action)
}

func TestActionQueue_DrainClearsQueue(t *testing.T) {
	q := NewActionQueue[string]()
	q.Submit("p1", 1, "attack", 100)
	q.Drain()

	assert.Empty(t, q.Drain())
}

func TestActionQueue_ForgetResetsDedupHistory(t *testing.T) {
	q := NewActionQueue[string]()
	q.Submit("p1", 5, "attack", 100)
	q.Forget("p1")

	// Without Forget this resubmission at seq 1 would be rejected as stale.
	assert.True(t, q.Submit("p1", 1, "attack-again", 200))
}

func TestActionQueue_PreservesSubmissionOrder(t *testing.T) {
	q := NewActionQueue[string]()
	q.Submit("p1", 1, "first", 100)
	q.Submit("p2", 1, "second", 110)
	q.Submit("p1", 2, "third", 120)

	items := q.Drain()
	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].action)
	assert.Equal(t, "second", items[1].action)
	assert.Equal(t, "third", items[2].action)
}
