// Package client implements the client-side half of the server-authoritative
// strategy: Input Buffer, Predictor, Reconciler, Interpolator, Tick Smoother
// and the Strategy that orchestrates them (spec §4.2, §4.6-§4.9, §4.13).
package client

import (
	"sort"
	"sync"

	"github.com/annel0/netcode-core/internal/protocol"
)

// InputBuffer stores a client's unacknowledged InputMessages by sequence
// number (spec §4.2).
type InputBuffer[I any] struct {
	mu      sync.Mutex
	pending map[uint32]protocol.InputMessage[I]
	nextSeq uint32
	maxSize int
}

// NewInputBuffer creates a buffer that evicts the lowest seq once it holds
// more than maxSize unacknowledged messages (spec §3's MAX_INPUT_BUFFER).
func NewInputBuffer[I any](maxSize int) *InputBuffer[I] {
	return &InputBuffer[I]{pending: make(map[uint32]protocol.InputMessage[I]), maxSize: maxSize}
}

// Add allocates the next seq for input and stores it, evicting the oldest
// (lowest-seq) entry if the buffer is at capacity.
func (b *InputBuffer[I]) Add(input I, timestampMs int64) protocol.InputMessage[I] {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := protocol.InputMessage[I]{Seq: b.nextSeq, Input: input, TimestampMs: timestampMs}
	b.nextSeq++
	b.pending[msg.Seq] = msg

	if len(b.pending) > b.maxSize {
		lowest := msg.Seq
		for seq := range b.pending {
			if seq < lowest {
				lowest = seq
			}
		}
		delete(b.pending, lowest)
	}
	return msg
}

// Unacknowledged returns all messages with Seq > after, sorted by Seq.
func (b *InputBuffer[I]) Unacknowledged(after uint32) []protocol.InputMessage[I] {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]protocol.InputMessage[I], 0, len(b.pending))
	for seq, msg := range b.pending {
		if seq > after {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Acknowledge deletes all entries with Seq <= upTo. Calling it twice with
// the same upTo is a no-op the second time.
func (b *InputBuffer[I]) Acknowledge(upTo uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for seq := range b.pending {
		if seq <= upTo {
			delete(b.pending, seq)
		}
	}
}

// Clear resets the buffer including the seq counter.
func (b *InputBuffer[I]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = make(map[uint32]protocol.InputMessage[I])
	b.nextSeq = 0
}

// Len reports how many unacknowledged messages remain.
func (b *InputBuffer[I]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
