// Package server implements the server-authoritative half of the strategy:
// Input Queue, Action Queue, World Manager, Game Loop, Lag Compensator and
// the Strategy that orchestrates them (spec §4.3-§4.5, §4.10-§4.12).
package server

import "sync"

// Merger resolves multiple inputs received for the same client within one
// tick into the single input the simulation will apply. Spec's open
// question #3 is resolved by defaulting to LastWins while allowing any
// pluggable Merger.
type Merger[I any] func(existing, incoming I) I

// LastWins is the default Merger: the most recently received input for a
// tick replaces whatever was queued before it.
func LastWins[I any](existing, incoming I) I { return incoming }

// Unionable lets an input type define its own combination rule, e.g. OR-ing
// together button bitmasks received twice in one tick window.
type Unionable[I any] interface {
	Union(other I) I
}

// OrMerger adapts a Unionable input type into a Merger.
func OrMerger[I Unionable[I]]() Merger[I] {
	return func(existing, incoming I) I { return existing.Union(incoming) }
}

// InputQueue buffers the latest input per client for the tick currently
// being assembled (spec §4.3) and tracks each client's highest-acknowledged
// seq across ticks, so input_acks stays monotonically non-decreasing (spec
// §3, §8) even on ticks where a client sends nothing.
type InputQueue[I any] struct {
	mu      sync.Mutex
	merger  Merger[I]
	byID    map[string]I
	lastAck map[string]uint32
}

// NewInputQueue creates a queue using merger to resolve same-tick
// duplicates. A nil merger defaults to LastWins.
func NewInputQueue[I any](merger Merger[I]) *InputQueue[I] {
	if merger == nil {
		merger = LastWins[I]
	}
	return &InputQueue[I]{merger: merger, byID: make(map[string]I), lastAck: make(map[string]uint32)}
}

// Submit records clientID's input for the in-progress tick, merging with
// anything already queued for that client this tick, and remembers seq as
// the highest sequence number seen for that client across all ticks. An
// input whose seq is not above that highest seq is stale or a duplicate
// and is dropped silently.
func (q *InputQueue[I]) Submit(clientID string, seq uint32, input I) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.lastAck[clientID]; ok && seq <= prev {
		return
	}

	if existing, ok := q.byID[clientID]; ok {
		q.byID[clientID] = q.merger(existing, input)
	} else {
		q.byID[clientID] = input
	}
	q.lastAck[clientID] = seq
}

// Drain returns the merged per-client inputs for the completed tick, clearing
// them for the next tick, plus every known client's highest-ever-acked seq
// (not just this tick's submitters) so a quiet tick still reports a
// monotonically non-decreasing ack for every client that has ever submitted.
func (q *InputQueue[I]) Drain() (inputs map[string]I, acks map[string]uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	inputs = q.byID
	q.byID = make(map[string]I)

	acks = make(map[string]uint32, len(q.lastAck))
	for id, seq := range q.lastAck {
		acks[id] = seq
	}
	return inputs, acks
}

// Forget drops any buffered input/ack for clientID, used on disconnect.
func (q *InputQueue[I]) Forget(clientID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.byID, clientID)
	delete(q.lastAck, clientID)
}
