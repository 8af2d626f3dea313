// Package snapshot implements the ring buffer of world states keyed by tick
// and timestamp (spec §4.1), shared by the server's broadcast history, the
// client's Interpolator, and the rollback client's state history.
package snapshot

import "fmt"

// Snapshot is an immutable record of world state at one tick (spec §3).
type Snapshot[W any] struct {
	Tick        uint64
	TimestampMs int64
	State       W
	InputAcks   map[string]uint32
}

// Buffer is a fixed-capacity ring of Snapshots. Add enforces the
// strictly-increasing-tick invariant explicitly rather than assuming
// insertion order is tick order (spec §9 open question #1): Latest and
// AtTick both scan for the true match/maximum instead of trusting
// insertion position, so a future relaxation of the add-order invariant
// cannot silently corrupt lookups.
type Buffer[W any] struct {
	entries  []Snapshot[W]
	capacity int
	nextIdx  int
	size     int
	lastTick uint64
	hasLast  bool
}

// NewBuffer creates a buffer with the given ring capacity.
func NewBuffer[W any](capacity int) *Buffer[W] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[W]{entries: make([]Snapshot[W], capacity), capacity: capacity}
}

// Add appends s, evicting the oldest entry if the buffer is full. Returns an
// error if s.Tick does not strictly increase over the previously added tick.
func (b *Buffer[W]) Add(s Snapshot[W]) error {
	if b.hasLast && s.Tick <= b.lastTick {
		return fmt.Errorf("snapshot: tick %d does not strictly increase over last tick %d", s.Tick, b.lastTick)
	}
	b.entries[b.nextIdx] = s
	b.nextIdx = (b.nextIdx + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	b.lastTick = s.Tick
	b.hasLast = true
	return nil
}

// Len returns the number of snapshots currently held.
func (b *Buffer[W]) Len() int { return b.size }

// Latest returns the snapshot with the highest tick, or false if empty.
func (b *Buffer[W]) Latest() (Snapshot[W], bool) {
	var best Snapshot[W]
	found := false
	b.forEach(func(s Snapshot[W]) {
		if !found || s.Tick > best.Tick {
			best = s
			found = true
		}
	})
	return best, found
}

// AtTick returns the snapshot whose Tick equals t, if present.
func (b *Buffer[W]) AtTick(t uint64) (Snapshot[W], bool) {
	var match Snapshot[W]
	found := false
	b.forEach(func(s Snapshot[W]) {
		if s.Tick == t {
			match = s
			found = true
		}
	})
	return match, found
}

// AtTimestamp returns the most recent snapshot with TimestampMs <= ts, or the
// earliest snapshot if ts precedes all of them (spec §4.1).
func (b *Buffer[W]) AtTimestamp(ts int64) (Snapshot[W], bool) {
	var best Snapshot[W]
	var earliest Snapshot[W]
	found, haveEarliest := false, false

	b.forEach(func(s Snapshot[W]) {
		if !haveEarliest || s.TimestampMs < earliest.TimestampMs {
			earliest = s
			haveEarliest = true
		}
		if s.TimestampMs <= ts && (!found || s.TimestampMs > best.TimestampMs) {
			best = s
			found = true
		}
	})

	if found {
		return best, true
	}
	return earliest, haveEarliest
}

// Adjacent returns the bracketing pair (a, b) such that a.TimestampMs <= ts
// <= b.TimestampMs, clamping to the endpoints when ts falls outside the
// buffered range. Used by the Interpolator (spec §4.8).
func (b *Buffer[W]) Adjacent(ts int64) (a, b2 Snapshot[W], ok bool) {
	if b.size == 0 {
		return a, b2, false
	}

	var before, after Snapshot[W]
	haveBefore, haveAfter := false, false

	b.forEach(func(s Snapshot[W]) {
		if s.TimestampMs <= ts && (!haveBefore || s.TimestampMs > before.TimestampMs) {
			before = s
			haveBefore = true
		}
		if s.TimestampMs >= ts && (!haveAfter || s.TimestampMs < after.TimestampMs) {
			after = s
			haveAfter = true
		}
	})

	switch {
	case haveBefore && haveAfter:
		return before, after, true
	case haveBefore:
		return before, before, true
	case haveAfter:
		return after, after, true
	default:
		return a, b2, false
	}
}

// Replace overwrites the entry at tick t in place, if present, without
// touching the strictly-increasing-tick check Add enforces. Used by the
// rollback client to correct an already-recorded frame's state after a
// late remote input invalidates its earlier, predicted simulation.
func (b *Buffer[W]) Replace(t uint64, s Snapshot[W]) bool {
	n := b.capacity
	if b.size < b.capacity {
		n = b.size
	}
	for i := 0; i < n; i++ {
		if b.entries[i].Tick == t {
			b.entries[i] = s
			return true
		}
	}
	return false
}

// Clear empties the buffer and resets the tick-ordering check.
func (b *Buffer[W]) Clear() {
	b.entries = make([]Snapshot[W], b.capacity)
	b.nextIdx = 0
	b.size = 0
	b.hasLast = false
}

func (b *Buffer[W]) forEach(fn func(Snapshot[W])) {
	if b.size < b.capacity {
		for i := 0; i < b.size; i++ {
			fn(b.entries[i])
		}
		return
	}
	for i := 0; i < b.capacity; i++ {
		fn(b.entries[i])
	}
}
