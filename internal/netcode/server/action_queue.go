package server

import "sync"

// queuedAction pairs an action with the client and seq it arrived under, so
// its ActionAckMessage can be routed back and deduplicated.
type queuedAction[A any] struct {
	clientID    string
	seq         uint32
	action      A
	timestampMs int64
}

// ActionQueue buffers one-off, individually-validated actions (spec §4.10)
// separately from the per-tick merged Input Queue: actions are discrete
// events (use an item, open a door) rather than continuous per-tick state.
type ActionQueue[A any] struct {
	mu    sync.Mutex
	items []queuedAction[A]
	seen  map[string]uint32 // clientID -> highest seq already validated, for dedup
}

// NewActionQueue creates an empty action queue.
func NewActionQueue[A any]() *ActionQueue[A] {
	return &ActionQueue[A]{seen: make(map[string]uint32)}
}

// Submit enqueues an action from clientID unless seq has already been seen
// for that client (at-least-once delivery dedup).
func (q *ActionQueue[A]) Submit(clientID string, seq uint32, action A, timestampMs int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if last, ok := q.seen[clientID]; ok && seq <= last {
		return false
	}
	q.seen[clientID] = seq
	q.items = append(q.items, queuedAction[A]{clientID: clientID, seq: seq, action: action, timestampMs: timestampMs})
	return true
}

// Drain returns and clears all actions queued since the last Drain, in
// submission order.
func (q *ActionQueue[A]) Drain() []queuedAction[A] {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Forget drops dedup history for clientID, used on disconnect.
func (q *ActionQueue[A]) Forget(clientID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.seen, clientID)
}
