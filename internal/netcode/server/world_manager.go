package server

import (
	"sync"

	"github.com/annel0/netcode-core/internal/netcode/game"
)

// WorldManager owns the single authoritative world instance and the set of
// connected clients, calling into the game's AddPlayer/RemovePlayer hooks on
// join/leave so per-game spawn/despawn logic stays in the game's Definition
// rather than in the core.
type WorldManager[W any, I any, A any, R any] struct {
	mu        sync.RWMutex
	def       *game.Definition[W, I, A, R]
	world     W
	clients   map[string]struct{}
	lastInput map[string]I
}

// NewWorldManager seeds the manager with the game's initial world.
func NewWorldManager[W any, I any, A any, R any](def *game.Definition[W, I, A, R], initial W) *WorldManager[W, I, A, R] {
	return &WorldManager[W, I, A, R]{def: def, world: initial, clients: make(map[string]struct{}), lastInput: make(map[string]I)}
}

// AddClient registers clientID and runs the game's spawn hook, returning the
// world snapshot to hand back in the JoinMessage response.
func (m *WorldManager[W, I, A, R]) AddClient(clientID string) W {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[clientID] = struct{}{}
	m.world = m.def.AddPlayer(m.world, clientID)
	return m.world
}

// RemoveClient unregisters clientID and runs the game's despawn hook.
func (m *WorldManager[W, I, A, R]) RemoveClient(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clientID)
	delete(m.lastInput, clientID)
	m.world = m.def.RemovePlayer(m.world, clientID)
}

// Clients returns a snapshot of the currently connected client IDs.
func (m *WorldManager[W, I, A, R]) Clients() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.clients))
	for id := range m.clients {
		out = append(out, id)
	}
	return out
}

// Simulate advances the world by dtMs using the merged per-client inputs.
// A client with no input this tick repeats its last-applied input (spec
// §4.3) rather than idling; idle is only used before any input has ever
// arrived from that client.
func (m *WorldManager[W, I, A, R]) Simulate(inputs map[string]I, idle I, dtMs float64) W {
	m.mu.Lock()
	defer m.mu.Unlock()

	full := make(map[string]I, len(m.clients))
	for id := range m.clients {
		if in, ok := inputs[id]; ok {
			full[id] = in
			m.lastInput[id] = in
		} else if last, ok := m.lastInput[id]; ok {
			full[id] = last
		} else {
			full[id] = idle
		}
	}

	m.world = m.def.Simulate(m.world, full, dtMs)
	return m.world
}

// ValidateAction runs the game's action validator against the current
// world, without mutating it further than the validator itself chooses to.
func (m *WorldManager[W, I, A, R]) ValidateAction(clientID string, action A) (bool, R, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def.ActionValidator(m.world, clientID, action)
}

// Current returns the authoritative world as of the last completed tick.
func (m *WorldManager[W, I, A, R]) Current() W {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.world
}

// SetWorld overwrites the authoritative world. The server Strategy and the
// Lag Compensator do not call it: a validated action's result is reported
// in its ActionAckMessage and is not applied to the world.
func (m *WorldManager[W, I, A, R]) SetWorld(w W) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.world = w
}
