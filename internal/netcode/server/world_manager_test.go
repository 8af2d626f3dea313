package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/netcode-core/internal/netcode/game"
)

type counterWorld map[string]int

func cloneCounterWorld(w counterWorld) counterWorld {
	out := make(counterWorld, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func counterDefinition() *game.Definition[counterWorld, int, string, bool] {
	return &game.Definition[counterWorld, int, string, bool]{
		Simulate: func(world counterWorld, inputs map[string]int, dtMs float64) counterWorld {
			next := cloneCounterWorld(world)
			for id, in := range inputs {
				next[id] += in
			}
			return next
		},
		ActionValidator: func(world counterWorld, clientID string, action string) (bool, bool, error) {
			if _, ok := world[clientID]; !ok {
				return false, false, fmt.Errorf("client %s not in world", clientID)
			}
			return true, true, nil
		},
		AddPlayer: func(world counterWorld, clientID string) counterWorld {
			next := cloneCounterWorld(world)
			next[clientID] = 0
			return next
		},
		RemovePlayer: func(world counterWorld, clientID string) counterWorld {
			next := cloneCounterWorld(world)
			delete(next, clientID)
			return next
		},
	}
}

func TestWorldManager_AddAndRemoveClient(t *testing.T) {
	m := NewWorldManager[counterWorld, int, string, bool](counterDefinition(), counterWorld{})
	world := m.AddClient("p1")
	assert.Contains(t, world, "p1")
	assert.ElementsMatch(t, []string{"p1"}, m.Clients())

	m.RemoveClient("p1")
	assert.NotContains(t, m.Current(), "p1")
	assert.Empty(t, m.Clients())
}

func TestWorldManager_SimulateIdlesBeforeFirstInput(t *testing.T) {
	m := NewWorldManager[counterWorld, int, string, bool](counterDefinition(), counterWorld{})
	m.AddClient("p1")
	m.AddClient("p2")

	// p2 has never sent input yet, so it idles rather than repeating anything.
	world := m.Simulate(map[string]int{"p1": 5}, 0, 16.6)
	assert.Equal(t, 5, world["p1"])
	assert.Equal(t, 0, world["p2"])
}

func TestWorldManager_SimulateRepeatsLastInputWhenMissing(t *testing.T) {
	m := NewWorldManager[counterWorld, int, string, bool](counterDefinition(), counterWorld{})
	m.AddClient("p1")
	m.AddClient("p2")

	world := m.Simulate(map[string]int{"p1": 5}, 0, 16.6)
	require.Equal(t, 5, world["p1"])
	require.Equal(t, 0, world["p2"])

	// p1 sends nothing this tick: its last-applied input (5) is repeated
	// rather than idling it to a dead stop. p2 sends its first input.
	world = m.Simulate(map[string]int{"p2": 3}, 0, 16.6)
	assert.Equal(t, 10, world["p1"]) // 5 (tick1) + 5 (repeated)
	assert.Equal(t, 3, world["p2"])

	// Neither sends input: both repeat their last-applied input.
	world = m.Simulate(map[string]int{}, 0, 16.6)
	assert.Equal(t, 15, world["p1"]) // 10 + 5 (repeated)
	assert.Equal(t, 6, world["p2"])  // 3 + 3 (repeated)
}

func TestWorldManager_ValidateAction(t *testing.T) {
	m := NewWorldManager[counterWorld, int, string, bool](counterDefinition(), counterWorld{})
	m.AddClient("p1")

	ok, result, err := m.ValidateAction("p1", "attack")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, result)

	_, _, err = m.ValidateAction("ghost", "attack")
	assert.Error(t, err)
}

func TestWorldManager_SetWorld(t *testing.T) {
	m := NewWorldManager[counterWorld, int, string, bool](counterDefinition(), counterWorld{})
	m.SetWorld(counterWorld{"p1": 42})
	assert.Equal(t, 42, m.Current()["p1"])
}
