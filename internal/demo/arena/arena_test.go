package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/netcode-core/internal/netcode/game"
	"github.com/annel0/netcode-core/internal/vec"
)

func TestDefinition_SimulateMovesAndClampsToWorldBounds(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 0, Y: 0}, Health: 100},
	}}
	inputs := map[string]Input{"p1": {MoveX: 1, MoveY: 0}}

	// 150 units/s * 1.0s = 150 units along X.
	next := def.Simulate(world, inputs, 1000)
	p := next.Players["p1"]
	assert.InDelta(t, 150.0, p.Pos.X, 0.001)
	assert.InDelta(t, 0.0, p.Pos.Y, 0.001)
	assert.InDelta(t, 150.0, p.Vel.X, 0.001)

	// Original world must be untouched (Simulate clones).
	assert.Equal(t, 0.0, world.Players["p1"].Pos.X)
}

func TestDefinition_SimulateClampsAtWorldHalfExtent(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 990, Y: 0}},
	}}
	inputs := map[string]Input{"p1": {MoveX: 1, MoveY: 0}}

	// 990 + 150 = 1140, clamped to worldHalf (1000).
	next := def.Simulate(world, inputs, 1000)
	assert.Equal(t, 1000.0, next.Players["p1"].Pos.X)
}

func TestDefinition_SimulateSkipsPlayersWithoutInput(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 5, Y: 5}},
	}}
	next := def.Simulate(world, map[string]Input{}, 1000)
	assert.Equal(t, vec.Vec2{X: 5, Y: 5}, next.Players["p1"].Pos)
}

func TestDefinition_InterpolateBlendsExistingPlayers(t *testing.T) {
	def := Definition()
	from := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 0, Y: 0}, Health: 100},
	}}
	to := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 100, Y: 0}, Health: 80},
	}}

	out := def.Interpolate(from, to, 0.5)
	p := out.Players["p1"]
	assert.InDelta(t, 50.0, p.Pos.X, 0.001)
	// Health is discrete, always takes `to`.
	assert.Equal(t, 80, p.Health)
}

func TestDefinition_InterpolateSnapsBeyondTeleportThreshold(t *testing.T) {
	def := Definition()
	from := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 0, Y: 0}},
	}}
	to := World{Players: map[string]game.PlayerState{
		// Distance 300 > DefaultTeleportThreshold (200): must snap, not blend.
		"p1": {Pos: vec.Vec2{X: 300, Y: 0}},
	}}

	out := def.Interpolate(from, to, 0.5)
	assert.Equal(t, 300.0, out.Players["p1"].Pos.X)
}

func TestDefinition_InterpolateUsesToDirectlyForNewPlayers(t *testing.T) {
	def := Definition()
	from := World{Players: map[string]game.PlayerState{}}
	to := World{Players: map[string]game.PlayerState{
		"p2": {Pos: vec.Vec2{X: 10, Y: 10}},
	}}

	out := def.Interpolate(from, to, 0.5)
	assert.Equal(t, vec.Vec2{X: 10, Y: 10}, out.Players["p2"].Pos)
}

func TestDefinition_ActionValidatorHitsWithinRange(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{
		"attacker": {Pos: vec.Vec2{X: 0, Y: 0}},
		"target":   {Pos: vec.Vec2{X: 30, Y: 0}}, // within attackRange (60)
	}}

	ok, res, err := def.ActionValidator(world, "attacker", Action{TargetID: "target"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, res.Hit)
	assert.Equal(t, 10, res.Damage)
}

func TestDefinition_ActionValidatorMissesOutOfRange(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{
		"attacker": {Pos: vec.Vec2{X: 0, Y: 0}},
		"target":   {Pos: vec.Vec2{X: 100, Y: 0}}, // outside attackRange (60)
	}}

	ok, res, err := def.ActionValidator(world, "attacker", Action{TargetID: "target"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, res.Hit)
}

func TestDefinition_ActionValidatorErrorsOnMissingAttackerOrTarget(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{
		"attacker": {Pos: vec.Vec2{X: 0, Y: 0}},
	}}

	_, _, err := def.ActionValidator(world, "ghost", Action{TargetID: "attacker"})
	assert.Error(t, err)

	_, _, err = def.ActionValidator(world, "attacker", Action{TargetID: "ghost"})
	assert.Error(t, err)
}

func TestDefinition_AddAndRemovePlayer(t *testing.T) {
	def := Definition()
	world := World{Players: map[string]game.PlayerState{}}

	withP1 := def.AddPlayer(world, "p1")
	p1, ok := withP1.Players["p1"]
	require.True(t, ok)
	assert.Equal(t, maxHealth, p1.Health)
	assert.Empty(t, world.Players) // original untouched

	withoutP1 := def.RemovePlayer(withP1, "p1")
	_, ok = withoutP1.Players["p1"]
	assert.False(t, ok)
}

func TestPredictionScope_ExtractPredictableIsolatesLocalPlayer(t *testing.T) {
	scope := PredictionScope()
	world := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 1, Y: 1}},
		"p2": {Pos: vec.Vec2{X: 2, Y: 2}},
	}}

	partial := scope.ExtractPredictable(world, "p1")
	require.Len(t, partial.Players, 1)
	_, hasP2 := partial.Players["p2"]
	assert.False(t, hasP2)
}

func TestPredictionScope_ExtractPredictableMissingLocalPlayer(t *testing.T) {
	scope := PredictionScope()
	world := World{Players: map[string]game.PlayerState{
		"p2": {Pos: vec.Vec2{X: 2, Y: 2}},
	}}

	partial := scope.ExtractPredictable(world, "p1")
	assert.Empty(t, partial.Players)
}

func TestPredictionScope_SimulatePredictedMovesAllEntriesInPartial(t *testing.T) {
	scope := PredictionScope()
	partial := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 0, Y: 0}},
	}}

	next := scope.SimulatePredicted(partial, Input{MoveX: 0, MoveY: 1}, 1000)
	assert.InDelta(t, 150.0, next.Players["p1"].Pos.Y, 0.001)
}

func TestPredictionScope_MergePredictionOverlaysServerWorld(t *testing.T) {
	scope := PredictionScope()
	serverWorld := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 0, Y: 0}},
		"p2": {Pos: vec.Vec2{X: 5, Y: 5}},
	}}
	predicted := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 99, Y: 99}},
	}}

	merged := scope.MergePrediction(serverWorld, predicted)
	assert.Equal(t, vec.Vec2{X: 99, Y: 99}, merged.Players["p1"].Pos)
	assert.Equal(t, vec.Vec2{X: 5, Y: 5}, merged.Players["p2"].Pos) // untouched
}

func TestPredictionScope_CreateIdleInputIsZeroValue(t *testing.T) {
	scope := PredictionScope()
	assert.Equal(t, Input{}, scope.CreateIdleInput())
}

func TestPredictionScope_GetLocalPlayerPosition(t *testing.T) {
	scope := PredictionScope()
	partial := World{Players: map[string]game.PlayerState{
		"p1": {Pos: vec.Vec2{X: 7, Y: 8}},
	}}

	x, y, ok := scope.GetLocalPlayerPosition(partial, "p1")
	assert.True(t, ok)
	assert.Equal(t, 7.0, x)
	assert.Equal(t, 8.0, y)

	_, _, ok = scope.GetLocalPlayerPosition(partial, "ghost")
	assert.False(t, ok)
}
