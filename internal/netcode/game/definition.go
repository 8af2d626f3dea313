// Package game holds the capability bundles a concrete game supplies to the
// core (spec §4.5, §6, §9 "Dynamic dispatch of game logic"). These are
// plain structs of function values rather than interfaces with methods,
// since Go methods cannot introduce extra type parameters beyond the
// receiver's — a function-value bundle keeps the W/I/A/R parameterization
// on the struct itself instead of forcing a family of interfaces per arity.
package game

// Definition is the game's simulation contract (spec §6).
type Definition[W any, I any, A any, R any] struct {
	// Simulate advances the world by one tick given each known client's
	// resolved input. Must be pure: depends only on its arguments.
	Simulate func(world W, inputs map[string]I, dtMs float64) W

	// Interpolate blends two world states for rendering remote entities
	// (spec §4.8). Implementations should lerp continuous fields and snap
	// discrete ones; see netcode/game.LerpPlayerState for a reusable helper.
	Interpolate func(from, to W, alpha float64) W

	// Serialize/Deserialize are optional hooks for cross-language wire
	// compatibility; nil means the caller's own protocol.Codec is used
	// instead.
	Serialize   func(world W) ([]byte, error)
	Deserialize func(data []byte) (W, error)

	// ActionValidator validates a lag-compensated action against a historical
	// world (spec §4.10-4.11). Nil means the game has no discrete actions.
	ActionValidator func(world W, clientID string, action A) (success bool, result R, err error)

	// AddPlayer / RemovePlayer let the World Manager (spec, 3% share)
	// mutate world membership without the core inspecting W's fields.
	AddPlayer    func(world W, clientID string) W
	RemovePlayer func(world W, clientID string) W
}

// PredictionScope is the game-supplied capability set the client uses to
// run ahead of the server (spec §4.5). "partial<W>" from the spec is
// represented as W itself by convention: a partial carries only the fields
// a game's ExtractPredictable/SimulatePredicted/MergePrediction choose to
// touch, avoiding a second generic type parameter for the whole client
// package tree.
type PredictionScope[W any, I any] struct {
	// ExtractPredictable isolates the state the client may simulate ahead,
	// typically the local player and its owned projectiles.
	ExtractPredictable func(world W, localID string) W

	// MergePrediction overlays predicted fields onto an authoritative world,
	// leaving server-only fields (combat, score) untouched.
	MergePrediction func(serverWorld W, predicted W) W

	// SimulatePredicted advances the predictable subset by one input/tick.
	SimulatePredicted func(partial W, input I, dtMs float64) W

	// CreateIdleInput produces the input to assume when none has arrived yet.
	CreateIdleInput func() I

	// GetLocalPlayerPosition extracts (x, y) for the Tick Smoother.
	GetLocalPlayerPosition func(partial W, localID string) (x, y float64, ok bool)
}
