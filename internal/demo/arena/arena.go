// Package arena is a minimal top-down shooter implementing
// game.Definition and game.PredictionScope, used by cmd/server and
// cmd/client to exercise the netcode core end to end.
package arena

import (
	"fmt"

	"github.com/annel0/netcode-core/internal/netcode/game"
	"github.com/annel0/netcode-core/internal/vec"
)

const (
	moveSpeed    = 150.0 // world units per second
	worldHalf    = 1000.0
	attackRange  = 60.0
	attackDamage = 10
	maxHealth    = 100
)

// World is the authoritative state: one PlayerState per connected client.
type World struct {
	Players map[string]game.PlayerState
}

// Input is one tick's worth of movement/fire intent from a client.
type Input struct {
	MoveX, MoveY float64 // normalized direction, clamped to unit length by the client
	Fire         bool
}

// Action is a discrete melee swing at a target, lag-compensated server-side.
type Action struct {
	TargetID string
}

// Result is the outcome of validating an Action.
type Result struct {
	Hit    bool
	Damage int
}

func cloneWorld(w World) World {
	out := World{Players: make(map[string]game.PlayerState, len(w.Players))}
	for id, p := range w.Players {
		out.Players[id] = p
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Definition builds the arena's game.Definition capability bundle.
func Definition() *game.Definition[World, Input, Action, Result] {
	return &game.Definition[World, Input, Action, Result]{
		Simulate: func(world World, inputs map[string]Input, dtMs float64) World {
			next := cloneWorld(world)
			dt := dtMs / 1000.0
			for id, p := range next.Players {
				in, ok := inputs[id]
				if !ok {
					continue
				}
				vel := vec.Vec2{X: in.MoveX * moveSpeed, Y: in.MoveY * moveSpeed}
				pos := p.Pos.Add(vel.Mul(dt))
				pos.X = clamp(pos.X, -worldHalf, worldHalf)
				pos.Y = clamp(pos.Y, -worldHalf, worldHalf)
				p.Pos = pos
				p.Vel = vel
				next.Players[id] = p
			}
			return next
		},

		Interpolate: func(from, to World, alpha float64) World {
			out := World{Players: make(map[string]game.PlayerState, len(to.Players))}
			for id, toState := range to.Players {
				fromState, ok := from.Players[id]
				if !ok {
					out.Players[id] = toState
					continue
				}
				out.Players[id] = game.LerpPlayerState(fromState, toState, alpha, game.DefaultTeleportThreshold)
			}
			return out
		},

		ActionValidator: func(world World, clientID string, action Action) (bool, Result, error) {
			attacker, ok := world.Players[clientID]
			if !ok {
				return false, Result{}, fmt.Errorf("arena: attacker %s not in world", clientID)
			}
			target, ok := world.Players[action.TargetID]
			if !ok {
				return false, Result{}, fmt.Errorf("arena: target %s not in world", action.TargetID)
			}
			if attacker.Pos.DistanceTo(target.Pos) > attackRange {
				return false, Result{Hit: false}, nil
			}
			return true, Result{Hit: true, Damage: attackDamage}, nil
		},

		AddPlayer: func(world World, clientID string) World {
			next := cloneWorld(world)
			next.Players[clientID] = game.PlayerState{Pos: vec.Vec2{}, Vel: vec.Vec2{}, Health: maxHealth}
			return next
		},

		RemovePlayer: func(world World, clientID string) World {
			next := cloneWorld(world)
			delete(next.Players, clientID)
			return next
		},
	}
}

// PredictionScope builds the arena's client-side prediction capability
// bundle. The predicted "partial" world always contains at most the local
// player's entry, per the core's partial<W>-as-W convention.
func PredictionScope() *game.PredictionScope[World, Input] {
	return &game.PredictionScope[World, Input]{
		ExtractPredictable: func(world World, localID string) World {
			p, ok := world.Players[localID]
			if !ok {
				return World{Players: map[string]game.PlayerState{}}
			}
			return World{Players: map[string]game.PlayerState{localID: p}}
		},

		MergePrediction: func(serverWorld, predicted World) World {
			out := cloneWorld(serverWorld)
			for id, p := range predicted.Players {
				out.Players[id] = p
			}
			return out
		},

		SimulatePredicted: func(partial World, input Input, dtMs float64) World {
			out := cloneWorld(partial)
			dt := dtMs / 1000.0
			for id, p := range out.Players {
				vel := vec.Vec2{X: input.MoveX * moveSpeed, Y: input.MoveY * moveSpeed}
				pos := p.Pos.Add(vel.Mul(dt))
				pos.X = clamp(pos.X, -worldHalf, worldHalf)
				pos.Y = clamp(pos.Y, -worldHalf, worldHalf)
				p.Pos = pos
				p.Vel = vel
				out.Players[id] = p
			}
			return out
		},

		CreateIdleInput: func() Input { return Input{} },

		GetLocalPlayerPosition: func(partial World, localID string) (x, y float64, ok bool) {
			p, ok := partial.Players[localID]
			if !ok {
				return 0, 0, false
			}
			return p.Pos.X, p.Pos.Y, true
		},
	}
}
