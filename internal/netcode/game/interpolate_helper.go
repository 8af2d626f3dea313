package game

import "github.com/annel0/netcode-core/internal/vec"

// PlayerState is a reusable continuous/discrete split for games whose player
// representation is a simple position+velocity+health-like record. It is not
// required by the core (W stays fully opaque there) but factors out the
// lerp/teleport-snap rule spec §4.8 describes, so a game's own Interpolate
// implementation does not have to re-derive it.
type PlayerState struct {
	Pos    vec.Vec2
	Vel    vec.Vec2
	Health int
}

// DefaultTeleportThreshold matches spec §6's teleport_threshold default.
const DefaultTeleportThreshold = 200.0

// LerpPlayerState blends from/to per spec §4.8: positions and velocities are
// linearly interpolated unless the two positions are farther apart than
// teleportThreshold, in which case the result snaps to `to` without
// blending (masking respawns and large corrections). Health is a discrete
// field and always takes `to`.
func LerpPlayerState(from, to PlayerState, alpha, teleportThreshold float64) PlayerState {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	if from.Pos.DistanceTo(to.Pos) > teleportThreshold {
		return PlayerState{Pos: to.Pos, Vel: to.Vel, Health: to.Health}
	}

	return PlayerState{
		Pos:    from.Pos.Lerp(to.Pos, alpha),
		Vel:    from.Vel.Lerp(to.Vel, alpha),
		Health: to.Health,
	}
}
