// Package vec provides the minimal floating-point vector math shared by the
// prediction, reconciliation and interpolation components. Positions and
// velocities inside a game's world/input types are free to use their own
// representation; this package exists for demo games and tests that want a
// ready-made one.
package vec

import "math"

// Vec2 is a 2D point or velocity with floating-point coordinates.
type Vec2 struct {
	X, Y float64
}

// Add returns the component-wise sum of v and other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the component-wise difference v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul scales v by a scalar.
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Lerp linearly interpolates between v and to by alpha, which is not clamped
// by this function — callers clamp at the call site where the valid range is
// known (see netcode/client.Interpolator).
func (v Vec2) Lerp(to Vec2, alpha float64) Vec2 {
	return Vec2{
		X: v.X + (to.X-v.X)*alpha,
		Y: v.Y + (to.Y-v.Y)*alpha,
	}
}

// Normalized returns v scaled to unit length, or the zero vector if v is zero.
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// DistanceTo returns the Euclidean distance between v and other.
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}
