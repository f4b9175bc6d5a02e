// Package geom provides the small vector math shared across the simulation.
package geom

import "math"

// Vec3 is a point or direction in world space. Y is up; combat happens on
// the XZ plane.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSq returns the squared length (avoids sqrt in hot paths).
func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalized returns v scaled to unit length, or the zero vector if v is
// degenerate.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// DistanceTo returns the distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Flat returns v with Y zeroed, projecting onto the ground plane.
func (v Vec3) Flat() Vec3 {
	return Vec3{v.X, 0, v.Z}
}

// YawTo returns the yaw angle in radians from `from` toward `to` on the XZ
// plane.
func YawTo(from, to Vec3) float64 {
	return math.Atan2(to.X-from.X, to.Z-from.Z)
}

// YawDir returns the unit direction on the XZ plane for a yaw angle.
func YawDir(yaw float64) Vec3 {
	return Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
}

// NormalizeAngle wraps an angle to [-Pi, Pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// TurnToward rotates yaw toward target by at most rate radians, taking the
// short way around.
func TurnToward(yaw, target, rate float64) float64 {
	diff := NormalizeAngle(target - yaw)
	if math.Abs(diff) <= rate {
		return target
	}
	if diff > 0 {
		return NormalizeAngle(yaw + rate)
	}
	return NormalizeAngle(yaw - rate)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
