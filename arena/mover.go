package arena

import (
	"math"

	"github.com/pthm-cable/skirmish/geom"
)

// Step advances an actor toward dir for dt seconds and returns the resolved
// position: bounds-clamped, pushed out of obstacle footprints, and synced to
// the collision oracle.
func (a *Arena) Step(id ActorID, pos, dir geom.Vec3, speed, dt, radius float64) geom.Vec3 {
	d := dir.Flat().Normalized()
	next := pos.Add(d.Scale(speed * dt))
	next.Y = pos.Y
	next = a.ClampToBounds(next)
	next = a.resolveObstacles(next, radius)
	a.MoveActor(id, next)
	return next
}

// resolveObstacles pushes a point out of any obstacle footprint it overlaps,
// along the axis of least penetration.
func (a *Arena) resolveObstacles(p geom.Vec3, radius float64) geom.Vec3 {
	for _, o := range a.obstacles {
		hw := o.Width/2 + radius
		hd := o.Depth/2 + radius
		dx := p.X - o.Pos.X
		dz := p.Z - o.Pos.Z
		if dx > -hw && dx < hw && dz > -hd && dz < hd {
			if hw-math.Abs(dx) < hd-math.Abs(dz) {
				p.X = o.Pos.X + math.Copysign(hw, dx)
			} else {
				p.Z = o.Pos.Z + math.Copysign(hd, dz)
			}
		}
	}
	return p
}
