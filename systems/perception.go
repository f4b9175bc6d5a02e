package systems

import (
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

// CanPerceive reports whether the actor at selfPos has line of sight to the
// target: cheap range rejection first, then a single obstruction query from
// the eye point bounded to the target distance. The target is visible iff
// the first obstruction struck is the target itself, or nothing is struck.
// Fails closed when the target is dead or the oracle is unavailable.
func CanPerceive(w World, self Actor, target TargetInfo) bool {
	if !target.Alive {
		return false
	}
	cfg := config.Cfg()
	pos := self.Pos.Vec()
	dist := pos.Flat().DistanceTo(target.Pos.Flat())
	if dist > cfg.Perception.VisionRange {
		return false
	}
	if w == nil {
		return false
	}
	origin := pos
	origin.Y += cfg.Perception.EyeHeight
	hit, ok := w.Raycast(origin, target.Pos.Sub(pos), dist, self.ID)
	if !ok {
		return false
	}
	if !hit.Hit {
		return true
	}
	return hit.Actor == target.ID
}

// RefreshPerception re-evaluates the cached visibility flag at the
// configured cadence and keeps last-known memory current while in contact.
func RefreshPerception(env Env, a Actor, target TargetInfo) {
	cfg := config.Cfg()
	if env.Now-a.Tac.EvaluatedAt >= cfg.Perception.Interval {
		a.Tac.Visible = CanPerceive(env.World, a, target)
		a.Tac.EvaluatedAt = env.Now
	}
	if a.Tac.Visible {
		a.Mem.Remember(target.Pos, env.Now)
	}
}

// facing turns the actor toward a point at its turn rate.
func facing(env Env, a Actor, at geom.Vec3) {
	a.Rot.Yaw = geom.TurnToward(a.Rot.Yaw, geom.YawTo(a.Pos.Vec(), at), a.Move.TurnSpeed*env.DT)
}
