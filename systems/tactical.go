package systems

import (
	"math"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

// hideScoreDistK weights hiding-spot scores against obstacle distance.
const hideScoreDistK = 0.1

// StepTactical runs one tick of the behavior controller and returns the
// movement and fire request for the external executors. Dead actors decide
// nothing.
func StepTactical(env Env, a Actor, target TargetInfo) Decision {
	if !a.Vitals.Alive {
		return Decision{}
	}
	switch s := a.Tac.State.(type) {
	case components.Patrol:
		return stepPatrol(env, a, target, s)
	case components.Engage:
		return stepEngage(env, a, target, s)
	case components.Retreat:
		return stepRetreat(env, a, target)
	case components.Hide:
		return stepHide(env, a, target, s)
	default:
		EnterPatrol(env, a)
		return Decision{}
	}
}

func stepPatrol(env Env, a Actor, target TargetInfo, s components.Patrol) Decision {
	cfg := config.Cfg()

	// Sustained visibility for at least the reaction time flips to Engage.
	if a.Tac.Visible {
		if !s.Spotted {
			s = components.Patrol{Spotted: true, SpottedAt: env.Now}
		}
		if env.Now-s.SpottedAt >= a.Tac.ReactionTime {
			a.Mem.Remember(target.Pos, env.Now)
			a.Tac.State = components.Engage{}
			return Decision{}
		}
	} else if s.Spotted {
		s = components.Patrol{}
	}
	a.Tac.State = s

	wp, ok := a.Move.CurrentWaypoint()
	if !ok {
		makePatrolRoute(env, a)
		wp, ok = a.Move.CurrentWaypoint()
		if !ok {
			return Decision{}
		}
	}
	if a.Pos.Vec().Flat().DistanceTo(wp.Flat()) < cfg.Tactical.WaypointEpsilon {
		a.Move.Advance()
		wp, _ = a.Move.CurrentWaypoint()
	}
	return moveToward(env, a, wp, a.Move.MoveSpeed)
}

func stepEngage(env Env, a Actor, target TargetInfo, s components.Engage) Decision {
	cfg := config.Cfg()

	if a.Tac.Visible {
		a.Mem.Remember(target.Pos, env.Now)
		if s.LostAt != 0 {
			a.Tac.State = components.Engage{}
		}
		facing(env, a, target.Pos)
		dec := engageMovement(env, a, target)
		dec.Fire = true
		return dec
	}

	// Contact just dropped: one draw decides whether to break for cover.
	if s.LostAt == 0 {
		a.Tac.State = components.Engage{LostAt: env.Now}
		if env.RNG.Float64() < (1-a.Tac.Aggressiveness)*cfg.Tactical.HideBreakScale {
			EnterHide(env, a, target)
			return Decision{}
		}
	}

	if !a.Mem.Fresh(env.Now, cfg.Tactical.MemoryDuration) {
		a.Mem.Forget()
		EnterPatrol(env, a)
		return Decision{}
	}
	return moveToward(env, a, a.Mem.LastKnown, a.Move.MoveSpeed)
}

// engageMovement executes the preference-keyed movement rule against a
// visible target.
func engageMovement(env Env, a Actor, target TargetInfo) Decision {
	cfg := config.Cfg()
	pos := a.Pos.Vec()
	dist := pos.Flat().DistanceTo(target.Pos.Flat())

	switch a.Tac.Preference {
	case components.PrefRusher:
		return moveToward(env, a, target.Pos, a.Move.MoveSpeed)

	case components.PrefFlanker:
		to := pos.Sub(target.Pos).Flat().Normalized()
		perp := geom.Vec3{X: to.Z, Z: -to.X}
		jx := (env.RNG.Float64()*2 - 1) * cfg.Tactical.FlankJitter
		jz := (env.RNG.Float64()*2 - 1) * cfg.Tactical.FlankJitter
		spot := target.Pos.Add(perp.Scale(cfg.Tactical.FlankOffset))
		spot.X += jx
		spot.Z += jz
		if env.World != nil {
			spot = env.World.ClampToBounds(spot)
		}
		return moveToward(env, a, spot, a.Move.MoveSpeed)

	case components.PrefCamper:
		if dist > cfg.Tactical.CamperRange {
			return moveToward(env, a, target.Pos, a.Move.MoveSpeed*cfg.Tactical.CamperFactor)
		}
		return Decision{}

	case components.PrefSniper:
		if dist < cfg.Tactical.SniperMinRange {
			away := pos.Sub(target.Pos).Flat().Normalized()
			return Decision{MoveDir: away, Speed: a.Move.MoveSpeed}
		}
		if dist > cfg.Tactical.SniperMaxRange {
			return moveToward(env, a, target.Pos, a.Move.MoveSpeed*cfg.Tactical.SniperFactor)
		}
		return Decision{}
	}
	return moveToward(env, a, target.Pos, a.Move.MoveSpeed)
}

func stepRetreat(env Env, a Actor, target TargetInfo) Decision {
	cfg := config.Cfg()

	wp, ok := a.Move.CurrentWaypoint()
	if !ok {
		a.Vitals.Heal(cfg.Tactical.RetreatHeal)
		EnterHide(env, a, target)
		return Decision{}
	}
	if a.Pos.Vec().Flat().DistanceTo(wp.Flat()) < cfg.Tactical.WaypointEpsilon {
		if !a.Move.Advance() {
			a.Vitals.Heal(cfg.Tactical.RetreatHeal)
			EnterHide(env, a, target)
			return Decision{}
		}
		wp, _ = a.Move.CurrentWaypoint()
	}
	return moveToward(env, a, wp, a.Move.MoveSpeed)
}

func stepHide(env Env, a Actor, target TargetInfo, s components.Hide) Decision {
	cfg := config.Cfg()

	// Healthier, more aggressive NPCs break cover sooner.
	if a.Tac.Visible && a.Vitals.MaxHealth > 0 {
		p := a.Tac.Aggressiveness * (a.Vitals.Health / a.Vitals.MaxHealth) * cfg.Tactical.ReengageScale
		if env.RNG.Float64() < p {
			a.Mem.Remember(target.Pos, env.Now)
			a.Tac.State = components.Engage{}
			return Decision{}
		}
	}

	if env.Now-s.Since >= a.Tac.Patience {
		EnterPatrol(env, a)
		return Decision{}
	}

	if a.Pos.Vec().Flat().DistanceTo(s.Spot.Flat()) > cfg.Tactical.WaypointEpsilon {
		return moveToward(env, a, s.Spot, a.Move.MoveSpeed)
	}
	return Decision{}
}

// ReactToDamage flips the machine toward Retreat when a hit drops health
// below the low-health threshold, or with the panic chance on any hit.
func ReactToDamage(env Env, a Actor, threat geom.Vec3) {
	cfg := config.Cfg()
	if !a.Vitals.Alive {
		return
	}
	if a.Tac.State.Kind() == components.StateRetreat {
		return
	}
	low := a.Vitals.Health <= a.Vitals.MaxHealth*cfg.Tactical.LowHealthFrac
	if low || env.RNG.Float64() < cfg.Tactical.PanicChance {
		EnterRetreat(env, a, threat)
	}
}

// DetectStuck regenerates the current objective when the actor barely moves
// for too long while trying to go somewhere.
func DetectStuck(env Env, a Actor, wantedMove bool) {
	cfg := config.Cfg()
	moved := a.Pos.Vec().Flat().DistanceTo(a.Move.LastPos.Flat())
	a.Move.LastPos = a.Pos.Vec()

	if !wantedMove || moved > cfg.Tactical.StuckEpsilon {
		a.Move.StuckFor = 0
		return
	}
	a.Move.StuckFor += env.DT
	if a.Move.StuckFor < cfg.Tactical.StuckAfter {
		return
	}
	a.Move.StuckFor = 0
	if a.Tac.State.Kind() == components.StatePatrol {
		makePatrolRoute(env, a)
		return
	}
	a.Move.Advance()
}

// EnterPatrol resets the machine to Patrol with a fresh cyclic route.
func EnterPatrol(env Env, a Actor) {
	makePatrolRoute(env, a)
	a.Tac.State = components.Patrol{}
}

// EnterRetreat builds a short one-shot route away from the threat and
// switches to Retreat.
func EnterRetreat(env Env, a Actor, threat geom.Vec3) {
	cfg := config.Cfg()
	away := a.Pos.Vec().Sub(threat).Flat().Normalized()
	if away.LengthSq() == 0 {
		away = geom.YawDir(env.RNG.Float64() * 2 * math.Pi)
	}

	pts := make([]geom.Vec3, 0, cfg.Tactical.RetreatPoints)
	p := a.Pos.Vec()
	for i := 0; i < cfg.Tactical.RetreatPoints; i++ {
		p = p.Add(away.Scale(cfg.Tactical.RetreatStep))
		q := p
		q.X += (env.RNG.Float64()*2 - 1) * cfg.Tactical.RetreatJitter
		q.Z += (env.RNG.Float64()*2 - 1) * cfg.Tactical.RetreatJitter
		if env.World != nil {
			q = env.World.ClampToBounds(q)
		}
		pts = append(pts, q)
	}
	a.Move.SetRoute(pts, false)
	a.Tac.State = components.Retreat{}
}

// EnterHide picks a hiding spot and switches to Hide.
func EnterHide(env Env, a Actor, target TargetInfo) {
	a.Tac.State = components.Hide{Spot: hidingSpot(env, a, target), Since: env.Now}
	a.Move.SetRoute(nil, false)
}

// hidingSpot scores obstacles by how well they screen the actor from the
// target and returns a point just behind the best one. Alignment of the
// target-to-obstacle direction with the obstacle-to-actor direction,
// discounted by obstacle distance; obstacles right next to the target never
// qualify. Falls back to a point directly away from the target.
func hidingSpot(env Env, a Actor, target TargetInfo) geom.Vec3 {
	cfg := config.Cfg()
	self := a.Pos.Vec()

	best := 0.0
	var spot geom.Vec3
	found := false
	if env.World != nil {
		for _, o := range env.World.Obstacles() {
			toObstacle := o.Pos.Sub(target.Pos).Flat()
			d := toObstacle.Length()
			if d < cfg.Tactical.HideMinObstacleDist {
				continue
			}
			align := toObstacle.Normalized().Dot(self.Sub(o.Pos).Flat().Normalized())
			score := align / (1 + hideScoreDistK*d)
			if score > best {
				best = score
				spot = o.Pos.Add(toObstacle.Normalized().Scale(cfg.Tactical.HideOffset))
				found = true
			}
		}
	}
	if !found {
		away := self.Sub(target.Pos).Flat().Normalized()
		if away.LengthSq() == 0 {
			away = geom.Vec3{Z: 1}
		}
		spot = self.Add(away.Scale(cfg.Tactical.HideFallbackDist))
	}
	spot.Y = self.Y
	if env.World != nil {
		spot = env.World.ClampToBounds(spot)
	}
	return spot
}

// makePatrolRoute installs a fresh cyclic route of random in-bounds points.
func makePatrolRoute(env Env, a Actor) {
	cfg := config.Cfg()
	n := cfg.Tactical.PatrolMinPoints
	if span := cfg.Tactical.PatrolMaxPoints - cfg.Tactical.PatrolMinPoints; span > 0 {
		n += env.RNG.Intn(span + 1)
	}
	if n < 1 {
		n = 1
	}
	pts := make([]geom.Vec3, n)
	for i := range pts {
		if env.World != nil {
			pts[i] = env.World.RandomPoint(env.RNG)
		} else {
			pts[i] = a.Pos.Vec().Add(geom.YawDir(env.RNG.Float64() * 2 * math.Pi).Scale(5))
		}
		pts[i].Y = a.Pos.Y
	}
	a.Move.SetRoute(pts, true)
}

// moveToward faces and walks toward a point.
func moveToward(env Env, a Actor, dest geom.Vec3, speed float64) Decision {
	dir := dest.Sub(a.Pos.Vec()).Flat()
	if dir.LengthSq() < 1e-9 {
		return Decision{}
	}
	facing(env, a, dest)
	return Decision{MoveDir: dir.Normalized(), Speed: speed}
}
