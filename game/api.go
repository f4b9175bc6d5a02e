package game

import (
	"math"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
	"github.com/pthm-cable/skirmish/script"
	"github.com/pthm-cable/skirmish/systems"
)

// Action indices accepted by ApplyAction. The scripted controller returns
// one of these per tick.
const (
	ActionIdle = iota
	ActionForward
	ActionBackward
	ActionStrafeLeft
	ActionStrafeRight
	ActionTurnLeft
	ActionTurnRight
	ActionFire
)

// TakeDamage applies damage to an NPC. Health never goes below zero; a
// lethal hit kills the NPC, anything else may trigger a retreat.
func (g *Game) TakeDamage(e ecs.Entity, amount float64) {
	a := g.actor(e)
	if !a.Vitals.Alive || amount <= 0 {
		return
	}

	a.Vitals.Health -= amount
	if a.Vitals.Health <= 0 {
		a.Vitals.Health = 0
		g.kill(e)
		return
	}
	systems.ReactToDamage(g.env(), a, g.target.pos)
}

// kill handles an NPC death: adaptation, respawn scheduling, and removal
// from the arena.
func (g *Game) kill(e ecs.Entity) {
	a := g.actor(e)
	lc := g.lcMap.Get(e)
	if !systems.Die(g.env(), a, lc, g.target.pos) {
		return
	}
	g.arena.RemoveActor(a.ID)
	g.collector.RecordDeath()
	Logf("[DEATH] %s died at (%.1f, %.1f), respawn in %.1fs",
		g.idMap.Get(e).Name, a.Pos.X, a.Pos.Z, lc.RespawnAt-g.now)
}

// ApplyAction executes one scripted action for an NPC. Unknown indices are
// logged and treated as idle.
func (g *Game) ApplyAction(e ecs.Entity, action int, dt float64) {
	a := g.actor(e)
	if !a.Vitals.Alive {
		return
	}
	cfg := config.Cfg()

	move := func(yawOffset float64) {
		dir := geom.YawDir(a.Rot.Yaw + yawOffset)
		next := g.arena.Step(a.ID, a.Pos.Vec(), dir, a.Move.MoveSpeed, dt, cfg.Arena.ActorRadius)
		a.Pos.Set(next)
	}

	switch action {
	case ActionIdle:
	case ActionForward:
		move(0)
	case ActionBackward:
		move(math.Pi)
	case ActionStrafeLeft:
		move(math.Pi / 2)
	case ActionStrafeRight:
		move(-math.Pi / 2)
	case ActionTurnLeft:
		a.Rot.Yaw = geom.NormalizeAngle(a.Rot.Yaw + a.Move.TurnSpeed*dt)
	case ActionTurnRight:
		a.Rot.Yaw = geom.NormalizeAngle(a.Rot.Yaw - a.Move.TurnSpeed*dt)
	case ActionFire:
		out := systems.TryFire(g.env(), a, g.targetInfo(), g.target)
		if out.Fired {
			g.collector.RecordShot(out.Hit, out.Damage)
			if out.Adapted {
				g.collector.RecordAdaptation()
			}
			if out.Hit && !g.target.alive {
				g.collector.RecordKill()
			}
		}
	default:
		Logf("invalid action %d for %s, idling", action, g.idMap.Get(e).Name)
	}
}

// ResetState restores an NPC to a known baseline for testing and round
// setup: patrol state, cleared memory, and optional position, health, and
// ammo overrides. Nil overrides restore full health and ammo in place.
func (g *Game) ResetState(e ecs.Entity, pos *geom.Vec3, health *float64, ammo *int) {
	cfg := config.Cfg()
	a := g.actor(e)
	wasAlive := a.Vitals.Alive

	if pos != nil {
		a.Pos.Set(g.arena.ClampToBounds(*pos))
	}

	h := a.Vitals.MaxHealth
	if health != nil {
		h = geom.Clamp(*health, 0, a.Vitals.MaxHealth)
	}
	a.Vitals.Health = h
	a.Vitals.Alive = h > 0

	n := a.Combat.MaxAmmo
	if ammo != nil {
		n = *ammo
		if n < 0 {
			n = 0
		}
		if n > a.Combat.MaxAmmo {
			n = a.Combat.MaxAmmo
		}
	}
	a.Combat.Ammo = n

	a.Mem.Forget()
	a.Tac.Visible = false
	a.Tac.EvaluatedAt = g.now - cfg.Perception.Interval
	a.Move.StuckFor = 0
	a.Move.LastPos = a.Pos.Vec()
	systems.EnterPatrol(g.env(), a)

	switch {
	case a.Vitals.Alive && !wasAlive:
		g.arena.RegisterActor(a.ID, a.Pos.Vec(), cfg.Arena.ActorRadius)
	case a.Vitals.Alive:
		g.arena.MoveActor(a.ID, a.Pos.Vec())
	case wasAlive:
		g.arena.RemoveActor(a.ID)
	}
}

// Observation is a read-only snapshot of one NPC's externally visible
// state.
type Observation struct {
	ID        uuid.UUID
	Name      string
	Team      components.Team
	Role      string
	Pos       geom.Vec3
	Yaw       float64
	Health    float64
	MaxHealth float64
	Alive     bool
	Ammo      int
	MaxAmmo   int
	State     components.StateKind
	Visible   bool

	LastKnown   geom.Vec3
	MemoryValid bool

	Preference     components.Preference
	Aggressiveness float64
	Patience       float64
	ReactionTime   float64
	Accuracy       float64

	Deaths int
	Round  int
}

// Observation snapshots an NPC without mutating it.
func (g *Game) Observation(e ecs.Entity) Observation {
	a := g.actor(e)
	ident := g.idMap.Get(e)
	lc := g.lcMap.Get(e)
	return Observation{
		ID:        ident.ID,
		Name:      ident.Name,
		Team:      ident.Team,
		Role:      ident.Role,
		Pos:       a.Pos.Vec(),
		Yaw:       a.Rot.Yaw,
		Health:    a.Vitals.Health,
		MaxHealth: a.Vitals.MaxHealth,
		Alive:     a.Vitals.Alive,
		Ammo:      a.Combat.Ammo,
		MaxAmmo:   a.Combat.MaxAmmo,
		State:     a.Tac.State.Kind(),
		Visible:   a.Tac.Visible,

		LastKnown:   a.Mem.LastKnown,
		MemoryValid: a.Mem.Valid,

		Preference:     a.Tac.Preference,
		Aggressiveness: a.Tac.Aggressiveness,
		Patience:       a.Tac.Patience,
		ReactionTime:   a.Tac.ReactionTime,
		Accuracy:       a.Tac.Accuracy,

		Deaths: lc.Deaths,
		Round:  lc.Round,
	}
}

// scriptObservation builds the flat observation the tengo controller sees.
func (g *Game) scriptObservation(e ecs.Entity) script.Observation {
	a := g.actor(e)
	return script.Observation{
		Health:        a.Vitals.Health,
		MaxHealth:     a.Vitals.MaxHealth,
		Ammo:          a.Combat.Ammo,
		PosX:          a.Pos.X,
		PosZ:          a.Pos.Z,
		Yaw:           a.Rot.Yaw,
		TargetX:       g.target.pos.X,
		TargetZ:       g.target.pos.Z,
		TargetVisible: a.Tac.Visible,
		Distance:      a.Pos.Vec().Flat().DistanceTo(g.target.pos.Flat()),
		State:         a.Tac.State.Kind().String(),
		Now:           g.now,
	}
}

// ScaleForRound raises the difficulty of every NPC for the given round.
// Rounds an NPC has already seen are not re-applied.
func (g *Game) ScaleForRound(round int) {
	for _, e := range g.NPCs() {
		systems.ScaleForRound(g.actor(e), g.lcMap.Get(e), round)
	}
	if round > g.round {
		g.round = round
	}
}
