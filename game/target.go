package game

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
	"github.com/pthm-cable/skirmish/systems"
)

// Target stand-in parameters. The target is a scripted combatant that
// wanders the arena and returns fire, so the NPCs have something to hunt
// that shoots back.
const (
	targetHealth   = 100.0
	targetSpeed    = 4.0
	targetDamage   = 12.0
	targetCooldown = 0.6
	targetAccuracy = 0.55
	targetRange    = 30.0
)

// Target is the hunted combatant the NPC population fights.
type Target struct {
	pos   geom.Vec3
	vel   geom.Vec3
	dest  geom.Vec3
	yaw   float64
	alive bool

	health     float64
	maxHealth  float64
	lastShotAt float64
	deaths     int
}

func newTarget(a *arena.Arena, rng *rand.Rand) *Target {
	t := &Target{
		alive:      true,
		health:     targetHealth,
		maxHealth:  targetHealth,
		lastShotAt: -targetCooldown,
	}
	t.pos = a.RandomPoint(rng)
	t.dest = a.RandomPoint(rng)
	a.RegisterActor(PlayerID, t.pos, config.Cfg().Arena.ActorRadius)
	return t
}

// Pos returns the target's world position.
func (t *Target) Pos() geom.Vec3 {
	return t.pos
}

// Health returns the target's current health.
func (t *Target) Health() float64 {
	return t.health
}

// Deaths returns how many times the target has been killed.
func (t *Target) Deaths() int {
	return t.deaths
}

// ApplyDamage satisfies the combat damage sink.
func (t *Target) ApplyDamage(amount float64) {
	if !t.alive {
		return
	}
	t.health -= amount
	if t.health <= 0 {
		t.health = 0
		t.alive = false
	}
}

// updateTargetMovement wanders the target between random points.
func (g *Game) updateTargetMovement(dt float64) {
	t := g.target
	if !t.alive {
		return
	}
	cfg := config.Cfg()

	if t.pos.Flat().DistanceTo(t.dest.Flat()) <= cfg.Tactical.WaypointEpsilon {
		t.dest = g.arena.RandomPoint(g.rng)
	}
	dir := t.dest.Sub(t.pos).Flat().Normalized()
	t.yaw = geom.TurnToward(t.yaw, geom.YawTo(t.pos, t.dest), cfg.NPC.TurnSpeed*dt)

	before := t.pos
	t.pos = g.arena.Step(PlayerID, t.pos, dir, targetSpeed, dt, cfg.Arena.ActorRadius)
	if dt > 0 {
		t.vel = t.pos.Sub(before).Scale(1 / dt)
	}
}

// updateTargetFire lets the target return fire at the nearest visible NPC.
func (g *Game) updateTargetFire(npcs []ecs.Entity) {
	t := g.target
	if !t.alive || g.now-t.lastShotAt < targetCooldown {
		return
	}
	cfg := config.Cfg()
	eye := t.pos
	eye.Y = cfg.Perception.EyeHeight

	var best ecs.Entity
	bestDist := targetRange
	found := false
	for _, e := range npcs {
		vit := g.vitMap.Get(e)
		if !vit.Alive {
			continue
		}
		pos := g.posMap.Get(e).Vec()
		dist := t.pos.Flat().DistanceTo(pos.Flat())
		if dist >= bestDist {
			continue
		}
		aim := pos
		aim.Y = cfg.Perception.EyeHeight
		hit, ok := g.arena.Raycast(eye, aim.Sub(eye), dist, PlayerID)
		if !ok || (hit.Hit && hit.Actor != g.actorID(e)) {
			continue
		}
		best, bestDist, found = e, dist, true
	}
	if !found {
		return
	}

	t.lastShotAt = g.now
	p := targetAccuracy * systems.Falloff(bestDist, cfg.Combat.FalloffK)
	if g.rng.Float64() < p {
		g.TakeDamage(best, targetDamage*(cfg.Combat.DamageMinScale+
			g.rng.Float64()*(cfg.Combat.DamageMaxScale-cfg.Combat.DamageMinScale)))
	}
}

// respawnTarget puts a killed target back into play away from the NPCs'
// center of mass. The killing NPC already got credit via the collector.
func (g *Game) respawnTarget() {
	t := g.target
	if t.alive {
		return
	}
	t.deaths++
	t.health = t.maxHealth
	t.alive = true
	t.pos = g.arena.SpawnFarFrom(g.rng, t.pos, config.Cfg().Lifecycle.MinSpawnDistance)
	t.dest = g.arena.RandomPoint(g.rng)
	t.vel = geom.Vec3{}
	g.arena.MoveActor(PlayerID, t.pos)
}
