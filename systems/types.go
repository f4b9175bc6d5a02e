// Package systems implements the per-tick NPC behavior: perception, the
// tactical state machine, the combat resolver, and the adaptation engine.
// Systems mutate components through an Actor view; world access, clock, and
// randomness are injected through Env so every step is reproducible.
package systems

import (
	"math/rand"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/geom"
)

// World is the slice of the arena the behavior steps need: obstruction
// queries, the obstacle registry, and bounds.
type World interface {
	Raycast(origin, dir geom.Vec3, maxDist float64, ignore arena.ActorID) (arena.Hit, bool)
	Obstacles() []arena.Obstacle
	RandomPoint(rng *rand.Rand) geom.Vec3
	ClampToBounds(v geom.Vec3) geom.Vec3
}

// Env is the per-tick context shared by all behavior steps.
type Env struct {
	World World
	RNG   *rand.Rand
	Now   float64 // simulation seconds
	DT    float64
}

// Actor bundles one combatant's mutable components for a behavior step.
type Actor struct {
	ID     arena.ActorID
	Pos    *components.Position
	Rot    *components.Rotation
	Vitals *components.Vitals
	Combat *components.Combat
	Move   *components.Movement
	Tac    *components.Tactical
	Mem    *components.Memory
	Log    *components.ExperienceLog
}

// TargetInfo is the read-only view of the hunted target.
type TargetInfo struct {
	ID    arena.ActorID
	Pos   geom.Vec3
	Vel   geom.Vec3
	Alive bool
}

// Speed returns the target's ground speed.
func (t TargetInfo) Speed() float64 {
	return t.Vel.Flat().Length()
}

// Decision is what a tactical step asks of the external executors for this
// tick: a movement request and whether to attempt a shot.
type Decision struct {
	MoveDir geom.Vec3 // zero when holding position
	Speed   float64   // units per second
	Fire    bool
}

// Moving reports whether the decision requests any movement.
func (d Decision) Moving() bool {
	return d.Speed > 0 && d.MoveDir.LengthSq() > 0
}
