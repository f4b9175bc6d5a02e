package systems

import (
	"math/rand"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

func init() {
	config.MustInit("")
}

// actorState backs an Actor view with concrete component storage for tests.
type actorState struct {
	pos components.Position
	rot components.Rotation
	vit components.Vitals
	com components.Combat
	mov components.Movement
	tac components.Tactical
	mem components.Memory
	log components.ExperienceLog
}

func newTestActor(pos geom.Vec3) (*actorState, Actor) {
	cfg := config.Cfg()
	st := &actorState{}
	st.pos.Set(pos)
	st.vit = components.Vitals{Health: cfg.NPC.MaxHealth, MaxHealth: cfg.NPC.MaxHealth, Alive: true}
	st.com = components.Combat{
		Ammo:        cfg.NPC.MaxAmmo,
		MaxAmmo:     cfg.NPC.MaxAmmo,
		GunDamage:   cfg.NPC.GunDamage,
		WeaponRange: cfg.NPC.WeaponRange,
		LastShotAt:  -10,
		Cooldown:    1,
	}
	st.mov = components.Movement{MoveSpeed: cfg.NPC.MoveSpeed, TurnSpeed: cfg.NPC.TurnSpeed, LastPos: pos}
	st.tac = components.Tactical{
		State:          components.Patrol{},
		Preference:     components.PrefRusher,
		Aggressiveness: 0.5,
		Patience:       5,
		ReactionTime:   0.5,
		Accuracy:       0.7,
	}
	return st, Actor{
		ID:     2,
		Pos:    &st.pos,
		Rot:    &st.rot,
		Vitals: &st.vit,
		Combat: &st.com,
		Move:   &st.mov,
		Tac:    &st.tac,
		Mem:    &st.mem,
		Log:    &st.log,
	}
}

func testEnv(seed int64) Env {
	return Env{
		World: arena.NewEmpty(40, 2),
		RNG:   rand.New(rand.NewSource(seed)),
		DT:    0.1,
	}
}

// blindWorld reports the obstruction oracle as unavailable.
type blindWorld struct {
	*arena.Arena
}

func (blindWorld) Raycast(_, _ geom.Vec3, _ float64, _ arena.ActorID) (arena.Hit, bool) {
	return arena.Hit{}, false
}

func aliveTarget(pos geom.Vec3) TargetInfo {
	return TargetInfo{ID: 1, Pos: pos, Alive: true}
}
