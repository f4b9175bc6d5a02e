package systems

import (
	"math"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

// RollTunables draws fresh per-instance tunables from the configured spawn
// ranges.
func RollTunables(env Env, t *components.Tactical) {
	cfg := config.Cfg()
	t.Aggressiveness = uniform(env.RNG, cfg.NPC.AggressivenessMin, cfg.NPC.AggressivenessMax)
	t.Patience = uniform(env.RNG, cfg.NPC.PatienceMin, cfg.NPC.PatienceMax)
	t.ReactionTime = uniform(env.RNG, cfg.NPC.ReactionMin, cfg.NPC.ReactionMax)
	t.Accuracy = uniform(env.RNG, cfg.NPC.AccuracyMin, cfg.NPC.AccuracyMax)
}

// RollCooldown draws the per-instance fire cooldown, jittered once at spawn.
func RollCooldown(env Env) float64 {
	cfg := config.Cfg()
	return uniform(env.RNG, cfg.Combat.CooldownMin, cfg.Combat.CooldownMax)
}

// Die soft-destroys an actor: health zeroed, not alive, a died record
// captured for adaptation, and a respawn scheduled. Calling it on an
// already-dead actor does nothing.
func Die(env Env, a Actor, lc *components.Lifecycle, killerPos geom.Vec3) bool {
	if !a.Vitals.Alive {
		return false
	}
	cfg := config.Cfg()
	a.Vitals.Health = 0
	a.Vitals.Alive = false

	a.Log.Append(components.ExperienceRecord{
		Action:   components.ActionDied,
		Distance: a.Pos.Vec().Flat().DistanceTo(killerPos.Flat()),
		At:       env.Now,
	})
	AdaptAfterDeath(env, a)

	lc.DiedAt = env.Now
	lc.RespawnAt = env.Now + cfg.Lifecycle.RespawnDelay
	lc.Deaths++
	return true
}

// Respawn brings a dead actor back at the given spawn point with reset
// vitals, ammo, and state, preserving the tunables adapted before death.
func Respawn(env Env, a Actor, spawn geom.Vec3) {
	cfg := config.Cfg()
	a.Pos.Set(spawn)
	a.Vitals.Health = a.Vitals.MaxHealth
	a.Vitals.Alive = true
	a.Combat.Ammo = a.Combat.MaxAmmo
	a.Combat.LastShotAt = -a.Combat.Cooldown
	a.Mem.Forget()
	a.Tac.Visible = false
	a.Tac.EvaluatedAt = env.Now - cfg.Perception.Interval
	a.Move.LastPos = spawn
	a.Move.StuckFor = 0
	EnterPatrol(env, a)
}

// ScaleForRound ramps difficulty between rounds: more health, better
// accuracy, faster reactions, each monotone in the round number. Already
// applied rounds are not re-applied.
func ScaleForRound(a Actor, lc *components.Lifecycle, round int) {
	if round <= lc.Round {
		return
	}
	cfg := config.Cfg()
	delta := float64(round - lc.Round)
	lc.Round = round

	a.Vitals.MaxHealth += cfg.Lifecycle.RoundHealthStep * delta
	if a.Vitals.Alive {
		a.Vitals.Health = math.Min(a.Vitals.Health+cfg.Lifecycle.RoundHealthStep*delta, a.Vitals.MaxHealth)
	}
	a.Tac.Accuracy = math.Min(a.Tac.Accuracy+cfg.Lifecycle.RoundAccuracyStep*delta, 1)
	a.Tac.ReactionTime = math.Max(a.Tac.ReactionTime-cfg.Lifecycle.RoundReactionStep*delta, cfg.Lifecycle.RoundReactionFloor)
}
