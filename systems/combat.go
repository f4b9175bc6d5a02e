package systems

import (
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
)

// FireOutcome reports one trigger pull.
type FireOutcome struct {
	Fired    bool
	Hit      bool
	Damage   float64
	Distance float64
	Adapted  bool // recording this attempt triggered an adaptation pass
}

// DamageSink applies confirmed damage to the target. The owner of the
// target's health field serializes concurrent damage sources.
type DamageSink interface {
	ApplyDamage(amount float64)
}

// TryFire resolves one fire attempt. It refuses without side effects when
// the cooldown has not elapsed, ammo is out, the target is outside weapon
// range, or the target is not visible right now. A fired shot spends one
// round, resets the cooldown, and is logged as experience whether or not it
// lands.
func TryFire(env Env, a Actor, target TargetInfo, sink DamageSink) FireOutcome {
	cfg := config.Cfg()
	if !a.Vitals.Alive || a.Combat.Ammo <= 0 || !a.Combat.CooldownElapsed(env.Now) {
		return FireOutcome{}
	}
	dist := a.Pos.Vec().Flat().DistanceTo(target.Pos.Flat())
	if dist > a.Combat.WeaponRange {
		return FireOutcome{}
	}
	if !CanPerceive(env.World, a, target) {
		return FireOutcome{}
	}

	a.Combat.Ammo--
	a.Combat.LastShotAt = env.Now

	p := a.Tac.Accuracy * Falloff(dist, cfg.Combat.FalloffK)
	moving := target.Speed() > cfg.Combat.MovingSpeedThreshold
	if moving {
		p *= cfg.Combat.MovingPenalty
	}

	out := FireOutcome{Fired: true, Distance: dist}
	if env.RNG.Float64() < p {
		out.Hit = true
		out.Damage = a.Combat.GunDamage * uniform(env.RNG, cfg.Combat.DamageMinScale, cfg.Combat.DamageMaxScale)
		if sink != nil {
			sink.ApplyDamage(out.Damage)
		}
	}
	out.Adapted = RecordExperience(env, a, components.ExperienceRecord{
		Action:       components.ActionFire,
		Hit:          out.Hit,
		Distance:     dist,
		TargetMoving: moving,
		At:           env.Now,
	})
	return out
}

// Falloff is the monotone hit-probability decay with distance.
func Falloff(dist, k float64) float64 {
	return 1 / (1 + k*dist)
}
