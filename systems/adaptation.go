package systems

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

// RecordExperience appends an outcome sample to the actor's log and, once
// enough records have accumulated, triggers an adaptation pass with the
// configured chance. Returns true when a pass ran.
func RecordExperience(env Env, a Actor, r components.ExperienceRecord) bool {
	cfg := config.Cfg()
	a.Log.Append(r)
	if !cfg.Adaptation.Enabled {
		return false
	}
	if a.Log.Len() < cfg.Adaptation.MinRecords {
		return false
	}
	if env.RNG.Float64() >= cfg.Adaptation.TriggerChance {
		return false
	}
	Adapt(env, a)
	return true
}

// Adapt aggregates the experience buffer and nudges the tunables: hit rate
// drives accuracy, average engagement distance biases the tactical
// preference, and the moving-target fraction drives aggressiveness. Steps
// are asymmetric so accuracy does not oscillate around the thresholds.
func Adapt(env Env, a Actor) {
	cfg := config.Cfg()

	var hits, dists, movings []float64
	for i := 0; i < a.Log.Len(); i++ {
		r := a.Log.At(i)
		if r.Action != components.ActionFire {
			continue
		}
		hits = append(hits, b2f(r.Hit))
		dists = append(dists, r.Distance)
		movings = append(movings, b2f(r.TargetMoving))
	}
	if len(dists) == 0 {
		return
	}
	hitRate := stat.Mean(hits, nil)
	avgDist := stat.Mean(dists, nil)
	movingFrac := stat.Mean(movings, nil)

	switch {
	case hitRate < cfg.Adaptation.LowHitRate && a.Tac.Accuracy < cfg.Adaptation.AccuracyMax:
		a.Tac.Accuracy = math.Min(a.Tac.Accuracy+cfg.Adaptation.AccuracyStepUp, cfg.Adaptation.AccuracyMax)
	case hitRate > cfg.Adaptation.HighHitRate && a.Tac.Accuracy > cfg.Adaptation.AccuracyMin:
		a.Tac.Accuracy = math.Max(a.Tac.Accuracy-cfg.Adaptation.AccuracyStepDown, cfg.Adaptation.AccuracyMin)
	}

	// Distance bias is a probabilistic re-roll among the favored set, not a
	// deterministic switch.
	switch {
	case avgDist < cfg.Adaptation.CloseRange:
		if env.RNG.Float64() < cfg.Adaptation.RerollChance {
			a.Tac.Preference = components.ClosePreferences[env.RNG.Intn(len(components.ClosePreferences))]
		}
	case avgDist > cfg.Adaptation.LongRange:
		if env.RNG.Float64() < cfg.Adaptation.RerollChance {
			a.Tac.Preference = components.FarPreferences[env.RNG.Intn(len(components.FarPreferences))]
		}
	}

	switch {
	case movingFrac > cfg.Adaptation.MovingHigh:
		a.Tac.Aggressiveness += cfg.Adaptation.AggressivenessStepUp
	case movingFrac < cfg.Adaptation.MovingLow:
		a.Tac.Aggressiveness -= cfg.Adaptation.AggressivenessStepDown
	}
	a.Tac.Aggressiveness = geom.Clamp(a.Tac.Aggressiveness, cfg.Adaptation.AggressivenessMin, cfg.Adaptation.AggressivenessMax)
	a.Tac.ClampTunables()
}

// AdaptAfterDeath applies the post-death jitter: a respawned NPC comes back
// with shifted tunables and, occasionally, a rerolled tactical preference.
func AdaptAfterDeath(env Env, a Actor) {
	cfg := config.Cfg()
	if !cfg.Adaptation.Enabled {
		return
	}

	j := cfg.Adaptation.DeathAggressivenessJitter
	a.Tac.Aggressiveness = geom.Clamp(
		a.Tac.Aggressiveness+uniform(env.RNG, -j, j),
		cfg.Adaptation.DeathAggressivenessMin, cfg.Adaptation.DeathAggressivenessMax)

	pj := cfg.Adaptation.DeathPatienceJitter
	a.Tac.Patience = geom.Clamp(
		a.Tac.Patience+uniform(env.RNG, -pj, pj),
		cfg.Adaptation.DeathPatienceMin, cfg.Adaptation.DeathPatienceMax)

	s := cfg.Adaptation.DeathReactionScale
	a.Tac.ReactionTime = geom.Clamp(
		a.Tac.ReactionTime*uniform(env.RNG, 1-s, 1+s),
		cfg.Adaptation.DeathReactionMin, cfg.Adaptation.DeathReactionMax)

	if env.RNG.Float64() < cfg.Adaptation.DeathRerollChance {
		a.Tac.Preference = components.Preferences[env.RNG.Intn(len(components.Preferences))]
	}
	a.Tac.ClampTunables()
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
