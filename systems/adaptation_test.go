package systems

import (
	"testing"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

func fireRecord(hit bool, dist float64, moving bool) components.ExperienceRecord {
	return components.ExperienceRecord{Action: components.ActionFire, Hit: hit, Distance: dist, TargetMoving: moving}
}

func TestAdapt_AllMissRaisesAccuracy(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Accuracy = 0.5
	for i := 0; i < 6; i++ {
		st.log.Append(fireRecord(false, 10, false))
	}

	cfg := config.Cfg()
	prev := st.tac.Accuracy
	for i := 0; i < 20; i++ {
		Adapt(env, a)
		if st.tac.Accuracy < prev {
			t.Fatalf("accuracy decreased from %v to %v on an all-miss buffer", prev, st.tac.Accuracy)
		}
		if st.tac.Accuracy > cfg.Adaptation.AccuracyMax {
			t.Fatalf("accuracy %v exceeded cap %v", st.tac.Accuracy, cfg.Adaptation.AccuracyMax)
		}
		prev = st.tac.Accuracy
	}
	if st.tac.Accuracy != cfg.Adaptation.AccuracyMax {
		t.Errorf("repeated all-miss adaptation should reach the cap, got %v", st.tac.Accuracy)
	}
}

func TestAdapt_HighHitRateLowersAccuracy(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Accuracy = 0.8
	for i := 0; i < 6; i++ {
		st.log.Append(fireRecord(true, 10, false))
	}

	Adapt(env, a)

	cfg := config.Cfg()
	want := 0.8 - cfg.Adaptation.AccuracyStepDown
	if st.tac.Accuracy != want {
		t.Errorf("accuracy = %v, want %v", st.tac.Accuracy, want)
	}
}

func TestAdapt_AccuracyNeverBelowFloor(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Accuracy = 0.41
	for i := 0; i < 6; i++ {
		st.log.Append(fireRecord(true, 10, false))
	}

	cfg := config.Cfg()
	for i := 0; i < 10; i++ {
		Adapt(env, a)
		if st.tac.Accuracy < cfg.Adaptation.AccuracyMin {
			t.Fatalf("accuracy %v fell below floor %v", st.tac.Accuracy, cfg.Adaptation.AccuracyMin)
		}
	}
}

func TestAdapt_CloseRangeBiasesCloseQuarters(t *testing.T) {
	cfg := config.Cfg()
	orig := cfg.Adaptation.RerollChance
	cfg.Adaptation.RerollChance = 1
	defer func() { cfg.Adaptation.RerollChance = orig }()

	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Preference = components.PrefSniper
	for i := 0; i < 6; i++ {
		st.log.Append(fireRecord(true, 2, false))
	}

	Adapt(env, a)

	if p := st.tac.Preference; p != components.PrefRusher && p != components.PrefFlanker {
		t.Errorf("close-range buffer should bias toward close-quarters tactics, got %v", p)
	}
}

func TestAdapt_LongRangeBiasesStandoff(t *testing.T) {
	cfg := config.Cfg()
	orig := cfg.Adaptation.RerollChance
	cfg.Adaptation.RerollChance = 1
	defer func() { cfg.Adaptation.RerollChance = orig }()

	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Preference = components.PrefRusher
	for i := 0; i < 6; i++ {
		st.log.Append(fireRecord(true, 25, false))
	}

	Adapt(env, a)

	if p := st.tac.Preference; p != components.PrefCamper && p != components.PrefSniper {
		t.Errorf("long-range buffer should bias toward standoff tactics, got %v", p)
	}
}

func TestAdapt_MovingTargetsRaiseAggressiveness(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Aggressiveness = 0.5
	for i := 0; i < 6; i++ {
		st.log.Append(fireRecord(true, 10, true))
	}

	Adapt(env, a)

	cfg := config.Cfg()
	want := 0.5 + cfg.Adaptation.AggressivenessStepUp
	if st.tac.Aggressiveness != want {
		t.Errorf("aggressiveness = %v, want %v", st.tac.Aggressiveness, want)
	}
}

func TestAdapt_EmptyFireBufferIsNoOp(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.log.Append(components.ExperienceRecord{Action: components.ActionDied, Distance: 5})
	before := st.tac

	Adapt(env, a)

	if st.tac.Accuracy != before.Accuracy || st.tac.Aggressiveness != before.Aggressiveness {
		t.Error("adaptation with no fire records should change nothing")
	}
}

func TestRecordExperience_NoTriggerBelowMinRecords(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})

	for i := 0; i < config.Cfg().Adaptation.MinRecords-1; i++ {
		if RecordExperience(env, a, fireRecord(false, 10, false)) {
			t.Fatalf("adaptation triggered with only %d records", i+1)
		}
	}
	if st.log.Len() != config.Cfg().Adaptation.MinRecords-1 {
		t.Errorf("log len = %d", st.log.Len())
	}
}

func TestRecordExperience_TriggerRate(t *testing.T) {
	env := testEnv(9)
	_, a := newTestActor(geom.Vec3{Y: 1})
	for i := 0; i < 10; i++ {
		a.Log.Append(fireRecord(false, 10, false))
	}

	triggered := 0
	const trials = 1000
	for i := 0; i < trials; i++ {
		if RecordExperience(env, a, fireRecord(false, 10, false)) {
			triggered++
		}
	}
	rate := float64(triggered) / trials
	if rate < 0.15 || rate > 0.25 {
		t.Errorf("trigger rate %v outside band around 0.2", rate)
	}
}

func TestAdaptAfterDeath_StaysInRanges(t *testing.T) {
	cfg := config.Cfg()
	for seed := int64(0); seed < 50; seed++ {
		env := testEnv(seed)
		st, a := newTestActor(geom.Vec3{Y: 1})
		st.tac.Aggressiveness = 0.9
		st.tac.Patience = 20
		st.tac.ReactionTime = 2

		AdaptAfterDeath(env, a)

		if st.tac.Aggressiveness < cfg.Adaptation.DeathAggressivenessMin || st.tac.Aggressiveness > cfg.Adaptation.DeathAggressivenessMax {
			t.Fatalf("seed %d: aggressiveness %v out of range", seed, st.tac.Aggressiveness)
		}
		if st.tac.Patience < cfg.Adaptation.DeathPatienceMin || st.tac.Patience > cfg.Adaptation.DeathPatienceMax {
			t.Fatalf("seed %d: patience %v out of range", seed, st.tac.Patience)
		}
		if st.tac.ReactionTime < cfg.Adaptation.DeathReactionMin || st.tac.ReactionTime > cfg.Adaptation.DeathReactionMax {
			t.Fatalf("seed %d: reaction time %v out of range", seed, st.tac.ReactionTime)
		}
	}
}
