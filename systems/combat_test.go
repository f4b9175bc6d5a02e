package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

// countingSink tallies applied damage.
type countingSink struct {
	total float64
	calls int
}

func (s *countingSink) ApplyDamage(amount float64) {
	s.total += amount
	s.calls++
}

func TestTryFire_RefusesWithoutAmmo(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.com.Ammo = 0

	out := TryFire(env, a, aliveTarget(geom.Vec3{X: 10, Y: 1}), nil)
	if out.Fired {
		t.Fatal("fired with no ammo")
	}
	if st.com.Ammo != 0 {
		t.Errorf("ammo went negative: %d", st.com.Ammo)
	}
}

func TestTryFire_RefusesDuringCooldown(t *testing.T) {
	env := testEnv(1)
	env.Now = 5
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.com.LastShotAt = 4.5
	st.com.Cooldown = 1

	if out := TryFire(env, a, aliveTarget(geom.Vec3{X: 10, Y: 1}), nil); out.Fired {
		t.Error("fired inside the cooldown window")
	}
}

func TestTryFire_RefusesOnDeadTarget(t *testing.T) {
	env := testEnv(1)
	_, a := newTestActor(geom.Vec3{Y: 1})
	target := aliveTarget(geom.Vec3{X: 10, Y: 1})
	target.Alive = false

	if out := TryFire(env, a, target, nil); out.Fired {
		t.Error("fired at a dead target")
	}
}

func TestTryFire_RefusesWhenBlocked(t *testing.T) {
	w := arena.NewEmpty(40, 2)
	w.AddObstacle(arena.Obstacle{Pos: geom.Vec3{X: 5}, Width: 2, Depth: 2, Height: 2.5})
	env := testEnv(1)
	env.World = w
	st, a := newTestActor(geom.Vec3{Y: 1})

	if out := TryFire(env, a, aliveTarget(geom.Vec3{X: 10, Y: 1}), nil); out.Fired {
		t.Error("fired through a wall")
	}
	if st.com.Ammo != st.com.MaxAmmo {
		t.Error("refused shot should not spend ammo")
	}
}

func TestTryFire_SpendsAmmoAndResetsCooldown(t *testing.T) {
	env := testEnv(1)
	env.Now = 3
	st, a := newTestActor(geom.Vec3{Y: 1})

	out := TryFire(env, a, aliveTarget(geom.Vec3{X: 10, Y: 1}), nil)
	if !out.Fired {
		t.Fatal("expected a clean shot to fire")
	}
	if st.com.Ammo != st.com.MaxAmmo-1 {
		t.Errorf("ammo = %d, want %d", st.com.Ammo, st.com.MaxAmmo-1)
	}
	if st.com.LastShotAt != 3 {
		t.Errorf("cooldown not reset: LastShotAt = %v", st.com.LastShotAt)
	}
	if st.log.Len() != 1 {
		t.Fatalf("fire attempt not logged, log len = %d", st.log.Len())
	}
	r := st.log.At(0)
	if r.Action != components.ActionFire || math.Abs(r.Distance-10) > 1e-6 {
		t.Errorf("unexpected experience record %+v", r)
	}
}

func TestTryFire_LastRoundStops(t *testing.T) {
	env := testEnv(1)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.com.Ammo = 1
	target := aliveTarget(geom.Vec3{X: 10, Y: 1})

	if out := TryFire(env, a, target, nil); !out.Fired {
		t.Fatal("expected the last round to fire")
	}
	st.com.LastShotAt = -10 // reopen the gate
	if out := TryFire(env, a, target, nil); out.Fired {
		t.Error("fired on empty")
	}
	if st.com.Ammo != 0 {
		t.Errorf("ammo = %d, want 0", st.com.Ammo)
	}
}

func TestTryFire_HitRateMatchesFalloff(t *testing.T) {
	env := testEnv(42)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Accuracy = 0.9
	target := aliveTarget(geom.Vec3{X: 10, Y: 1})

	cfg := config.Cfg()
	want := 0.9 * Falloff(10, cfg.Combat.FalloffK)

	const trials = 1000
	hits := 0
	sink := &countingSink{}
	for i := 0; i < trials; i++ {
		st.com.Ammo = st.com.MaxAmmo
		st.com.LastShotAt = -10
		st.tac.Accuracy = 0.9
		out := TryFire(env, a, target, sink)
		if !out.Fired {
			t.Fatal("trial refused to fire")
		}
		if out.Hit {
			hits++
		}
	}
	rate := float64(hits) / trials
	if math.Abs(rate-want) > 0.05 {
		t.Errorf("hit rate %v outside tolerance band around %v", rate, want)
	}
	if sink.calls != hits {
		t.Errorf("damage applied %d times for %d hits", sink.calls, hits)
	}
}

func TestTryFire_DamageWithinVariance(t *testing.T) {
	env := testEnv(3)
	st, a := newTestActor(geom.Vec3{Y: 1})
	st.tac.Accuracy = 1
	target := aliveTarget(geom.Vec3{X: 1, Y: 1}) // nearly point blank

	for i := 0; i < 200; i++ {
		st.com.LastShotAt = -10
		st.com.Ammo = st.com.MaxAmmo
		out := TryFire(env, a, target, nil)
		if !out.Hit {
			continue
		}
		lo := st.com.GunDamage * 0.8
		hi := st.com.GunDamage * 1.2
		if out.Damage < lo || out.Damage > hi {
			t.Fatalf("damage %v outside [%v, %v]", out.Damage, lo, hi)
		}
	}
}

func TestTryFire_MovingTargetPenalty(t *testing.T) {
	env := testEnv(11)
	st, a := newTestActor(geom.Vec3{Y: 1})
	target := aliveTarget(geom.Vec3{X: 10, Y: 1})
	target.Vel = geom.Vec3{X: 5} // above the speed threshold

	cfg := config.Cfg()
	want := 0.9 * Falloff(10, cfg.Combat.FalloffK) * cfg.Combat.MovingPenalty

	const trials = 1000
	hits := 0
	for i := 0; i < trials; i++ {
		st.com.Ammo = st.com.MaxAmmo
		st.com.LastShotAt = -10
		st.tac.Accuracy = 0.9
		if out := TryFire(env, a, target, nil); out.Hit {
			hits++
		}
	}
	rate := float64(hits) / trials
	if math.Abs(rate-want) > 0.05 {
		t.Errorf("moving-target hit rate %v outside band around %v", rate, want)
	}
	if r := st.log.At(st.log.Len() - 1); !r.TargetMoving {
		t.Error("experience record should mark the target as moving")
	}
}
