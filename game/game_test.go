package game

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
	"github.com/pthm-cable/skirmish/script"
)

func init() {
	config.MustInit("")
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	g, err := NewGame(opts)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func checkInvariants(t *testing.T, g *Game) {
	t.Helper()
	for _, e := range g.NPCs() {
		obs := g.Observation(e)
		if obs.Health < 0 || obs.Health > obs.MaxHealth {
			t.Fatalf("%s health %v out of [0, %v]", obs.Name, obs.Health, obs.MaxHealth)
		}
		if obs.Ammo < 0 || obs.Ammo > obs.MaxAmmo {
			t.Fatalf("%s ammo %d out of [0, %d]", obs.Name, obs.Ammo, obs.MaxAmmo)
		}
		if obs.Alive != (obs.Health > 0) {
			t.Fatalf("%s alive=%v with health %v", obs.Name, obs.Alive, obs.Health)
		}
	}
}

func TestNewGameSpawnsPopulation(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 3})
	if got := len(g.NPCs()); got != 3 {
		t.Fatalf("spawned %d NPCs, want 3", got)
	}
	for _, e := range g.NPCs() {
		obs := g.Observation(e)
		if !obs.Alive || obs.Health != obs.MaxHealth {
			t.Fatalf("%s spawned with health %v/%v alive=%v", obs.Name, obs.Health, obs.MaxHealth, obs.Alive)
		}
		if obs.State != components.StatePatrol {
			t.Fatalf("%s spawned in %v, want patrol", obs.Name, obs.State)
		}
	}
}

func TestResetStateObservationRoundTrip(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]

	pos := geom.Vec3{X: 3, Y: 0, Z: -4}
	health := 55.0
	ammo := 7
	g.ResetState(e, &pos, &health, &ammo)

	obs := g.Observation(e)
	if obs.Pos != pos {
		t.Fatalf("position %v, want %v", obs.Pos, pos)
	}
	if obs.Health != health {
		t.Fatalf("health %v, want %v", obs.Health, health)
	}
	if obs.Ammo != ammo {
		t.Fatalf("ammo %d, want %d", obs.Ammo, ammo)
	}
	if obs.State != components.StatePatrol {
		t.Fatalf("state %v, want patrol", obs.State)
	}
	if obs.MemoryValid || obs.Visible {
		t.Fatalf("memory valid=%v visible=%v, want both cleared", obs.MemoryValid, obs.Visible)
	}
}

func TestResetStateDefaultsRestoreFull(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]

	g.TakeDamage(e, 40)
	g.ResetState(e, nil, nil, nil)

	obs := g.Observation(e)
	if obs.Health != obs.MaxHealth || obs.Ammo != obs.MaxAmmo {
		t.Fatalf("got health %v ammo %d, want full %v/%d", obs.Health, obs.Ammo, obs.MaxHealth, obs.MaxAmmo)
	}
}

func TestTakeDamageClampsAndRetreats(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]
	max := g.Observation(e).MaxHealth

	g.TakeDamage(e, max*0.8)

	obs := g.Observation(e)
	if !obs.Alive {
		t.Fatal("non-lethal hit killed the NPC")
	}
	if got := max - max*0.8; math.Abs(obs.Health-got) > 1e-9 {
		t.Fatalf("health %v, want %v", obs.Health, got)
	}
	// 20% of max is below the low-health threshold
	if obs.State != components.StateRetreat {
		t.Fatalf("state %v after critical hit, want retreat", obs.State)
	}
	checkInvariants(t, g)
}

func TestTakeDamageLethal(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]

	g.TakeDamage(e, g.Observation(e).MaxHealth+10)

	obs := g.Observation(e)
	if obs.Alive || obs.Health != 0 {
		t.Fatalf("alive=%v health=%v after lethal hit, want dead at 0", obs.Alive, obs.Health)
	}
	if obs.Deaths != 1 {
		t.Fatalf("deaths=%d, want 1", obs.Deaths)
	}

	// a second lethal hit is a no-op
	g.TakeDamage(e, 1000)
	if g.Observation(e).Deaths != 1 {
		t.Fatal("dead NPC died again")
	}
}

func TestDeadNPCRespawnsWithTunablesPreserved(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]

	g.TakeDamage(e, 1000)
	after := g.Observation(e)

	for i := 0; i < 400; i++ {
		g.Update(0)
		obs := g.Observation(e)
		if !obs.Alive {
			continue
		}
		if obs.Health != obs.MaxHealth || obs.Ammo != obs.MaxAmmo {
			t.Fatalf("respawned at health %v ammo %d, want full", obs.Health, obs.Ammo)
		}
		if obs.State != components.StatePatrol {
			t.Fatalf("respawned in %v, want patrol", obs.State)
		}
		if obs.Aggressiveness != after.Aggressiveness ||
			obs.Patience != after.Patience ||
			obs.ReactionTime != after.ReactionTime {
			t.Fatal("respawn did not preserve adapted tunables")
		}
		return
	}
	t.Fatal("NPC never respawned")
}

func TestInvalidActionIsIdle(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]
	before := g.Observation(e)

	g.ApplyAction(e, 42, 1.0/30.0)

	obs := g.Observation(e)
	if obs.Pos != before.Pos || obs.Yaw != before.Yaw || obs.Ammo != before.Ammo {
		t.Fatal("invalid action changed NPC state")
	}
}

func TestApplyActionTurns(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 1})
	e := g.NPCs()[0]
	dt := 0.1
	before := g.Observation(e).Yaw

	g.ApplyAction(e, ActionTurnLeft, dt)

	want := geom.NormalizeAngle(before + config.Cfg().NPC.TurnSpeed*dt)
	if got := g.Observation(e).Yaw; math.Abs(geom.NormalizeAngle(got-want)) > 1e-9 {
		t.Fatalf("yaw %v, want %v", got, want)
	}
}

func TestUpdateKeepsInvariants(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 4})
	for i := 0; i < 600; i++ {
		g.Update(0)
	}
	checkInvariants(t, g)
	if g.Target().Health() < 0 {
		t.Fatalf("target health %v below zero", g.Target().Health())
	}
}

func TestUpdateIsDeterministic(t *testing.T) {
	run := func() []Observation {
		g := newTestGame(t, Options{NPCs: 3, Seed: 99})
		for i := 0; i < 300; i++ {
			g.Update(0)
		}
		out := make([]Observation, 0, 3)
		for _, e := range g.NPCs() {
			out = append(out, g.Observation(e))
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i].Pos != b[i].Pos || a[i].Health != b[i].Health ||
			a[i].Ammo != b[i].Ammo || a[i].State != b[i].State ||
			a[i].Accuracy != b[i].Accuracy {
			t.Fatalf("run diverged for npc %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestScaleForRoundRaisesDifficulty(t *testing.T) {
	g := newTestGame(t, Options{NPCs: 2})
	e := g.NPCs()[0]
	before := g.Observation(e)

	g.ScaleForRound(3)

	obs := g.Observation(e)
	if obs.MaxHealth <= before.MaxHealth {
		t.Fatalf("max health %v did not grow from %v", obs.MaxHealth, before.MaxHealth)
	}
	if obs.Accuracy <= before.Accuracy {
		t.Fatalf("accuracy %v did not grow from %v", obs.Accuracy, before.Accuracy)
	}
	if obs.ReactionTime >= before.ReactionTime {
		t.Fatalf("reaction time %v did not shrink from %v", obs.ReactionTime, before.ReactionTime)
	}
	if g.Round() != 3 {
		t.Fatalf("round %d, want 3", g.Round())
	}

	// replaying the same round changes nothing
	again := g.Observation(e)
	g.ScaleForRound(3)
	if g.Observation(e) != again {
		t.Fatal("round scaling re-applied")
	}
}

func TestScriptedControllerDrivesNPCs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctrl.tengo")
	if err := os.WriteFile(path, script.DefaultSource(), 0644); err != nil {
		t.Fatal(err)
	}

	g := newTestGame(t, Options{NPCs: 2, ScriptPath: path})
	if g.Controller() == nil {
		t.Fatal("controller not loaded")
	}
	for i := 0; i < 200; i++ {
		g.Update(0)
	}
	checkInvariants(t, g)
}
