package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/systems"
	"github.com/pthm-cable/skirmish/telemetry"
)

// Update advances the simulation by dt seconds: perception, tactical
// decisions, combat, movement, lifecycle, then telemetry.
func (g *Game) Update(dt float64) {
	if dt <= 0 {
		dt = g.dt
	}
	g.perf.StartTick()
	g.now += dt
	g.tick++

	npcs := g.NPCs()

	g.perf.StartPhase(telemetry.PhasePerception)
	g.updatePerception(npcs)

	decisions := make([]systems.Decision, len(npcs))
	if g.controller != nil {
		g.perf.StartPhase(telemetry.PhaseTactical)
		g.updateScripted(npcs, dt)
		g.perf.StartPhase(telemetry.PhaseCombat)
		g.updateTargetFire(npcs)
	} else {
		g.perf.StartPhase(telemetry.PhaseTactical)
		g.updateTactical(npcs, decisions)
		g.perf.StartPhase(telemetry.PhaseCombat)
		g.updateCombat(npcs, decisions)
		g.updateTargetFire(npcs)
	}

	g.perf.StartPhase(telemetry.PhaseMovement)
	g.updateMovement(npcs, decisions, dt)
	g.updateTargetMovement(dt)

	g.perf.StartPhase(telemetry.PhaseLifecycle)
	g.updateRespawns(npcs)
	g.respawnTarget()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry(npcs)

	g.perf.EndTick()
}

// updatePerception re-evaluates line of sight on each NPC's cadence.
func (g *Game) updatePerception(npcs []ecs.Entity) {
	env := g.env()
	target := g.targetInfo()
	for _, e := range npcs {
		a := g.actor(e)
		if !a.Vitals.Alive {
			continue
		}
		systems.RefreshPerception(env, a, target)
	}
}

// updateTactical steps every living NPC's state machine and records state
// transitions.
func (g *Game) updateTactical(npcs []ecs.Entity, decisions []systems.Decision) {
	env := g.env()
	target := g.targetInfo()
	for i, e := range npcs {
		a := g.actor(e)
		if !a.Vitals.Alive {
			continue
		}
		before := a.Tac.State.Kind()
		decisions[i] = systems.StepTactical(env, a, target)
		if after := a.Tac.State.Kind(); after != before {
			g.collector.RecordStateEntry(after)
		}
	}
}

// updateCombat resolves the shots the tactical step requested.
func (g *Game) updateCombat(npcs []ecs.Entity, decisions []systems.Decision) {
	env := g.env()
	for i, e := range npcs {
		if !decisions[i].Fire {
			continue
		}
		a := g.actor(e)
		if !a.Vitals.Alive {
			continue
		}
		out := systems.TryFire(env, a, g.targetInfo(), g.target)
		if !out.Fired {
			continue
		}
		g.collector.RecordShot(out.Hit, out.Damage)
		if out.Adapted {
			g.collector.RecordAdaptation()
		}
		if out.Hit && !g.target.alive {
			g.collector.RecordKill()
		}
	}
}

// updateScripted drives every living NPC through the tengo controller.
func (g *Game) updateScripted(npcs []ecs.Entity, dt float64) {
	for _, e := range npcs {
		if !g.vitMap.Get(e).Alive {
			continue
		}
		action := g.controller.Decide(g.scriptObservation(e))
		g.ApplyAction(e, action, dt)
	}
}

// updateMovement executes the requested moves and runs stuck detection.
func (g *Game) updateMovement(npcs []ecs.Entity, decisions []systems.Decision, dt float64) {
	cfg := config.Cfg()
	env := g.env()
	for i, e := range npcs {
		a := g.actor(e)
		if !a.Vitals.Alive {
			continue
		}
		dec := decisions[i]
		if dec.Moving() {
			next := g.arena.Step(a.ID, a.Pos.Vec(), dec.MoveDir, dec.Speed, dt, cfg.Arena.ActorRadius)
			a.Pos.Set(next)
		}
		systems.DetectStuck(env, a, dec.Moving())
	}
}

// updateRespawns brings dead NPCs back once their respawn timer expires.
func (g *Game) updateRespawns(npcs []ecs.Entity) {
	cfg := config.Cfg()
	env := g.env()
	for _, e := range npcs {
		a := g.actor(e)
		lc := g.lcMap.Get(e)
		if a.Vitals.Alive || g.now < lc.RespawnAt {
			continue
		}
		spawn := g.arena.SpawnFarFrom(g.rng, g.target.pos, cfg.Lifecycle.MinSpawnDistance)
		systems.Respawn(env, a, spawn)
		g.arena.RegisterActor(a.ID, spawn, cfg.Arena.ActorRadius)
		g.collector.RecordRespawn()
		g.collector.RecordStateEntry(components.StatePatrol)
	}
}

// flushTelemetry emits a stats window when due.
func (g *Game) flushTelemetry(npcs []ecs.Entity) {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	alive := 0
	accuracies := make([]float64, 0, len(npcs))
	aggressiveness := make([]float64, 0, len(npcs))
	for _, e := range npcs {
		if g.vitMap.Get(e).Alive {
			alive++
		}
		tac := g.tacMap.Get(e)
		accuracies = append(accuracies, tac.Accuracy)
		aggressiveness = append(aggressiveness, tac.Aggressiveness)
	}

	stats := g.collector.Flush(g.tick, len(npcs), alive, accuracies, aggressiveness)
	if err := g.output.WriteTelemetry(stats); err != nil {
		Logf("telemetry write failed: %v", err)
	}
	if err := g.output.WritePerf(g.perf.Stats(), g.tick); err != nil {
		Logf("perf write failed: %v", err)
	}
}
