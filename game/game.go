// Package game assembles the arena, the ECS world, and the behavior systems
// into a running skirmish simulation.
package game

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/script"
	"github.com/pthm-cable/skirmish/systems"
	"github.com/pthm-cable/skirmish/telemetry"
)

// Simulation constants
const (
	DefaultDT   = 1.0 / 30.0 // seconds per tick
	DefaultNPCs = 4

	// PlayerID is the arena actor id reserved for the hunted target.
	PlayerID arena.ActorID = 1
)

// Options configures a new simulation.
type Options struct {
	Seed       int64
	DT         float64 // seconds per tick, DefaultDT when zero
	NPCs       int
	OutputDir  string // empty disables CSV output
	ScriptPath string // optional tengo controller, replaces the state machine
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand

	// Entity mappers - using the 7 components every NPC carries
	npcMapper *ecs.Map7[
		components.Identity,
		components.Position,
		components.Rotation,
		components.Vitals,
		components.Combat,
		components.Movement,
		components.Tactical,
	]
	npcFilter *ecs.Filter7[
		components.Identity,
		components.Position,
		components.Rotation,
		components.Vitals,
		components.Combat,
		components.Movement,
		components.Tactical,
	]

	// Individual component mappers for lookups
	idMap  *ecs.Map1[components.Identity]
	posMap *ecs.Map1[components.Position]
	rotMap *ecs.Map1[components.Rotation]
	vitMap *ecs.Map1[components.Vitals]
	comMap *ecs.Map1[components.Combat]
	movMap *ecs.Map1[components.Movement]
	tacMap *ecs.Map1[components.Tactical]
	memMap *ecs.Map1[components.Memory]
	expMap *ecs.Map1[components.ExperienceLog]
	lcMap  *ecs.Map1[components.Lifecycle]

	arena  *arena.Arena
	target *Target

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	// controller, when set, drives NPCs through scripted actions instead
	// of the tactical state machine.
	controller *script.Controller

	tick     int32
	now      float64
	dt       float64
	round    int
	npcCount int
}

// NewGame creates a new simulation instance.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()

	seed := opts.Seed
	if seed == 0 {
		seed = 42
	}
	dt := opts.DT
	if dt <= 0 {
		dt = DefaultDT
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(seed))

	g := &Game{
		world: world,
		rng:   rng,
		dt:    dt,
		round: 1,
		npcMapper: ecs.NewMap7[
			components.Identity,
			components.Position,
			components.Rotation,
			components.Vitals,
			components.Combat,
			components.Movement,
			components.Tactical,
		](world),
		npcFilter: ecs.NewFilter7[
			components.Identity,
			components.Position,
			components.Rotation,
			components.Vitals,
			components.Combat,
			components.Movement,
			components.Tactical,
		](world),
		idMap:  ecs.NewMap1[components.Identity](world),
		posMap: ecs.NewMap1[components.Position](world),
		rotMap: ecs.NewMap1[components.Rotation](world),
		vitMap: ecs.NewMap1[components.Vitals](world),
		comMap: ecs.NewMap1[components.Combat](world),
		movMap: ecs.NewMap1[components.Movement](world),
		tacMap: ecs.NewMap1[components.Tactical](world),
		memMap: ecs.NewMap1[components.Memory](world),
		expMap: ecs.NewMap1[components.ExperienceLog](world),
		lcMap:  ecs.NewMap1[components.Lifecycle](world),
	}

	g.arena = arena.New(cfg, rng)
	g.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, dt)
	g.perf = telemetry.NewPerfCollector(240)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output manager: %w", err)
	}
	g.output = om
	if err := g.output.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	if opts.ScriptPath != "" {
		ctrl, err := script.NewController(opts.ScriptPath, Logf)
		if err != nil {
			return nil, fmt.Errorf("load controller: %w", err)
		}
		g.controller = ctrl
	}

	g.target = newTarget(g.arena, rng)

	npcs := opts.NPCs
	if npcs <= 0 {
		npcs = DefaultNPCs
	}
	g.spawnInitialPopulation(npcs)

	return g, nil
}

// spawnInitialPopulation creates the starting NPCs, cycling through the
// configured role presets.
func (g *Game) spawnInitialPopulation(n int) {
	cfg := config.Cfg()
	for i := 0; i < n; i++ {
		role := ""
		if len(cfg.Roles) > 0 {
			role = cfg.Roles[i%len(cfg.Roles)].Name
		}
		g.SpawnNPC(components.TeamRed, role)
	}
}

// SpawnNPC creates a new NPC with rolled tunables, applies the role preset
// when one is named, and places it away from the target.
func (g *Game) SpawnNPC(team components.Team, role string) ecs.Entity {
	cfg := config.Cfg()
	env := g.env()

	tac := components.Tactical{
		State:       components.Patrol{},
		EvaluatedAt: g.now - cfg.Perception.Interval,
	}
	systems.RollTunables(env, &tac)

	vit := components.Vitals{
		Health:    cfg.NPC.MaxHealth,
		MaxHealth: cfg.NPC.MaxHealth,
		Alive:     true,
	}
	com := components.Combat{
		Ammo:        cfg.NPC.MaxAmmo,
		MaxAmmo:     cfg.NPC.MaxAmmo,
		GunDamage:   cfg.NPC.GunDamage,
		WeaponRange: cfg.NPC.WeaponRange,
		Cooldown:    systems.RollCooldown(env),
		LastShotAt:  g.now - 1e9,
	}
	mov := components.Movement{
		MoveSpeed: cfg.NPC.MoveSpeed,
		TurnSpeed: cfg.NPC.TurnSpeed,
	}

	if rc, ok := cfg.Role(role); ok {
		vit.Health = rc.Health
		vit.MaxHealth = rc.Health
		mov.MoveSpeed = rc.Speed
		com.GunDamage = rc.Damage
		com.Cooldown = rc.Cooldown
		com.WeaponRange = rc.WeaponRange
		if p, ok := components.ParsePreference(rc.Preference); ok {
			tac.Preference = p
		}
	} else if role != "" {
		Logf("unknown role %q, spawning with defaults", role)
	}

	g.npcCount++
	base := role
	if base == "" {
		base = "npc"
	}
	ident := components.Identity{
		ID:   uuid.New(),
		Name: fmt.Sprintf("%s-%d", base, g.npcCount),
		Team: team,
		Role: role,
	}

	spawn := g.arena.SpawnFarFrom(g.rng, g.target.pos, cfg.Lifecycle.MinSpawnDistance)
	pos := components.Position{}
	pos.Set(spawn)
	rot := components.Rotation{Yaw: g.rng.Float64()*2*math.Pi - math.Pi}

	e := g.npcMapper.NewEntity(&ident, &pos, &rot, &vit, &com, &mov, &tac)
	g.memMap.Add(e, &components.Memory{})
	g.expMap.Add(e, &components.ExperienceLog{})
	g.lcMap.Add(e, &components.Lifecycle{Round: g.round})

	g.arena.RegisterActor(g.actorID(e), spawn, cfg.Arena.ActorRadius)

	systems.EnterPatrol(env, g.actor(e))
	g.collector.RecordStateEntry(components.StatePatrol)

	return e
}

// actorID maps an NPC entity to its arena actor id. Id 1 is the target,
// 0 means none, so NPC ids start at 2.
func (g *Game) actorID(e ecs.Entity) arena.ActorID {
	return arena.ActorID(e.ID()) + 2
}

// env builds the behavior context for the current tick.
func (g *Game) env() systems.Env {
	return systems.Env{World: g.arena, RNG: g.rng, Now: g.now, DT: g.dt}
}

// actor assembles the behavior view of one NPC.
func (g *Game) actor(e ecs.Entity) systems.Actor {
	return systems.Actor{
		ID:     g.actorID(e),
		Pos:    g.posMap.Get(e),
		Rot:    g.rotMap.Get(e),
		Vitals: g.vitMap.Get(e),
		Combat: g.comMap.Get(e),
		Move:   g.movMap.Get(e),
		Tac:    g.tacMap.Get(e),
		Mem:    g.memMap.Get(e),
		Log:    g.expMap.Get(e),
	}
}

// targetInfo snapshots the hunted target for the behavior systems.
func (g *Game) targetInfo() systems.TargetInfo {
	return systems.TargetInfo{
		ID:    PlayerID,
		Pos:   g.target.pos,
		Vel:   g.target.vel,
		Alive: g.target.alive,
	}
}

// NPCs returns all NPC entities, dead ones included.
func (g *Game) NPCs() []ecs.Entity {
	out := make([]ecs.Entity, 0, g.npcCount)
	query := g.npcFilter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	return out
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Now returns the simulation clock in seconds.
func (g *Game) Now() float64 {
	return g.now
}

// Round returns the current difficulty round.
func (g *Game) Round() int {
	return g.round
}

// Arena exposes the physical arena.
func (g *Game) Arena() *arena.Arena {
	return g.arena
}

// Target exposes the hunted target.
func (g *Game) Target() *Target {
	return g.target
}

// Controller returns the scripted controller, nil when the state machine
// drives NPCs.
func (g *Game) Controller() *script.Controller {
	return g.controller
}

// Close flushes and closes telemetry outputs.
func (g *Game) Close() error {
	return g.output.Close()
}
