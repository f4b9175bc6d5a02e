// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Arena      ArenaConfig      `yaml:"arena"`
	Perception PerceptionConfig `yaml:"perception"`
	Tactical   TacticalConfig   `yaml:"tactical"`
	Combat     CombatConfig     `yaml:"combat"`
	Adaptation AdaptationConfig `yaml:"adaptation"`
	NPC        NPCConfig        `yaml:"npc"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Roles      []RoleConfig     `yaml:"roles"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig holds arena dimensions and obstacle generation parameters.
// The arena is a square on the XZ plane centered on the origin.
type ArenaConfig struct {
	Size            float64 `yaml:"size"`
	Margin          float64 `yaml:"margin"`
	ActorRadius     float64 `yaml:"actor_radius"`
	ObstacleCount   int     `yaml:"obstacle_count"`
	ObstacleMinSize float64 `yaml:"obstacle_min_size"`
	ObstacleMaxSize float64 `yaml:"obstacle_max_size"`
	ObstacleHeight  float64 `yaml:"obstacle_height"`
	SpawnPoints     int     `yaml:"spawn_points"`
}

// PerceptionConfig holds line-of-sight parameters.
type PerceptionConfig struct {
	VisionRange float64 `yaml:"vision_range"`
	EyeHeight   float64 `yaml:"eye_height"`
	Interval    float64 `yaml:"interval"` // seconds between re-evaluations
}

// TacticalConfig holds state machine thresholds and movement rule parameters.
type TacticalConfig struct {
	MemoryDuration float64 `yaml:"memory_duration"`
	LowHealthFrac  float64 `yaml:"low_health_frac"`
	PanicChance    float64 `yaml:"panic_chance"`

	WaypointEpsilon float64 `yaml:"waypoint_epsilon"`
	PatrolMinPoints int     `yaml:"patrol_min_points"`
	PatrolMaxPoints int     `yaml:"patrol_max_points"`

	RetreatPoints int     `yaml:"retreat_points"`
	RetreatStep   float64 `yaml:"retreat_step"`
	RetreatJitter float64 `yaml:"retreat_jitter"`
	RetreatHeal   float64 `yaml:"retreat_heal"`

	HideOffset          float64 `yaml:"hide_offset"`
	HideFallbackDist    float64 `yaml:"hide_fallback_dist"`
	HideMinObstacleDist float64 `yaml:"hide_min_obstacle_dist"`
	HideBreakScale      float64 `yaml:"hide_break_scale"`
	ReengageScale       float64 `yaml:"reengage_scale"`

	FlankOffset    float64 `yaml:"flank_offset"`
	FlankJitter    float64 `yaml:"flank_jitter"`
	CamperRange    float64 `yaml:"camper_range"`
	CamperFactor   float64 `yaml:"camper_factor"`
	SniperMinRange float64 `yaml:"sniper_min_range"`
	SniperMaxRange float64 `yaml:"sniper_max_range"`
	SniperFactor   float64 `yaml:"sniper_factor"`

	StuckAfter   float64 `yaml:"stuck_after"`
	StuckEpsilon float64 `yaml:"stuck_epsilon"`
}

// CombatConfig holds fire resolution parameters.
type CombatConfig struct {
	CooldownMin          float64 `yaml:"cooldown_min"`
	CooldownMax          float64 `yaml:"cooldown_max"`
	FalloffK             float64 `yaml:"falloff_k"`
	MovingPenalty        float64 `yaml:"moving_penalty"`
	MovingSpeedThreshold float64 `yaml:"moving_speed_threshold"`
	DamageMinScale       float64 `yaml:"damage_min_scale"`
	DamageMaxScale       float64 `yaml:"damage_max_scale"`
}

// AdaptationConfig holds the heuristic parameter-mutation rules.
type AdaptationConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MinRecords    int     `yaml:"min_records"`
	TriggerChance float64 `yaml:"trigger_chance"`

	AccuracyStepUp   float64 `yaml:"accuracy_step_up"`
	AccuracyStepDown float64 `yaml:"accuracy_step_down"`
	AccuracyMin      float64 `yaml:"accuracy_min"`
	AccuracyMax      float64 `yaml:"accuracy_max"`
	LowHitRate       float64 `yaml:"low_hit_rate"`
	HighHitRate      float64 `yaml:"high_hit_rate"`

	CloseRange   float64 `yaml:"close_range"`
	LongRange    float64 `yaml:"long_range"`
	RerollChance float64 `yaml:"reroll_chance"`

	MovingHigh             float64 `yaml:"moving_high"`
	MovingLow              float64 `yaml:"moving_low"`
	AggressivenessStepUp   float64 `yaml:"aggressiveness_step_up"`
	AggressivenessStepDown float64 `yaml:"aggressiveness_step_down"`
	AggressivenessMin      float64 `yaml:"aggressiveness_min"`
	AggressivenessMax      float64 `yaml:"aggressiveness_max"`

	DeathAggressivenessJitter float64 `yaml:"death_aggressiveness_jitter"`
	DeathAggressivenessMin    float64 `yaml:"death_aggressiveness_min"`
	DeathAggressivenessMax    float64 `yaml:"death_aggressiveness_max"`
	DeathPatienceJitter       float64 `yaml:"death_patience_jitter"`
	DeathPatienceMin          float64 `yaml:"death_patience_min"`
	DeathPatienceMax          float64 `yaml:"death_patience_max"`
	DeathReactionScale        float64 `yaml:"death_reaction_scale"`
	DeathReactionMin          float64 `yaml:"death_reaction_min"`
	DeathReactionMax          float64 `yaml:"death_reaction_max"`
	DeathRerollChance         float64 `yaml:"death_reroll_chance"`
}

// NPCConfig holds default NPC stats and tunable ranges rolled at spawn.
type NPCConfig struct {
	MaxHealth   float64 `yaml:"max_health"`
	MaxAmmo     int     `yaml:"max_ammo"`
	GunDamage   float64 `yaml:"gun_damage"`
	WeaponRange float64 `yaml:"weapon_range"`
	MoveSpeed   float64 `yaml:"move_speed"`
	TurnSpeed   float64 `yaml:"turn_speed"`

	AggressivenessMin float64 `yaml:"aggressiveness_min"`
	AggressivenessMax float64 `yaml:"aggressiveness_max"`
	PatienceMin       float64 `yaml:"patience_min"`
	PatienceMax       float64 `yaml:"patience_max"`
	ReactionMin       float64 `yaml:"reaction_min"`
	ReactionMax       float64 `yaml:"reaction_max"`
	AccuracyMin       float64 `yaml:"accuracy_min"`
	AccuracyMax       float64 `yaml:"accuracy_max"`
}

// LifecycleConfig holds respawn and round scaling parameters.
type LifecycleConfig struct {
	RespawnDelay       float64 `yaml:"respawn_delay"`
	MinSpawnDistance   float64 `yaml:"min_spawn_distance"`
	RoundHealthStep    float64 `yaml:"round_health_step"`
	RoundAccuracyStep  float64 `yaml:"round_accuracy_step"`
	RoundReactionStep  float64 `yaml:"round_reaction_step"`
	RoundReactionFloor float64 `yaml:"round_reaction_floor"`
}

// RoleConfig defines a spawn preset for an NPC role.
type RoleConfig struct {
	Name        string  `yaml:"name"`
	Health      float64 `yaml:"health"`
	Speed       float64 `yaml:"speed"`
	Damage      float64 `yaml:"damage"`
	Cooldown    float64 `yaml:"cooldown"`
	WeaponRange float64 `yaml:"weapon_range"`
	Preference  string  `yaml:"preference"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HalfSize  float64        // Arena.Size / 2
	RoleIndex map[string]int // name -> index into Roles
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.HalfSize = c.Arena.Size / 2

	c.Derived.RoleIndex = make(map[string]int, len(c.Roles))
	for i, role := range c.Roles {
		c.Derived.RoleIndex[role.Name] = i
	}
}

// Role returns the preset for a role name, or false if unknown.
func (c *Config) Role(name string) (RoleConfig, bool) {
	i, ok := c.Derived.RoleIndex[name]
	if !ok {
		return RoleConfig{}, false
	}
	return c.Roles[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
