// Package components defines ECS components for combat NPCs.
package components

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/skirmish/geom"
)

// Team tags which faction an actor fights for.
type Team uint8

const (
	TeamNone Team = iota
	TeamRed
	TeamBlue
)

// String returns a display name for the team.
func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "none"
	}
}

// Preference selects the movement policy an NPC uses while engaging.
type Preference uint8

const (
	PrefFlanker Preference = iota
	PrefRusher
	PrefCamper
	PrefSniper
)

// Preferences lists all tactical preferences, for random selection.
var Preferences = []Preference{PrefFlanker, PrefRusher, PrefCamper, PrefSniper}

// ClosePreferences are the preferences favored in close-range fights.
var ClosePreferences = []Preference{PrefRusher, PrefFlanker}

// FarPreferences are the preferences favored in long-range fights.
var FarPreferences = []Preference{PrefCamper, PrefSniper}

// String returns a display name for the preference.
func (p Preference) String() string {
	switch p {
	case PrefFlanker:
		return "flanker"
	case PrefRusher:
		return "rusher"
	case PrefCamper:
		return "camper"
	case PrefSniper:
		return "sniper"
	default:
		return "unknown"
	}
}

// ParsePreference maps a preference name to its tag.
func ParsePreference(s string) (Preference, bool) {
	switch s {
	case "flanker":
		return PrefFlanker, true
	case "rusher":
		return PrefRusher, true
	case "camper":
		return PrefCamper, true
	case "sniper":
		return PrefSniper, true
	default:
		return PrefRusher, false
	}
}

// Identity carries the stable id and faction of an NPC.
type Identity struct {
	ID   uuid.UUID
	Name string
	Team Team
	Role string // role preset name, empty for defaults
}

// Position is an actor's world position.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a vector.
func (p *Position) Vec() geom.Vec3 {
	return geom.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// Set overwrites the position from a vector.
func (p *Position) Set(v geom.Vec3) {
	p.X, p.Y, p.Z = v.X, v.Y, v.Z
}

// Rotation is an actor's facing. Yaw is in radians about the vertical axis.
type Rotation struct {
	Yaw float64
}

// Vitals tracks health. Alive is kept in lockstep with Health: an NPC is
// alive exactly when Health > 0.
type Vitals struct {
	Health    float64
	MaxHealth float64
	Alive     bool
}

// Heal restores health, capped at MaxHealth.
func (v *Vitals) Heal(amount float64) {
	v.Health = geom.Clamp(v.Health+amount, 0, v.MaxHealth)
}

// Combat holds weapon state. Cooldown includes the per-spawn jitter applied
// by the lifecycle manager.
type Combat struct {
	Ammo        int
	MaxAmmo     int
	GunDamage   float64
	WeaponRange float64
	LastShotAt  float64 // simulation seconds; negative before the first shot
	Cooldown    float64 // seconds between shots
}

// CooldownElapsed reports whether the fire-rate gate is open at `now`.
func (c *Combat) CooldownElapsed(now float64) bool {
	return now-c.LastShotAt >= c.Cooldown
}

// Movement holds locomotion parameters and the current waypoint route.
// Cyclic routes loop (patrol); one-shot routes are consumed (retreat).
type Movement struct {
	MoveSpeed float64 // units per second
	TurnSpeed float64 // radians per second

	Waypoints []geom.Vec3
	Cursor    int
	Cycle     bool

	// Stuck detection: position barely changes for too long.
	LastPos  geom.Vec3
	StuckFor float64
}

// CurrentWaypoint returns the active waypoint, or false when the route is
// empty or exhausted.
func (m *Movement) CurrentWaypoint() (geom.Vec3, bool) {
	if len(m.Waypoints) == 0 || m.Cursor >= len(m.Waypoints) {
		return geom.Vec3{}, false
	}
	return m.Waypoints[m.Cursor], true
}

// Advance moves the cursor past the current waypoint. Cyclic routes wrap;
// one-shot routes run off the end. Returns true while a waypoint remains.
func (m *Movement) Advance() bool {
	if len(m.Waypoints) == 0 {
		return false
	}
	m.Cursor++
	if m.Cursor >= len(m.Waypoints) {
		if !m.Cycle {
			return false
		}
		m.Cursor = 0
	}
	return true
}

// SetRoute replaces the waypoint route and resets the cursor.
func (m *Movement) SetRoute(points []geom.Vec3, cycle bool) {
	m.Waypoints = points
	m.Cursor = 0
	m.Cycle = cycle
}

// Memory is the last-known target position. Valid is cleared when the memory
// duration elapses without a fresh sighting.
type Memory struct {
	LastKnown  geom.Vec3
	LastSeenAt float64
	Valid      bool
}

// Remember records a sighting.
func (m *Memory) Remember(pos geom.Vec3, now float64) {
	m.LastKnown = pos
	m.LastSeenAt = now
	m.Valid = true
}

// Forget clears the memory.
func (m *Memory) Forget() {
	m.Valid = false
}

// Fresh reports whether the memory is still inside the memory window at
// `now`.
func (m *Memory) Fresh(now, window float64) bool {
	return m.Valid && now-m.LastSeenAt <= window
}

// Lifecycle tracks death and respawn scheduling.
type Lifecycle struct {
	DiedAt    float64
	RespawnAt float64
	Deaths    int
	Round     int
}
