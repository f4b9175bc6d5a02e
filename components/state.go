package components

import "github.com/pthm-cable/skirmish/geom"

// StateKind discriminates tactical state variants.
type StateKind uint8

const (
	StatePatrol StateKind = iota
	StateEngage
	StateRetreat
	StateHide
)

// String returns a display name for the state kind.
func (k StateKind) String() string {
	switch k {
	case StatePatrol:
		return "patrol"
	case StateEngage:
		return "engage"
	case StateRetreat:
		return "retreat"
	case StateHide:
		return "hide"
	default:
		return "unknown"
	}
}

// State is a tagged tactical state. Each variant carries exactly the data
// its behavior needs; there is no presence-based control flow.
type State interface {
	Kind() StateKind
}

// Patrol follows a cyclic waypoint route while watching for the target.
// Spotted tracks continuous visibility for the reaction-time gate.
type Patrol struct {
	Spotted   bool
	SpottedAt float64
}

// Engage fights the target using the NPC's tactical preference.
// LostAt is the moment perception last dropped, zero while in contact.
type Engage struct {
	LostAt float64
}

// Retreat follows a one-shot route away from the target.
type Retreat struct{}

// Hide holds at a scored hiding spot until patience runs out.
type Hide struct {
	Spot  geom.Vec3
	Since float64
}

func (Patrol) Kind() StateKind  { return StatePatrol }
func (Engage) Kind() StateKind  { return StateEngage }
func (Retreat) Kind() StateKind { return StateRetreat }
func (Hide) Kind() StateKind    { return StateHide }

// Tactical is the per-NPC behavior controller state: the active tagged
// State, the per-instance tunables the adaptation engine mutates, and the
// cached perception result.
type Tactical struct {
	State      State
	Preference Preference

	Aggressiveness float64 // [0,1]
	Patience       float64 // seconds
	ReactionTime   float64 // seconds
	Accuracy       float64 // [0,1]

	// Perception cache, refreshed at the configured interval.
	Visible     bool
	EvaluatedAt float64
}

// ClampTunables forces the mutable tunables back into their declared ranges.
// Called after every adaptation step.
func (t *Tactical) ClampTunables() {
	t.Aggressiveness = geom.Clamp(t.Aggressiveness, 0, 1)
	t.Accuracy = geom.Clamp(t.Accuracy, 0, 1)
	if t.Patience < 0 {
		t.Patience = 0
	}
	if t.ReactionTime < 0 {
		t.ReactionTime = 0
	}
}
