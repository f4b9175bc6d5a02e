// Package telemetry tracks combat activity over time windows and writes it
// to CSV for offline analysis.
package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/skirmish/components"
)

// Collector accumulates combat events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	shots       int
	hits        int
	damageDealt float64
	kills       int
	deaths      int
	respawns    int
	adaptations int

	stateEntries [4]int // indexed by components.StateKind
}

// NewCollector creates a collector flushing every windowDurationSec of
// simulation time at the given tick length.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := int32(windowDurationSec / dt)
	if ticks < 1 {
		ticks = 1
	}
	return &Collector{windowDurationTicks: ticks, dt: dt}
}

// RecordShot records a fire attempt and its outcome.
func (c *Collector) RecordShot(hit bool, damage float64) {
	c.shots++
	if hit {
		c.hits++
		c.damageDealt += damage
	}
}

// RecordKill records a target kill.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordDeath records an NPC death.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordRespawn records an NPC respawn.
func (c *Collector) RecordRespawn() {
	c.respawns++
}

// RecordAdaptation records one adaptation pass.
func (c *Collector) RecordAdaptation() {
	c.adaptations++
}

// RecordStateEntry records a transition into a tactical state.
func (c *Collector) RecordStateEntry(kind components.StateKind) {
	if int(kind) < len(c.stateEntries) {
		c.stateEntries[kind]++
	}
}

// ShouldFlush reports whether the current window is over.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces stats for the closing window and starts the next one.
// accuracies and aggressiveness are sampled across the NPC population at
// window end.
func (c *Collector) Flush(currentTick int32, npcs, alive int, accuracies, aggressiveness []float64) WindowStats {
	s := WindowStats{
		WindowEndTick: currentTick,
		SimTimeSec:    float64(currentTick) * c.dt,

		NPCs:  npcs,
		Alive: alive,

		Shots:       c.shots,
		Hits:        c.hits,
		DamageDealt: c.damageDealt,
		Kills:       c.kills,
		Deaths:      c.deaths,
		Respawns:    c.respawns,
		Adaptations: c.adaptations,

		PatrolEntries:  c.stateEntries[components.StatePatrol],
		EngageEntries:  c.stateEntries[components.StateEngage],
		RetreatEntries: c.stateEntries[components.StateRetreat],
		HideEntries:    c.stateEntries[components.StateHide],
	}
	if c.shots > 0 {
		s.HitRate = float64(c.hits) / float64(c.shots)
	}
	s.AccuracyMean, s.AccuracyP50 = meanMedian(accuracies)
	s.AggressivenessMean, s.AggressivenessP50 = meanMedian(aggressiveness)

	c.windowStartTick = currentTick
	c.shots = 0
	c.hits = 0
	c.damageDealt = 0
	c.kills = 0
	c.deaths = 0
	c.respawns = 0
	c.adaptations = 0
	c.stateEntries = [4]int{}

	return s
}

func meanMedian(values []float64) (mean, median float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Mean(sorted, nil), stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
