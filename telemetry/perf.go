package telemetry

import "time"

// Phase names for the simulation step.
const (
	PhasePerception = "perception"
	PhaseTactical   = "tactical"
	PhaseCombat     = "combat"
	PhaseMovement   = "movement"
	PhaseLifecycle  = "lifecycle"
	PhaseTelemetry  = "telemetry"
)

// perfPhases fixes the CSV column order.
var perfPhases = []string{
	PhasePerception, PhaseTactical, PhaseCombat,
	PhaseMovement, PhaseLifecycle, PhaseTelemetry,
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks tick timing over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats aggregates tick timing over the window.
type PerfStats struct {
	MeanTick time.Duration
	MaxTick  time.Duration
	Phases   map[string]time.Duration // mean per phase
}

// Stats computes mean and max tick timing over the recorded window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{Phases: make(map[string]time.Duration)}
	if p.sampleCount == 0 {
		return stats
	}
	var total time.Duration
	phaseTotals := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.TickDuration
		if s.TickDuration > stats.MaxTick {
			stats.MaxTick = s.TickDuration
		}
		for name, d := range s.Phases {
			phaseTotals[name] += d
		}
	}
	n := time.Duration(p.sampleCount)
	stats.MeanTick = total / n
	for name, d := range phaseTotals {
		stats.Phases[name] = d / n
	}
	return stats
}

// PerfStatsCSV is the flattened CSV row for one perf window.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	MeanTickUs   float64 `csv:"mean_tick_us"`
	MaxTickUs    float64 `csv:"max_tick_us"`
	PerceptionUs float64 `csv:"perception_us"`
	TacticalUs   float64 `csv:"tactical_us"`
	CombatUs     float64 `csv:"combat_us"`
	MovementUs   float64 `csv:"movement_us"`
	LifecycleUs  float64 `csv:"lifecycle_us"`
	TelemetryUs  float64 `csv:"telemetry_us"`
}

// ToCSV flattens the stats for CSV output.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	us := func(d time.Duration) float64 { return float64(d) / float64(time.Microsecond) }
	row := PerfStatsCSV{
		WindowEnd:  windowEnd,
		MeanTickUs: us(s.MeanTick),
		MaxTickUs:  us(s.MaxTick),
	}
	for _, name := range perfPhases {
		d := us(s.Phases[name])
		switch name {
		case PhasePerception:
			row.PerceptionUs = d
		case PhaseTactical:
			row.TacticalUs = d
		case PhaseCombat:
			row.CombatUs = d
		case PhaseMovement:
			row.MovementUs = d
		case PhaseLifecycle:
			row.LifecycleUs = d
		case PhaseTelemetry:
			row.TelemetryUs = d
		}
	}
	return row
}
