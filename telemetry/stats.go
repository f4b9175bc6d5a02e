package telemetry

// WindowStats holds aggregated combat statistics for one time window.
type WindowStats struct {
	WindowEndTick int32   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	// Population at window end
	NPCs  int `csv:"npcs"`
	Alive int `csv:"alive"`

	// Combat during window
	Shots       int     `csv:"shots"`
	Hits        int     `csv:"hits"`
	HitRate     float64 `csv:"hit_rate"`
	DamageDealt float64 `csv:"damage_dealt"`
	Kills       int     `csv:"kills"`
	Deaths      int     `csv:"deaths"`
	Respawns    int     `csv:"respawns"`

	// Adaptation during window
	Adaptations int `csv:"adaptations"`

	// State machine churn
	PatrolEntries  int `csv:"patrol_entries"`
	EngageEntries  int `csv:"engage_entries"`
	RetreatEntries int `csv:"retreat_entries"`
	HideEntries    int `csv:"hide_entries"`

	// Tunable distribution at window end
	AccuracyMean       float64 `csv:"accuracy_mean"`
	AccuracyP50        float64 `csv:"accuracy_p50"`
	AggressivenessMean float64 `csv:"aggressiveness_mean"`
	AggressivenessP50  float64 `csv:"aggressiveness_p50"`
}
