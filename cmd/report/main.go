// Package main summarizes a telemetry.csv produced by a simulation run:
// per-window hit rates, adaptation activity, and where the tunables ended
// up.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/skirmish/telemetry"
)

func main() {
	path := flag.String("telemetry", "", "Path to telemetry.csv")
	flag.Parse()

	if *path == "" {
		log.Fatal("--telemetry is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open telemetry: %v", err)
	}
	defer f.Close()

	var windows []telemetry.WindowStats
	if err := gocsv.UnmarshalFile(f, &windows); err != nil {
		log.Fatalf("parse telemetry: %v", err)
	}
	if len(windows) == 0 {
		log.Fatal("no telemetry windows recorded")
	}

	hitRates := make([]float64, 0, len(windows))
	var shots, hits, kills, deaths, respawns, adaptations int
	var damage float64
	for _, w := range windows {
		hitRates = append(hitRates, w.HitRate)
		shots += w.Shots
		hits += w.Hits
		kills += w.Kills
		deaths += w.Deaths
		respawns += w.Respawns
		adaptations += w.Adaptations
		damage += w.DamageDealt
	}

	first, last := windows[0], windows[len(windows)-1]
	sorted := append([]float64(nil), hitRates...)
	sort.Float64s(sorted)

	fmt.Printf("run: %.0fs simulated, %d windows, %d NPCs\n",
		last.SimTimeSec, len(windows), last.NPCs)
	fmt.Printf("shots: %d (%d hits, overall hit rate %.3f)\n",
		shots, hits, ratio(hits, shots))
	fmt.Printf("hit rate per window: mean %.3f, median %.3f, range [%.3f, %.3f]\n",
		stat.Mean(hitRates, nil),
		stat.Quantile(0.5, stat.Empirical, sorted, nil),
		sorted[0], sorted[len(sorted)-1])
	fmt.Printf("damage dealt: %.0f\n", damage)
	fmt.Printf("kills: %d, deaths: %d, respawns: %d\n", kills, deaths, respawns)
	fmt.Printf("adaptations: %d (%.2f per window)\n",
		adaptations, float64(adaptations)/float64(len(windows)))
	fmt.Printf("accuracy: %.3f -> %.3f (p50 %.3f -> %.3f)\n",
		first.AccuracyMean, last.AccuracyMean, first.AccuracyP50, last.AccuracyP50)
	fmt.Printf("aggressiveness: %.3f -> %.3f (p50 %.3f -> %.3f)\n",
		first.AggressivenessMean, last.AggressivenessMean,
		first.AggressivenessP50, last.AggressivenessP50)
	fmt.Printf("state entries: patrol %d, engage %d, retreat %d, hide %d\n",
		sum(windows, func(w telemetry.WindowStats) int { return w.PatrolEntries }),
		sum(windows, func(w telemetry.WindowStats) int { return w.EngageEntries }),
		sum(windows, func(w telemetry.WindowStats) int { return w.RetreatEntries }),
		sum(windows, func(w telemetry.WindowStats) int { return w.HideEntries }))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func sum(windows []telemetry.WindowStats, field func(telemetry.WindowStats) int) int {
	total := 0
	for _, w := range windows {
		total += field(w)
	}
	return total
}
