package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/game"
	"github.com/pthm-cable/skirmish/script"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 18000, "Stop after N ticks (0 = unlimited)")
	npcs := flag.Int("npcs", 0, "Number of NPCs (0 = default)")
	dt := flag.Float64("dt", 0, "Seconds per tick (0 = default)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	scriptPath := flag.String("script", "", "Tengo controller script (empty = built-in state machine)")
	watch := flag.Bool("watch", false, "Hot-reload the controller script on change")
	roundTicks := flag.Int("round-ticks", 0, "Advance the difficulty round every N ticks (0 = never)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	game.SetLogWriter(os.Stderr)

	g, err := game.NewGame(game.Options{
		Seed:       rngSeed,
		DT:         *dt,
		NPCs:       *npcs,
		OutputDir:  *outputDir,
		ScriptPath: *scriptPath,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	var watcher *script.Watcher
	if *watch && *scriptPath != "" {
		watcher, err = script.NewWatcher(filepath.Dir(*scriptPath))
		if err != nil {
			slog.Error("failed to watch script", "error", err)
			os.Exit(1)
		}
		defer watcher.Close()
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"npcs", len(g.NPCs()),
		"max_ticks", *maxTicks,
		"script", *scriptPath,
	)

	for {
		if watcher != nil {
			select {
			case path := <-watcher.Events:
				if err := g.Controller().Reload(); err != nil {
					slog.Error("controller reload failed", "path", path, "error", err)
				} else {
					slog.Info("controller reloaded", "path", path)
				}
			case err := <-watcher.Errors:
				slog.Error("script watcher", "error", err)
			default:
			}
		}

		g.Update(0)

		if *roundTicks > 0 && int(g.Tick())%*roundTicks == 0 {
			g.ScaleForRound(g.Round() + 1)
			slog.Info("round advanced", "round", g.Round(), "tick", g.Tick())
		}

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached",
				"tick", g.Tick(),
				"sim_time", g.Now(),
				"target_deaths", g.Target().Deaths(),
			)
			return
		}
	}
}
