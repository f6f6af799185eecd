package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for per-window snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	csvPath := flag.String("csv", "", "Headless: write per-tick CSV here (- = stdout)")
	seed := flag.Int64("seed", 0, "RNG seed override (0 = use config, -1 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	deterministic := flag.Bool("deterministic", false, "Write 0 for tick durations so CSV output is reproducible")

	flag.Parse()

	// Logs go to stdout unless stdout carries the CSV.
	var logOut io.Writer = os.Stdout
	if *csvPath == "-" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	switch {
	case *seed > 0:
		cfg.Seed = uint32(*seed)
	case *seed < 0:
		cfg.Seed = uint32(time.Now().UnixNano())
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	opts := game.Options{
		LogStats:       *logStats,
		StatsWindowSec: float32(*statsWindow),
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		Deterministic:  *deterministic,
		Logger:         logger,
	}

	if *headless {
		if err := runHeadless(cfg, opts, *csvPath, *maxTicks); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Terrarium")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v, err := newViewer(cfg, opts)
	if err != nil {
		slog.Error("failed to start viewer", "error", err)
		os.Exit(1)
	}
	defer v.Close()

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if *maxTicks > 0 && v.session.Tick() >= *maxTicks {
			break
		}
	}
}

// runHeadless steps a session until maxTicks or an interrupt.
func runHeadless(cfg *config.Config, opts game.Options, csvPath string, maxTicks int) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := game.NewSession(cfg, opts)
	if err != nil {
		return err
	}
	defer closeInto(&err, s)

	var sink *telemetry.CSVSink
	if csvPath != "" {
		w := io.Writer(os.Stdout)
		if csvPath != "-" {
			f, ferr := os.Create(csvPath)
			if ferr != nil {
				return ferr
			}
			defer closeInto(&err, f)
			w = f
		}
		sink = telemetry.NewCSVSink(w, opts.Deterministic || cfg.Telemetry.DeterministicDurations)
		defer closeInto(&err, sink)
	}

	slog.Info("starting headless simulation",
		"seed", cfg.Seed,
		"population", cfg.InitialPopulation,
		"max_ticks", maxTicks,
	)

	start := time.Now()
	for maxTicks <= 0 || s.Tick() < maxTicks {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", s.Tick())
			break
		}
		m := s.Step()
		if sink != nil {
			if err := sink.Write(m); err != nil {
				return err
			}
		}
	}

	last, _ := s.World().Metrics().Last()
	slog.Info("simulation finished",
		"ticks", s.Tick(),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"final", last,
	)
	return nil
}

// closeInto closes c and keeps its error in *err unless *err is already set.
func closeInto(err *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
