package game

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/telemetry"
)

// Options configures a Session.
type Options struct {
	LogStats       bool
	StatsWindowSec float32 // 0 = use config
	OutputDir      string  // empty = no files
	SnapshotDir    string  // written on every stats window when set
	Deterministic  bool    // zero wall-clock durations in ticks.csv
	StatsCallback  func(telemetry.Summary)
	Logger         *slog.Logger // nil = slog.Default()
}

// Session drives a World with a running tick counter and routes its
// metrics to window summaries, logs and the output directory.
type Session struct {
	world     *World
	tick      int
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	logStats      bool
	snapshotDir   string
	statsCallback func(telemetry.Summary)
	log           *slog.Logger
}

// NewSession builds a world from cfg and opens the output directory, if
// any. cfg should already be validated.
func NewSession(cfg *config.Config, opts Options) (*Session, error) {
	w := NewWorld(cfg)
	c := w.Config()

	window := c.Derived.StatsWindowTicks
	if opts.StatsWindowSec > 0 && c.DT > 0 {
		window = int(math.Round(float64(opts.StatsWindowSec / c.DT)))
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir, opts.Deterministic || c.Telemetry.DeterministicDurations)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(c); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		world:         w,
		collector:     telemetry.NewCollector(window, c.DT),
		perf:          telemetry.NewPerfCollector(max(1, window)),
		output:        output,
		logStats:      opts.LogStats || c.Telemetry.LogStats,
		snapshotDir:   opts.SnapshotDir,
		statsCallback: opts.StatsCallback,
		log:           logger,
	}
	w.SetPerf(s.perf)
	return s, nil
}

// World returns the simulated world.
func (s *Session) World() *World { return s.world }

// Tick returns the number of ticks stepped since construction or Reset.
func (s *Session) Tick() int { return s.tick }

// Perf returns tick timing over the current stats window.
func (s *Session) Perf() telemetry.PerfStats { return s.perf.Stats() }

// Step advances one tick.
func (s *Session) Step() telemetry.TickMetrics {
	m := s.world.Step(s.tick)
	s.tick++

	if err := s.output.WriteTick(m); err != nil {
		s.log.Error("failed to write tick", "error", err)
	}
	s.collector.Record(m)
	if s.collector.ShouldFlush() {
		s.flushTelemetry()
	}
	return m
}

// Run steps n ticks, or until ctx is done.
func (s *Session) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
	}
	return nil
}

// Reset restarts the world from its bootstrap state. Output files keep
// growing; the tick counter restarts at 0.
func (s *Session) Reset() {
	s.world.Reset()
	s.collector.Reset()
	s.tick = 0
}

// Snapshot captures the world after its latest tick.
func (s *Session) Snapshot(withFood bool) telemetry.Snapshot {
	return telemetry.NewSnapshot(s.world, s.world.Config().WorldSize, withFood)
}

// flushTelemetry closes the current stats window.
func (s *Session) flushTelemetry() {
	stats := s.collector.Flush(s.world.Agents(), s.world.Environment().FoodTotal())
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}
	if s.logStats {
		s.log.Info("stats", "window", stats)
		s.log.Info("perf", "window", perfStats)
	}

	if err := s.output.WriteSummary(stats); err != nil {
		s.log.Error("failed to write summary", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEnd); err != nil {
		s.log.Error("failed to write perf", "error", err)
	}

	if s.snapshotDir != "" {
		snap := s.Snapshot(true)
		if _, err := telemetry.SaveSnapshot(&snap, s.snapshotDir); err != nil {
			s.log.Error("failed to save snapshot", "error", err)
		}
	}
}

// Close flushes a partial stats window and closes the output files.
func (s *Session) Close() error {
	if s.collector.Pending() > 0 {
		s.flushTelemetry()
	}
	return s.output.Close()
}
