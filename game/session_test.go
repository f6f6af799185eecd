package game

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/telemetry"
)

func TestSessionWindows(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.InitialPopulation = 10
		c.DT = 0.1
	})
	var summaries []telemetry.Summary
	s, err := NewSession(cfg, Options{
		StatsWindowSec: 1,
		StatsCallback:  func(sum telemetry.Summary) { summaries = append(summaries, sum) },
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := s.Run(context.Background(), 25); err != nil {
		t.Fatal(err)
	}
	if s.Tick() != 25 {
		t.Errorf("tick = %d, want 25", s.Tick())
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if summaries[1].WindowStart != 10 || summaries[1].WindowEnd != 19 {
		t.Errorf("second window = [%d, %d]", summaries[1].WindowStart, summaries[1].WindowEnd)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 3 || summaries[2].WindowEnd != 24 {
		t.Errorf("partial window not flushed on close: %d summaries", len(summaries))
	}
}

func TestSessionResetRestartsTicks(t *testing.T) {
	s, err := NewSession(testConfig(nil), Options{})
	if err != nil {
		t.Fatal(err)
	}
	first := s.Step()
	s.Step()
	s.Reset()
	if s.Tick() != 0 {
		t.Fatalf("tick after reset = %d", s.Tick())
	}
	if again := s.Step(); !again.SameOutcome(first) || again.Tick != 0 {
		t.Errorf("first tick after reset %+v, originally %+v", again, first)
	}
}

func TestSessionOutputDir(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snaps")
	cfg := testConfig(func(c *config.Config) {
		c.InitialPopulation = 8
		c.DT = 0.1
	})
	s, err := NewSession(cfg, Options{
		OutputDir:      dir,
		SnapshotDir:    snaps,
		StatsWindowSec: 0.5,
		Deterministic:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 11 {
		t.Errorf("ticks.csv has %d lines, want 11", n)
	}
	for _, name := range []string{"summary.csv", "perf.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	entries, err := os.ReadDir(snaps)
	if err != nil || len(entries) != 2 {
		t.Errorf("snapshots = %d (%v), want 2", len(entries), err)
	}
}
