package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/telemetry"
)

func smallConfig(seed uint32) *config.Config {
	cfg := config.Default()
	cfg.Seed = seed
	cfg.InitialPopulation = 5
	cfg.MaxPopulation = 20
	return cfg
}

func TestHeadlessCSVShape(t *testing.T) {
	var buf bytes.Buffer
	w := game.NewWorld(smallConfig(7))
	if err := telemetry.RunCSV(context.Background(), w, 10, &buf, false); err != nil {
		t.Fatalf("RunCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("got %d lines, want 11", len(lines))
	}
	if lines[0] != telemetry.CanonicalHeader {
		t.Errorf("header = %q", lines[0])
	}
	for i, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) != 9 {
			t.Fatalf("row %d has %d fields: %q", i, len(fields), line)
		}
		if fields[0] != strconv.Itoa(i) {
			t.Errorf("row %d starts with %q", i, fields[0])
		}
		for _, f := range fields {
			if strings.ContainsAny(f, " ;") {
				t.Errorf("row %d field %q is not plain invariant formatting", i, f)
			}
		}
	}
}

func TestDeterministicCSVIsByteIdentical(t *testing.T) {
	run := func() string {
		var buf bytes.Buffer
		w := game.NewWorld(smallConfig(21))
		if err := telemetry.RunCSV(context.Background(), w, 50, &buf, true); err != nil {
			t.Fatalf("RunCSV: %v", err)
		}
		return buf.String()
	}
	a, b := run(), run()
	if a != b {
		t.Error("two deterministic runs of the same config differ")
	}
	if !strings.Contains(a, ",0\n") {
		t.Error("expected zeroed durations in deterministic mode")
	}
}

func TestEmptyRunWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w := game.NewWorld(smallConfig(1))
	if err := telemetry.RunCSV(context.Background(), w, 0, &buf, false); err != nil {
		t.Fatalf("RunCSV: %v", err)
	}
	if got := buf.String(); got != telemetry.CanonicalHeader+"\n" {
		t.Errorf("empty run = %q", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := game.NewWorld(smallConfig(1))
	err := telemetry.Run(ctx, w, 10, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if w.Metrics().Len() != 0 {
		t.Errorf("stepped %d ticks after cancel", w.Metrics().Len())
	}
}

func TestRunPropagatesSinkError(t *testing.T) {
	boom := errors.New("disk full")
	w := game.NewWorld(smallConfig(1))
	calls := 0
	err := telemetry.Run(context.Background(), w, 10, func(m telemetry.TickMetrics) error {
		calls++
		if m.Tick == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped sink error", err)
	}
	if calls != 4 {
		t.Errorf("sink called %d times, want 4", calls)
	}
}
