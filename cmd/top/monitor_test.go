package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/preview"
)

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		width  int
		want   string
	}{
		{"empty", nil, 10, ""},
		{"zero width", []int{1, 2}, 0, ""},
		{"flat", []int{5, 5, 5}, 10, "███"},
		{"ramp", []int{0, 7, 14}, 10, "▁▄█"},
		{"keeps the tail", []int{100, 0, 7}, 2, "▁█"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(sparkline(tt.values, tt.width)); got != tt.want {
				t.Errorf("sparkline = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLargestGroups(t *testing.T) {
	agents := []components.Agent{
		{GroupID: 3}, {GroupID: 3}, {GroupID: 1}, {GroupID: 1},
		{GroupID: 2}, {GroupID: components.Ungrouped}, {GroupID: components.Ungrouped},
	}
	got := largestGroups(agents, 2)
	want := []groupSize{{1, 2}, {3, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func newTestMonitor(t *testing.T) *monitor {
	t.Helper()
	cfg := config.Default()
	cfg.InitialPopulation = 12
	s, err := game.NewSession(cfg, game.Options{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return newMonitor(s, preview.NewDriver(cfg.DT, 8))
}

func TestMonitorKeys(t *testing.T) {
	m := newTestMonitor(t)
	key := func(r rune) bool { return m.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)) }

	if !key(' ') || !m.driver.Paused() {
		t.Fatal("space should pause")
	}
	key('.')
	if m.session.Tick() != 1 || len(m.history) != 2 {
		t.Errorf("step: tick %d, history %d", m.session.Tick(), len(m.history))
	}
	key('+')
	if m.driver.Speed() != 1.5 {
		t.Errorf("speed = %v, want 1.5", m.driver.Speed())
	}
	key('r')
	if m.session.Tick() != 0 || len(m.history) != 1 {
		t.Errorf("reset: tick %d, history %d", m.session.Tick(), len(m.history))
	}
	if key('q') {
		t.Error("q should quit")
	}
	if m.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape should quit")
	}
}

func TestMonitorHistoryBounded(t *testing.T) {
	m := newTestMonitor(t)
	for i := 0; i < historyLen+10; i++ {
		m.record(i)
	}
	if len(m.history) != historyLen {
		t.Fatalf("history = %d, want %d", len(m.history), historyLen)
	}
	if m.history[historyLen-1] != historyLen+9 {
		t.Errorf("newest = %d", m.history[historyLen-1])
	}
}

func TestMonitorDraw(t *testing.T) {
	m := newTestMonitor(t)
	m.step()

	scr := tcell.NewSimulationScreen("UTF-8")
	if err := scr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer scr.Fini()
	scr.SetSize(80, 24)

	m.draw(scr)

	cells, w, _ := scr.GetContents()
	var row strings.Builder
	for x := 0; x < w; x++ {
		if rs := cells[x].Runes; len(rs) > 0 {
			row.WriteRune(rs[0])
		}
	}
	if got := row.String(); !strings.HasPrefix(got, "terrarium top") || !strings.Contains(got, "tick 1") {
		t.Errorf("title row = %q", got)
	}
}
