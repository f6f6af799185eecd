package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/preview"
)

const (
	historyLen = 512
	topGroups  = 5
)

var (
	styleText   = tcell.StyleDefault
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleMuted  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSpark  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	stylePaused = tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true)
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// monitor paces a session and renders its vitals to a terminal screen.
type monitor struct {
	session *game.Session
	driver  *preview.Driver
	history []int // population after each tick, oldest first
}

func newMonitor(s *game.Session, d *preview.Driver) *monitor {
	m := &monitor{session: s, driver: d}
	m.record(len(s.World().Agents()))
	return m
}

func (m *monitor) step() {
	met := m.session.Step()
	m.record(met.Population)
}

func (m *monitor) record(pop int) {
	if len(m.history) == historyLen {
		m.history = append(m.history[:0], m.history[1:]...)
	}
	m.history = append(m.history, pop)
}

func (m *monitor) advance(frame float32) int {
	return m.driver.Advance(frame, m.step)
}

func (m *monitor) reset() {
	m.session.Reset()
	m.history = m.history[:0]
	m.record(len(m.session.World().Agents()))
}

// handleKey applies a key press. Returns false when the monitor should
// exit.
func (m *monitor) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}
	switch ev.Rune() {
	case 'q':
		return false
	case ' ':
		m.driver.TogglePause()
	case '.':
		if m.driver.Paused() {
			m.step()
		}
	case 'r':
		m.reset()
	case '+', '=':
		m.driver.SetSpeed(m.driver.Speed() * 1.5)
	case '-':
		m.driver.SetSpeed(m.driver.Speed() / 1.5)
	}
	return true
}

type groupSize struct {
	id    int32
	count int
}

// largestGroups returns up to n groups by member count, ties by id.
func largestGroups(agents []components.Agent, n int) []groupSize {
	counts := make(map[int32]int)
	for i := range agents {
		if agents[i].Grouped() {
			counts[agents[i].GroupID]++
		}
	}
	out := make([]groupSize, 0, len(counts))
	for id, c := range counts {
		out = append(out, groupSize{id, c})
	}
	slices.SortFunc(out, func(a, b groupSize) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	return out[:min(n, len(out))]
}

// sparkline scales the last width values between their min and max.
func sparkline(values []int, width int) []rune {
	if width <= 0 || len(values) == 0 {
		return nil
	}
	values = values[max(0, len(values)-width):]
	lo, hi := slices.Min(values), slices.Max(values)
	out := make([]rune, len(values))
	top := len(sparkRunes) - 1
	for i, v := range values {
		level := top
		if hi > lo {
			level = (v - lo) * top / (hi - lo)
		}
		out[i] = sparkRunes[level]
	}
	return out
}

func drawText(scr tcell.Screen, x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		scr.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func drawBar(scr tcell.Screen, x, y, width int, frac float64, style tcell.Style) {
	n := int(frac*float64(width) + 0.5)
	for i := 0; i < width; i++ {
		r := '·'
		if i < n {
			r = '█'
		}
		scr.SetContent(x+i, y, r, nil, style)
	}
}

func (m *monitor) draw(scr tcell.Screen) {
	scr.Clear()
	w, h := scr.Size()
	world := m.session.World()
	cfg := world.Config()
	agents := world.Agents()
	last, _ := world.Metrics().Last()

	x := drawText(scr, 0, 0, styleTitle, "terrarium top")
	tick := m.session.Tick()
	x = drawText(scr, x+2, 0, styleText, fmt.Sprintf("tick %d  t=%.1fs  speed x%.2f", tick, float32(tick)*cfg.DT, m.driver.Speed()))
	if m.driver.Paused() {
		drawText(scr, x+2, 0, stylePaused, " PAUSED ")
	}

	drawText(scr, 0, 2, styleText, fmt.Sprintf("population %5d / %d   births %3d   deaths %3d", len(agents), cfg.MaxPopulation, last.Births, last.Deaths))
	drawText(scr, 0, 3, styleText, fmt.Sprintf("energy     %7.2f   age %6.1fs   groups %d", last.AverageEnergy, last.AverageAge, last.Groups))
	drawText(scr, 0, 4, styleMuted, fmt.Sprintf("food %.1f   neighbor checks %d", world.Environment().FoodTotal(), last.NeighborChecks))

	y := 6
	if len(m.history) > 0 {
		lo, hi := slices.Min(m.history), slices.Max(m.history)
		drawText(scr, 0, y, styleMuted, fmt.Sprintf("population, last %d ticks (%d..%d)", min(len(m.history), w), lo, hi))
		for i, r := range sparkline(m.history, w) {
			scr.SetContent(i, y+1, r, nil, styleSpark)
		}
		y += 3
	}

	if groups := largestGroups(agents, topGroups); len(groups) > 0 {
		drawText(scr, 0, y, styleMuted, "largest groups")
		y++
		barW := max(10, min(40, w-20))
		for _, g := range groups {
			drawText(scr, 0, y, styleText, fmt.Sprintf("#%-5d %4d", g.id, g.count))
			drawBar(scr, 12, y, barW, float64(g.count)/float64(max(1, len(agents))), styleSpark)
			y++
		}
	}

	drawText(scr, 0, h-1, styleMuted, "[space] pause  [.] step  [r] reset  [+/-] speed  [q] quit")
	scr.Show()
}
