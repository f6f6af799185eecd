package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Population int
	Groups     int
	Births     int
	Deaths     int
	Tick       int
	SimTime    float32 // seconds
	Speed      float32
	FPS        int32
	Paused     bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD at the top-left corner.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Population: %d | Groups: %d | +%d -%d", data.Population, data.Groups, data.Births, data.Deaths),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %.1fx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-25, 14, h.renderer.Theme.MutedColor)
}

// PerfPanel renders per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders stats and returns the bottom edge of the panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) int32 {
	r := p.renderer
	phases := telemetry.PhaseOrder()
	width := int32(260)
	height := r.Theme.Padding*2 + 20 + 16 + int32(len(phases))*14
	r.DrawPanel(p.x, p.y, width, height)

	x := p.x + r.Theme.Padding
	y := p.y + r.Theme.Padding
	rl.DrawText("Tick Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("avg %s  max %s  %.0f t/s",
			stats.AvgTickDuration.Round(time.Microsecond),
			stats.MaxTickDuration.Round(time.Microsecond),
			stats.TicksPerSecond),
		x, y, 12, rl.Yellow,
	)
	y += 16

	for _, phase := range phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-13s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
	return p.y + height
}

// StatsPanel shows the latest window summary.
type StatsPanel struct {
	renderer *Renderer
	panel    PanelDescriptor[telemetry.Summary]
	x, y     int32
}

// NewStatsPanel creates a summary panel at (x, y).
func NewStatsPanel(x, y int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), panel: summaryPanel(), x: x, y: y}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Width returns the panel width.
func (s *StatsPanel) Width() int32 { return s.panel.Width }

// Draw renders sum and returns the bottom edge of the panel.
func (s *StatsPanel) Draw(sum *telemetry.Summary) int32 {
	return DrawPanelDescriptor(s.renderer, s.x, s.y, s.panel, sum)
}

func summaryPanel() PanelDescriptor[telemetry.Summary] {
	num := func(label, format string, get func(*telemetry.Summary) float64) FieldDescriptor[telemetry.Summary] {
		return FieldDescriptor[telemetry.Summary]{
			Label:  label,
			Widget: WidgetText,
			Format: format,
			Getter: func(s *telemetry.Summary) float32 { return float32(get(s)) },
		}
	}
	return PanelDescriptor[telemetry.Summary]{
		Title: "Window",
		Width: 220,
		Sections: []SectionDescriptor[telemetry.Summary]{
			{
				Fields: []FieldDescriptor[telemetry.Summary]{
					{Label: "Ticks", Widget: WidgetText, TextGetter: func(s *telemetry.Summary) string {
						return fmt.Sprintf("%d-%d", s.WindowStart, s.WindowEnd)
					}},
					num("Sim time", "%.1fs", func(s *telemetry.Summary) float64 { return s.SimTimeSec }),
				},
			},
			{
				Title: "Population",
				Fields: []FieldDescriptor[telemetry.Summary]{
					{Label: "Range", Widget: WidgetText, TextGetter: func(s *telemetry.Summary) string {
						return fmt.Sprintf("%d..%d", s.PopulationMin, s.PopulationMax)
					}},
					num("Mean", "%.1f", func(s *telemetry.Summary) float64 { return s.PopulationAvg }),
					{Label: "Births", Widget: WidgetText, TextGetter: func(s *telemetry.Summary) string {
						return fmt.Sprintf("+%d / -%d", s.Births, s.Deaths)
					}},
				},
			},
			{
				Title: "Energy",
				Fields: []FieldDescriptor[telemetry.Summary]{
					num("Mean", "%.2f", func(s *telemetry.Summary) float64 { return s.EnergyMean }),
					{Label: "p10/50/90", Widget: WidgetText, TextGetter: func(s *telemetry.Summary) string {
						return fmt.Sprintf("%.1f %.1f %.1f", s.EnergyP10, s.EnergyP50, s.EnergyP90)
					}},
					num("Food", "%.0f", func(s *telemetry.Summary) float64 { return s.FoodTotal }),
				},
			},
		},
	}
}
