package main

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/camera"
	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/preview"
	"github.com/pthm-cable/terrarium/renderer"
	"github.com/pthm-cable/terrarium/systems"
	"github.com/pthm-cable/terrarium/telemetry"
	"github.com/pthm-cable/terrarium/ui"
)

const (
	maxStepsPerFrame = 8
	pickRadius       = 2.0 // world units
	controlsLegend   = "[Space] pause  [.] step  [R] reset  [-/=] speed  [Tab] controls  [Arrows/drag] pan  [Wheel] zoom  [C] recenter"
)

// viewer is the graphical front-end: it paces a session with a Driver,
// mirrors its agents into the render ECS and draws them.
type viewer struct {
	cfg     *config.Config
	session *game.Session
	driver  *preview.Driver
	mirror  *preview.Mirror

	camera   *camera.Camera
	world    *renderer.WorldRenderer
	hud      *ui.HUD
	controls *ui.ControlsPanel
	overlays *ui.OverlayRegistry
	inspect  *ui.Inspector
	perf     *ui.PerfPanel
	stats    *ui.StatsPanel

	selected    uint64
	hasSelected bool
	summary     telemetry.Summary
	hasSummary  bool
	frame       int
}

func newViewer(cfg *config.Config, opts game.Options) (*viewer, error) {
	v := &viewer{}
	opts.StatsCallback = func(s telemetry.Summary) {
		v.summary = s
		v.hasSummary = true
	}
	s, err := game.NewSession(cfg, opts)
	if err != nil {
		return nil, err
	}
	c := s.World().Config()

	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	cam := camera.New(w, h, c.WorldSize)

	v.cfg = c
	v.session = s
	v.driver = preview.NewDriver(c.DT, maxStepsPerFrame)
	v.mirror = preview.NewMirror()
	v.camera = cam
	v.world = renderer.NewWorldRenderer(cam, c.CellSize)
	v.hud = ui.NewHUD()
	v.controls = ui.NewControlsPanel(10, 100, 220)
	v.overlays = ui.NewOverlayRegistry()
	v.inspect = ui.NewInspector(0, 10)
	v.perf = ui.NewPerfPanel(0, 0)
	v.stats = ui.NewStatsPanel(0, 0)
	v.mirror.Sync(s.World().Agents())
	return v, nil
}

// Close flushes the session's telemetry.
func (v *viewer) Close() error {
	return v.session.Close()
}

// Update handles input and advances the simulation by wall-clock time.
func (v *viewer) Update() {
	v.frame++
	v.handleResize()
	v.handleKeys()
	v.handleCamera()

	v.driver.Advance(rl.GetFrameTime(), v.step)
	v.mirror.Sync(v.session.World().Agents())

	if v.hasSelected {
		if _, ok := v.session.World().Find(v.selected); !ok {
			v.hasSelected = false
		}
	}
}

func (v *viewer) step() { v.session.Step() }

func (v *viewer) reset() {
	v.session.Reset()
	v.mirror.Clear()
	v.hasSelected = false
	v.hasSummary = false
}

func (v *viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	v.camera.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
}

func (v *viewer) handleKeys() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.driver.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.driver.Paused() {
		v.step()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.reset()
	}
	if rl.IsKeyPressed(rl.KeyEqual) {
		v.driver.SetSpeed(v.driver.Speed() * 1.5)
	}
	if rl.IsKeyPressed(rl.KeyMinus) {
		v.driver.SetSpeed(v.driver.Speed() / 1.5)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.camera.Reset()
	}
	v.overlays.HandleKeys()
}

// handleCamera processes pan, zoom and selection.
func (v *viewer) handleCamera() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / v.camera.Zoom
	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	mouse := rl.GetMousePosition()
	if v.controls.Contains(mouse, v.overlays) {
		return
	}
	screen := components.V2(mouse.X, mouse.Y)

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.camera.ZoomAt(screen, 1+wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.camera.Pan(-d.X, -d.Y)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		p := v.camera.ScreenToWorld(screen)
		v.selected, v.hasSelected = v.mirror.Nearest(p, v.cfg.WorldSize, pickRadius)
	}
}

// Draw renders one frame.
func (v *viewer) Draw() {
	rl.BeginDrawing()
	v.world.DrawBackground()

	env := v.session.World().Environment()
	if v.overlays.IsEnabled(ui.OverlayFood) {
		limit := v.cfg.Environment.FoodPerCell
		v.world.DrawCells(env.FoodCells(), func(c systems.CellValue) rl.Color {
			return renderer.FoodColor(ratio(c.Value, limit))
		})
	}
	if v.overlays.IsEnabled(ui.OverlayPheromone) {
		limit := v.cfg.Environment.PheromoneDepositOnBirth
		v.world.DrawCells(env.PheromoneCells(), func(c systems.CellValue) rl.Color {
			return renderer.PheromoneColor(c.Group, ratio(c.Value, limit))
		})
	}
	if v.overlays.IsEnabled(ui.OverlayDanger) {
		v.world.DrawCells(env.DangerCells(), func(c systems.CellValue) rl.Color {
			return renderer.DangerColor(ratio(c.Value, 1))
		})
	}
	if v.overlays.IsEnabled(ui.OverlayGrid) {
		v.world.DrawGrid(env.Cols())
	}

	v.world.DrawAgents(v.mirror, v.cfg.Species.EnergySoftCap)
	v.drawSelection()
	v.drawUI()

	rl.EndDrawing()
}

func (v *viewer) drawSelection() {
	if !v.hasSelected {
		return
	}
	a, ok := v.session.World().Find(v.selected)
	if !ok {
		return
	}
	vision := float32(0)
	if v.overlays.IsEnabled(ui.OverlayVision) {
		vision = v.cfg.Species.VisionRadius
	}
	pulse := float32(math.Sin(float64(v.frame)*0.1))*0.5 + 0.5
	v.world.DrawSelection(a.Position, a.Size(), vision, pulse)
}

func (v *viewer) drawUI() {
	w := v.session.World()
	var last telemetry.TickMetrics
	if m, ok := w.Metrics().Last(); ok {
		last = m
	}
	v.hud.Draw(ui.HUDData{
		Title:      "Terrarium",
		Population: len(w.Agents()),
		Groups:     last.Groups,
		Births:     last.Births,
		Deaths:     last.Deaths,
		Tick:       v.session.Tick(),
		SimTime:    float32(v.session.Tick()) * v.cfg.DT,
		Speed:      v.driver.Speed(),
		FPS:        rl.GetFPS(),
		Paused:     v.driver.Paused(),
	})

	res := v.controls.Draw(v.driver, v.overlays)
	if res.StepOnce {
		v.step()
	}
	if res.Reset {
		v.reset()
	}

	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())
	y := int32(10)
	if v.hasSelected {
		if a, ok := w.Find(v.selected); ok {
			v.inspect.SetPosition(screenW-v.inspect.Width()-10, y)
			y = v.inspect.Draw(&ui.InspectedAgent{
				Agent:     a,
				EnergyCap: v.cfg.Species.EnergySoftCap,
				BaseSpeed: v.cfg.Species.BaseSpeed,
			}) + 10
		}
	}
	if v.overlays.IsEnabled(ui.OverlayStats) && v.hasSummary {
		v.stats.SetPosition(screenW-v.stats.Width()-10, y)
		y = v.stats.Draw(&v.summary) + 10
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.SetPosition(screenW-270, y)
		v.perf.Draw(v.session.Perf())
	}

	v.hud.DrawControls(screenH, controlsLegend)
}

func ratio(value, limit float32) float32 {
	if limit <= 0 {
		return 1
	}
	return value / limit
}
