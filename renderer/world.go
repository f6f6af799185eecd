package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/camera"
	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/preview"
	"github.com/pthm-cable/terrarium/systems"
)

// agentRadius is the body radius in world units at Scale 1.
const agentRadius = 0.45

// WorldRenderer draws the simulation through a camera. Every item is
// drawn once per visible toroidal copy.
type WorldRenderer struct {
	cam      *camera.Camera
	cellSize float32
	scratch  []components.Vec2
}

// NewWorldRenderer creates a renderer for fields with the given cell size.
func NewWorldRenderer(cam *camera.Camera, cellSize float32) *WorldRenderer {
	return &WorldRenderer{cam: cam, cellSize: cellSize}
}

// DrawBackground clears the frame.
func (w *WorldRenderer) DrawBackground() {
	rl.ClearBackground(Background)
}

// DrawCells fills each cell with color(c), skipping transparent ones.
func (w *WorldRenderer) DrawCells(cells []systems.CellValue, color func(c systems.CellValue) rl.Color) {
	k := w.cam.Scale()
	side := w.cellSize * k
	half := w.cellSize / 2
	for _, c := range cells {
		col := color(c)
		if col.A == 0 {
			continue
		}
		center := components.V2(float32(c.X)*w.cellSize+half, float32(c.Y)*w.cellSize+half)
		w.scratch = w.cam.Copies(w.scratch[:0], center, w.cellSize)
		for _, s := range w.scratch {
			rl.DrawRectangleV(
				rl.Vector2{X: s.X - side/2, Y: s.Y - side/2},
				rl.Vector2{X: side, Y: side},
				col,
			)
		}
	}
}

// DrawGrid draws the field cell boundaries.
func (w *WorldRenderer) DrawGrid(cols int32) {
	if cols <= 0 {
		return
	}
	line := rl.Color{R: 255, G: 255, B: 255, A: 18}
	seam := rl.Color{R: 255, G: 255, B: 255, A: 60}
	vw, vh := w.cam.ViewportW, w.cam.ViewportH
	mid := components.V2(vw/2, vh/2)
	for i := int32(0); i < cols; i++ {
		col := line
		if i == 0 {
			col = seam
		}
		at := float32(i) * w.cellSize
		// Lines through the camera center; only the copies on the center
		// row or column are kept so each line is drawn once.
		w.scratch = w.cam.Copies(w.scratch[:0], components.V2(at, w.cam.Center.Y), 0)
		for _, s := range w.scratch {
			if s.Y == mid.Y {
				rl.DrawLineV(rl.Vector2{X: s.X, Y: 0}, rl.Vector2{X: s.X, Y: vh}, col)
			}
		}
		w.scratch = w.cam.Copies(w.scratch[:0], components.V2(w.cam.Center.X, at), 0)
		for _, s := range w.scratch {
			if s.X == mid.X {
				rl.DrawLineV(rl.Vector2{X: 0, Y: s.Y}, rl.Vector2{X: vw, Y: s.Y}, col)
			}
		}
	}
}

// DrawAgents draws every mirrored agent as a triangle along its heading.
// energyScale maps energy to brightness; 0 draws at full brightness.
func (w *WorldRenderer) DrawAgents(m *preview.Mirror, energyScale float32) {
	k := w.cam.Scale()
	m.Each(func(t *components.Transform, app *components.Appearance, ref *components.AgentRef) {
		brightness := float32(1)
		if energyScale > 0 {
			brightness = ref.Energy / energyScale
		}
		color := AgentColor(*app, brightness)
		r := agentRadius * t.Scale
		w.scratch = w.cam.Copies(w.scratch[:0], components.V2(t.X, t.Y), r*1.5)
		for _, s := range w.scratch {
			drawOrientedTriangle(s.X, s.Y, t.Heading, r*k, color)
		}
	})
}

// DrawSelection rings the agent at p and, when vision > 0, outlines its
// vision radius.
func (w *WorldRenderer) DrawSelection(p components.Vec2, scale, vision float32, pulse float32) {
	k := w.cam.Scale()
	ring := rl.Color{R: 255, G: 255, B: 255, A: uint8(155 + 100*min(1, max(0, pulse)))}
	reach := max(vision, agentRadius*scale*2)
	w.scratch = w.cam.Copies(w.scratch[:0], p, reach)
	for _, s := range w.scratch {
		center := rl.Vector2{X: s.X, Y: s.Y}
		rl.DrawCircleLinesV(center, agentRadius*scale*k*2, ring)
		if vision > 0 {
			rl.DrawCircleLinesV(center, vision*k, rl.Color{R: 200, G: 220, B: 255, A: 70})
		}
	}
}

// drawOrientedTriangle draws a triangle pointing in the heading direction.
func drawOrientedTriangle(x, y, heading, radius float32, color rl.Color) {
	cos := float32(math.Cos(float64(heading)))
	sin := float32(math.Sin(float64(heading)))

	front := rl.Vector2{X: x + cos*radius*1.5, Y: y + sin*radius*1.5}

	backAngle := float64(heading) + math.Pi*0.8
	backLeft := rl.Vector2{
		X: x + float32(math.Cos(backAngle))*radius,
		Y: y + float32(math.Sin(backAngle))*radius,
	}
	backAngle = float64(heading) - math.Pi*0.8
	backRight := rl.Vector2{
		X: x + float32(math.Cos(backAngle))*radius,
		Y: y + float32(math.Sin(backAngle))*radius,
	}

	// Screen space has y down, so this order is counter-clockwise on screen.
	rl.DrawTriangle(front, backRight, backLeft, color)
}
