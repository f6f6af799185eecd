package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/preview"
)

// ControlsResult reports the one-shot actions taken this frame.
type ControlsResult struct {
	Reset    bool
	StepOnce bool
}

// ControlsPanel renders run controls and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool { return c.visible }

// SetPosition moves the panel.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Contains reports whether a screen point is over the panel.
func (c *ControlsPanel) Contains(p rl.Vector2, overlays *OverlayRegistry) bool {
	if !c.visible {
		return false
	}
	return p.X >= float32(c.x) && p.X <= float32(c.x+c.width) &&
		p.Y >= float32(c.y) && p.Y <= float32(c.y+c.height(overlays))
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	t := c.renderer.Theme
	rows := int32(overlays.Len() + len(overlays.Categories()))
	return t.Padding*2 + t.LineHeight + 4 + 30 + 10 + 18 + 24 + rows*(t.LineHeight+4)
}

// Draw renders the panel, applies pause and speed changes to d, and
// toggles overlays.
func (c *ControlsPanel) Draw(d *preview.Driver, overlays *OverlayRegistry) ControlsResult {
	var res ControlsResult
	if !c.visible {
		return res
	}

	r := c.renderer
	t := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))

	x := float32(c.x + t.Padding)
	y := c.y + t.Padding
	inner := float32(c.width - t.Padding*2)
	y = r.DrawTitle(int32(x), y, "Controls")

	third := (inner - 10) / 3
	label := "Pause"
	if d.Paused() {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: third, Height: 24}, label) {
		d.TogglePause()
	}
	if gui.Button(rl.Rectangle{X: x + third + 5, Y: float32(y), Width: third, Height: 24}, "Step") {
		res.StepOnce = true
	}
	if gui.Button(rl.Rectangle{X: x + 2*(third+5), Y: float32(y), Width: third, Height: 24}, "Reset") {
		res.Reset = true
	}
	y += 30 + 10

	rl.DrawText(fmt.Sprintf("Speed %.1fx", d.Speed()), int32(x), y, t.FontSize, t.LabelColor)
	y += 18
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 24, Y: float32(y), Width: inner - 48, Height: 16},
		fmt.Sprintf("%.1f", preview.MinSpeed), fmt.Sprintf("%.0f", preview.MaxSpeed),
		d.Speed(), preview.MinSpeed, preview.MaxSpeed,
	)
	if speed != d.Speed() {
		d.SetSpeed(speed)
	}
	y += 24

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), int32(x), y, t.HeaderFontSize, t.SectionHeader)
		y += t.LineHeight + 4
		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			text := desc.Name
			if desc.KeyLabel != "" {
				text = fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
			}
			checked := gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 12, Height: 12}, text, enabled)
			if checked != enabled {
				overlays.SetEnabled(desc.ID, checked)
			}
			y += t.LineHeight + 4
		}
	}
	return res
}

func categoryLabel(cat string) string {
	switch cat {
	case "fields":
		return "Fields"
	case "debug":
		return "Debug"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
