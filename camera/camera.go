// Package camera provides a 2D camera over the square toroidal world.
package camera

import (
	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/systems"
)

// Camera controls the viewport into the simulation world.
// Supports pan and zoom with toroidal world wrapping.
type Camera struct {
	// Center is the camera center in world coordinates
	Center components.Vec2

	// Zoom relative to the fit scale (1 = whole world fits the short axis)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World edge length (for toroidal wrapping)
	World float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world at zoom 1.
func New(viewportW, viewportH, world float32) *Camera {
	return &Camera{
		Center:    components.V2(world/2, world/2),
		Zoom:      1,
		ViewportW: viewportW,
		ViewportH: viewportH,
		World:     world,
		MinZoom:   1,
		MaxZoom:   8,
	}
}

// Scale returns screen pixels per world unit.
func (c *Camera) Scale() float32 {
	return min(c.ViewportW, c.ViewportH) / c.World * c.Zoom
}

// delta is the shortest offset from the camera center to p.
func (c *Camera) delta(p components.Vec2) components.Vec2 {
	dx, dy := systems.ToroidalDelta(c.Center.X, c.Center.Y, p.X, p.Y, c.World, c.World)
	return components.V2(dx, dy)
}

// WorldToScreen converts world coordinates to screen coordinates using
// the nearest toroidal copy of p.
func (c *Camera) WorldToScreen(p components.Vec2) components.Vec2 {
	d := c.delta(p).Scale(c.Scale())
	return components.V2(c.ViewportW/2+d.X, c.ViewportH/2+d.Y)
}

// ScreenToWorld converts screen coordinates to wrapped world coordinates.
func (c *Camera) ScreenToWorld(s components.Vec2) components.Vec2 {
	k := c.Scale()
	return components.V2(
		systems.Wrap(c.Center.X+(s.X-c.ViewportW/2)/k, c.World),
		systems.Wrap(c.Center.Y+(s.Y-c.ViewportH/2)/k, c.World),
	)
}

// halfExtent is half the visible area in world units.
func (c *Camera) halfExtent() (float32, float32) {
	k := c.Scale()
	return c.ViewportW / (2 * k), c.ViewportH / (2 * k)
}

// IsVisible returns true if a circle at p with the given world radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(p components.Vec2, radius float32) bool {
	d := c.delta(p)
	halfW, halfH := c.halfExtent()
	return abs(d.X) <= halfW+radius && abs(d.Y) <= halfH+radius
}

// Copies appends to dst the screen positions of every toroidal copy of p
// that is visible, nearest copy first. At low zoom the view can be wider
// than the world, so one point may appear more than once.
func (c *Camera) Copies(dst []components.Vec2, p components.Vec2, radius float32) []components.Vec2 {
	d := c.delta(p)
	halfW, halfH := c.halfExtent()
	k := c.Scale()

	offsets := [...]float32{0, -c.World, c.World}
	for _, ox := range offsets {
		x := d.X + ox
		if abs(x) > halfW+radius {
			continue
		}
		for _, oy := range offsets {
			y := d.Y + oy
			if abs(y) > halfH+radius {
				continue
			}
			dst = append(dst, components.V2(c.ViewportW/2+x*k, c.ViewportH/2+y*k))
		}
	}
	return dst
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
// Automatically wraps around world boundaries.
func (c *Camera) Pan(dx, dy float32) {
	k := c.Scale()
	c.Center = components.V2(
		systems.Wrap(c.Center.X+dx/k, c.World),
		systems.Wrap(c.Center.Y+dy/k, c.World),
	)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = systems.Clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// screen position s fixed.
func (c *Camera) ZoomAt(s components.Vec2, factor float32) {
	anchor := c.ScreenToWorld(s)
	c.SetZoom(c.Zoom * factor)
	after := c.ScreenToWorld(s)
	d := c.delta(anchor).Sub(c.delta(after))
	c.Center = components.V2(
		systems.Wrap(c.Center.X+d.X, c.World),
		systems.Wrap(c.Center.Y+d.Y, c.World),
	)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.Center = components.V2(c.World/2, c.World/2)
	c.Zoom = 1
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
