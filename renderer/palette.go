// Package renderer draws the world, its fields and its agents with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/preview"
)

// Background is the clear color behind the world.
var Background = rl.Color{R: 12, G: 16, B: 20, A: 255}

// AgentColor returns the body color for an appearance. brightness in
// [0, 1] dims the color, usually with the agent's energy.
func AgentColor(app components.Appearance, brightness float32) rl.Color {
	sat := float32(0.75)
	if !app.Grouped {
		sat = 0.25
	}
	v := 0.45 + 0.55*min(1, max(0, brightness))
	return rl.ColorFromHSV(app.Hue*360, sat, v)
}

// FoodColor shades a food cell by fill ratio.
func FoodColor(ratio float32) rl.Color {
	return rl.Color{R: 40, G: 150, B: 70, A: alpha(ratio, 170)}
}

// DangerColor shades a danger cell by intensity.
func DangerColor(ratio float32) rl.Color {
	return rl.Color{R: 210, G: 50, B: 40, A: alpha(ratio, 190)}
}

// PheromoneColor tints a pheromone cell with its group's hue.
func PheromoneColor(group int32, ratio float32) rl.Color {
	c := rl.ColorFromHSV(preview.GroupHue(group)*360, 0.6, 0.9)
	c.A = alpha(ratio, 120)
	return c
}

func alpha(ratio float32, peak float32) uint8 {
	return uint8(min(1, max(0, ratio)) * peak)
}
