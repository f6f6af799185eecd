package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawTitle draws a panel title and returns the new Y position.
func (r *Renderer) DrawTitle(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.TitleFontSize, r.Theme.Title)
	return y + r.Theme.LineHeight + 4
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

func (r *Renderer) drawBar(x, y int32, label string, ratio float32, fill rl.Color, text string, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 56

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*ratio), r.Theme.BarHeight, fill)
	rl.DrawText(text, barX+barWidth+6, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawBar draws a progress bar for value over rng.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, rng FieldRange, width int32) int32 {
	return r.drawBar(x, y, label, rng.Normalize(value), r.Theme.BarFill, fmt.Sprintf("%.2f", value), width)
}

// DrawEnergyBar draws an energy bar colored by how full it is.
func (r *Renderer) DrawEnergyBar(x, y int32, label string, current, maxValue float32, width int32) int32 {
	ratio := FieldRange{Max: maxValue}.Normalize(current)
	fill := r.Theme.BarFillHigh
	switch {
	case ratio < 0.3:
		fill = r.Theme.BarFillLow
	case ratio < 0.6:
		fill = r.Theme.BarFillMedium
	}
	return r.drawBar(x, y, label, ratio, fill, fmt.Sprintf("%.1f", current), width)
}

// DrawColorSwatch draws a color swatch.
func (r *Renderer) DrawColorSwatch(x, y int32, label string, color rl.Color) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(x+r.Theme.LabelWidth, y+1, 12, 12, color)
	return y + r.Theme.LineHeight
}

// DrawField renders one field of data and returns the new Y position.
func DrawField[T any](r *Renderer, x, y int32, fd FieldDescriptor[T], data *T, width int32) int32 {
	value := func() float32 {
		if fd.Getter == nil {
			return 0
		}
		return fd.Getter(data)
	}

	switch fd.Widget {
	case WidgetText:
		var text string
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		} else if fd.Getter != nil {
			text = fmt.Sprintf(fd.Format, fd.Getter(data))
		}
		return r.DrawLabelValue(x, y, fd.Label, text)
	case WidgetBar:
		return r.DrawBar(x, y, fd.Label, value(), fd.Range, width)
	case WidgetEnergyBar:
		limit := fd.Range.Max
		if fd.MaxGetter != nil {
			limit = fd.MaxGetter(data)
		}
		return r.DrawEnergyBar(x, y, fd.Label, value(), limit, width)
	case WidgetColorSwatch:
		color := r.Theme.ValueColor
		if fd.ColorGetter != nil {
			color = fd.ColorGetter(data)
		}
		return r.DrawColorSwatch(x, y, fd.Label, color)
	case WidgetSpacer:
		return y + 6
	}
	return y
}

// DrawSection renders a section header and its visible fields.
func DrawSection[T any](r *Renderer, x, y int32, sd SectionDescriptor[T], data *T, width int32) int32 {
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		if fd.Visible != nil && !fd.Visible(data) {
			continue
		}
		y = DrawField(r, x, y, fd, data, width)
	}
	return y + 4
}

// PanelHeight returns the height DrawPanelDescriptor will use for data.
func PanelHeight[T any](r *Renderer, pd PanelDescriptor[T], data *T) int32 {
	h := r.Theme.Padding * 2
	if pd.Title != "" {
		h += r.Theme.LineHeight + 4
	}
	for _, sd := range pd.Sections {
		if sd.Title != "" {
			h += r.Theme.LineHeight
		}
		for _, fd := range sd.Fields {
			if fd.Visible != nil && !fd.Visible(data) {
				continue
			}
			switch fd.Widget {
			case WidgetBar, WidgetEnergyBar:
				h += r.Theme.LineHeight + 2
			case WidgetSpacer:
				h += 6
			default:
				h += r.Theme.LineHeight
			}
		}
		h += 4
	}
	return h
}

// DrawPanelDescriptor draws a full panel at (x, y) and returns its bottom edge.
func DrawPanelDescriptor[T any](r *Renderer, x, y int32, pd PanelDescriptor[T], data *T) int32 {
	r.DrawPanel(x, y, pd.Width, PanelHeight(r, pd, data))
	inner := pd.Width - r.Theme.Padding*2
	cx := x + r.Theme.Padding
	cy := y + r.Theme.Padding
	if pd.Title != "" {
		cy = r.DrawTitle(cx, cy, pd.Title)
	}
	for _, sd := range pd.Sections {
		cy = DrawSection(r, cx, cy, sd, data, inner)
	}
	return cy + r.Theme.Padding
}
