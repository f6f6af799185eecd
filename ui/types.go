// Package ui provides a descriptor-driven UI for the viewer.
// Panels are described as data (sections of fields with getters) and drawn
// by a shared Renderer, so adding a readout means adding a descriptor.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field should be rendered.
type WidgetType int

const (
	WidgetText        WidgetType = iota // Plain text with format string
	WidgetBar                           // Progress bar over Range
	WidgetColorSwatch                   // Color preview square
	WidgetEnergyBar                     // Bar with low/medium/high colors
	WidgetSpacer                        // Vertical spacing
)

// FieldRange defines the value range for bar widgets.
type FieldRange struct {
	Min float32
	Max float32
}

// DefaultRange returns a [0, 1] range.
func DefaultRange() FieldRange {
	return FieldRange{Min: 0, Max: 1}
}

// Normalize maps v into [0, 1] over the range.
func (r FieldRange) Normalize(v float32) float32 {
	span := r.Max - r.Min
	if span <= 0 {
		return 0
	}
	return min(1, max(0, (v-r.Min)/span))
}

// FieldDescriptor defines how to display a single value of T.
type FieldDescriptor[T any] struct {
	Label       string
	Widget      WidgetType
	Format      string // Printf format for numeric text
	Range       FieldRange
	Visible     func(*T) bool // nil = always visible
	Getter      func(*T) float32
	MaxGetter   func(*T) float32 // overrides Range.Max for energy bars
	TextGetter  func(*T) string
	ColorGetter func(*T) rl.Color
}

// SectionDescriptor groups fields under a header.
type SectionDescriptor[T any] struct {
	Title  string
	Fields []FieldDescriptor[T]
}

// PanelDescriptor is a complete panel layout.
type PanelDescriptor[T any] struct {
	Title    string
	Width    int32
	Sections []SectionDescriptor[T]
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	Title          rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	MutedColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillLow     rl.Color
	BarFillMedium  rl.Color
	BarFillHigh    rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
	TitleFontSize  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 230},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		Title:          rl.White,
		SectionHeader:  rl.Color{R: 230, G: 200, B: 90, A: 255},
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		MutedColor:     rl.Gray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillLow:     rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillMedium:  rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:    rl.Color{R: 100, G: 200, B: 100, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      10,
		FontSize:       12,
		HeaderFontSize: 14,
		TitleFontSize:  16,
	}
}
