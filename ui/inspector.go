package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/preview"
	"github.com/pthm-cable/terrarium/renderer"
)

// InspectedAgent is the data shown by the inspector.
type InspectedAgent struct {
	Agent     components.Agent
	EnergyCap float32 // bar scale, usually the species soft cap
	BaseSpeed float32
}

// Inspector shows the selected agent in a side panel.
type Inspector struct {
	renderer *Renderer
	panel    PanelDescriptor[InspectedAgent]
	x, y     int32
}

// NewInspector creates an inspector anchored at (x, y).
func NewInspector(x, y int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		panel:    agentPanel(),
		x:        x,
		y:        y,
	}
}

// SetPosition moves the panel.
func (i *Inspector) SetPosition(x, y int32) {
	i.x = x
	i.y = y
}

// Width returns the panel width.
func (i *Inspector) Width() int32 { return i.panel.Width }

// Draw renders the panel for data and returns its bottom edge.
func (i *Inspector) Draw(data *InspectedAgent) int32 {
	return DrawPanelDescriptor(i.renderer, i.x, i.y, i.panel, data)
}

func agentPanel() PanelDescriptor[InspectedAgent] {
	return PanelDescriptor[InspectedAgent]{
		Title: "Agent",
		Width: 240,
		Sections: []SectionDescriptor[InspectedAgent]{
			{
				Fields: []FieldDescriptor[InspectedAgent]{
					{Label: "ID", Widget: WidgetText, TextGetter: func(d *InspectedAgent) string {
						return fmt.Sprintf("%d", d.Agent.ID)
					}},
					{Label: "Gen", Widget: WidgetText, TextGetter: func(d *InspectedAgent) string {
						return fmt.Sprintf("%d", d.Agent.Generation)
					}},
					{Label: "State", Widget: WidgetText, TextGetter: func(d *InspectedAgent) string {
						return d.Agent.State.String()
					}},
				},
			},
			{
				Title: "Group",
				Fields: []FieldDescriptor[InspectedAgent]{
					{Label: "ID", Widget: WidgetText, TextGetter: func(d *InspectedAgent) string {
						if !d.Agent.Grouped() {
							return "none"
						}
						return fmt.Sprintf("%d", d.Agent.GroupID)
					}},
					{Label: "Color", Widget: WidgetColorSwatch, ColorGetter: func(d *InspectedAgent) rl.Color {
						return renderer.AgentColor(preview.AppearanceOf(&d.Agent), 1)
					}},
				},
			},
			{
				Title: "Vitals",
				Fields: []FieldDescriptor[InspectedAgent]{
					{Label: "Energy", Widget: WidgetEnergyBar, Getter: func(d *InspectedAgent) float32 {
						return d.Agent.Energy
					}, MaxGetter: func(d *InspectedAgent) float32 {
						return d.EnergyCap
					}, Visible: func(d *InspectedAgent) bool { return d.EnergyCap > 0 }},
					{Label: "Energy", Widget: WidgetText, Format: "%.2f", Getter: func(d *InspectedAgent) float32 {
						return d.Agent.Energy
					}, Visible: func(d *InspectedAgent) bool { return d.EnergyCap <= 0 }},
					{Label: "Stress", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d *InspectedAgent) float32 {
						return d.Agent.Stress
					}},
					{Label: "Age", Widget: WidgetText, Format: "%.1fs", Getter: func(d *InspectedAgent) float32 {
						return d.Agent.Age
					}},
				},
			},
			{
				Title: "Motion",
				Fields: []FieldDescriptor[InspectedAgent]{
					{Label: "Pos", Widget: WidgetText, TextGetter: func(d *InspectedAgent) string {
						return fmt.Sprintf("%.1f, %.1f", d.Agent.Position.X, d.Agent.Position.Y)
					}},
					{Label: "Speed", Widget: WidgetText, TextGetter: func(d *InspectedAgent) string {
						return fmt.Sprintf("%.2f / %.1f", d.Agent.Velocity.Len(), d.BaseSpeed)
					}},
				},
			},
		},
	}
}
