package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayFood      OverlayID = "food"
	OverlayDanger    OverlayID = "danger"
	OverlayPheromone OverlayID = "pheromone"
	OverlayGrid      OverlayID = "grid"
	OverlayVision    OverlayID = "vision"
	OverlayPerf      OverlayID = "perf"
	OverlayStats     OverlayID = "stats"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // 0 = no key
	KeyLabel    string // e.g. "F"
	Category    string
	Exclusive   []OverlayID // disabled when this one is enabled
	Default     bool
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the standard overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayFood,
		Name:        "Food",
		Description: "Shade cells by available food",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "fields",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayDanger,
		Name:        "Danger",
		Description: "Shade cells by danger level",
		Key:         rl.KeyD,
		KeyLabel:    "D",
		Category:    "fields",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPheromone,
		Name:        "Pheromones",
		Description: "Tint cells by the strongest group pheromone",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "fields",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayGrid,
		Name:        "Cell Grid",
		Description: "Draw field cell boundaries",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayVision,
		Name:        "Vision",
		Description: "Show the selected agent's vision radius",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "debug",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Perf",
		Description: "Per-phase tick timing",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "panels",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Stats",
		Description: "Latest window summary",
		Key:         rl.KeyS,
		KeyLabel:    "S",
		Category:    "panels",
		Default:     true,
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays of category in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// Len returns the number of registered overlays.
func (r *OverlayRegistry) Len() int { return len(r.descriptors) }

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
