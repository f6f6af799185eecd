package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/systems"
)

// Snapshot is the read-only view of one tick that viewers consume.
type Snapshot struct {
	Tick      int                 `json:"tick"`
	WorldSize float32             `json:"world_size"`
	Metrics   TickMetrics         `json:"metrics"`
	Agents    []AgentState        `json:"agents"`
	Food      []systems.CellValue `json:"food,omitempty"`
}

// AgentState is one agent as a viewer sees it.
type AgentState struct {
	ID      uint64  `json:"id"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	VX      float32 `json:"vx"`
	VY      float32 `json:"vy"`
	Heading float32 `json:"heading"`
	Energy  float32 `json:"energy"`
	Age     float32 `json:"age"`
	Size    float32 `json:"size"`
	Group   int32   `json:"group"`
	State   string  `json:"state"`
	Alive   bool    `json:"alive"`
}

// SnapshotSource is what a snapshot is built from. *game.World satisfies it.
type SnapshotSource interface {
	Agents() []components.Agent
	Metrics() *MetricsBuffer
	Environment() *systems.EnvironmentGrid
}

// NewSnapshot captures src after its most recent tick. Food cells are
// included only when withFood is set.
func NewSnapshot(src SnapshotSource, worldSize float32, withFood bool) Snapshot {
	agents := src.Agents()
	s := Snapshot{
		WorldSize: worldSize,
		Agents:    make([]AgentState, 0, len(agents)),
	}
	if m, ok := src.Metrics().Last(); ok {
		s.Tick = m.Tick
		s.Metrics = m
	}
	for i := range agents {
		a := &agents[i]
		s.Agents = append(s.Agents, AgentState{
			ID:      a.ID,
			X:       a.Position.X,
			Y:       a.Position.Y,
			VX:      a.Velocity.X,
			VY:      a.Velocity.Y,
			Heading: a.Velocity.Heading(),
			Energy:  a.Energy,
			Age:     a.Age,
			Size:    a.Size(),
			Group:   a.GroupID,
			State:   a.State.String(),
			Alive:   a.Alive,
		})
	}
	if withFood {
		s.Food = src.Environment().FoodCells()
	}
	return s
}

// SaveSnapshot writes s as indented JSON into dir and returns the path.
func SaveSnapshot(s *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", s.Tick))

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
