package game

import (
	"math"
	"testing"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/systems"
)

func TestEventQueue(t *testing.T) {
	cfg := testConfig(quietConfig)
	env := systems.NewEnvironmentGrid(cfg)
	pos := components.V2(10, 10)

	var q eventQueue
	q.food(pos, 2)
	q.food(pos, 1.5)
	q.food(pos, 0)
	q.danger(pos, -1)
	q.danger(pos, 0.75)
	q.pheromone(pos, components.Ungrouped, 4)
	q.pheromone(pos, 2, 4)

	if q.len() != 4 {
		t.Fatalf("queued %d events, want 4", q.len())
	}
	q.apply(env)
	if q.len() != 0 {
		t.Errorf("queue not drained: %d", q.len())
	}

	if got := env.PeekFood(pos); math.Abs(float64(got-3.5)) > 1e-6 {
		t.Errorf("food = %v, want 3.5", got)
	}
	if got := env.SampleDanger(pos); got != 0.75 {
		t.Errorf("danger = %v, want 0.75", got)
	}
	if got := env.SamplePheromone(pos, 2); got != 4 {
		t.Errorf("pheromone = %v, want 4", got)
	}
}

func TestDeathReturnsFood(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.DT = 0.1
		c.InitialPopulation = 1
		c.Species.BaseSpeed = 0
		c.Species.MaxAcceleration = 0
		c.Species.MaxAge = 0.05
		c.Environment.FoodRegenPerSecond = 0
		c.Environment.FoodDiffusionRate = 0
		c.Environment.FoodDecayRate = 0
		c.Environment.FoodFromDeath = 5
	})
	w := NewWorld(cfg)
	pos := w.Agents()[0].Position

	w.Step(0)

	if len(w.Agents()) != 0 {
		t.Fatal("agent survived past max age")
	}
	// sampled at 8, ate 0.5, then 5 back capped at the cell max
	cell, ok := w.Environment().FoodCellAt(w.Environment().KeyOf(pos))
	if !ok {
		t.Fatal("food cell missing")
	}
	if cell.Value != cfg.Environment.FoodPerCell {
		t.Errorf("food = %v, want %v", cell.Value, cfg.Environment.FoodPerCell)
	}
}
