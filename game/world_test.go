package game

import (
	"math"
	"testing"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/telemetry"
)

func testConfig(mutate func(c *config.Config)) *config.Config {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

// quietConfig removes every source of random death so tests can reason
// about single agents.
func quietConfig(c *config.Config) {
	c.Feedback.BaseDeathProbability = 0
	c.Feedback.AgeDeathProbability = 0
	c.Feedback.DensityDeathProbability = 0
	c.Feedback.DiseaseProbabilityPerNeighbor = 0
	c.Environment.Patches = nil
}

func TestDeterminism(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.Seed = 42
		c.InitialPopulation = 30
		c.MaxPopulation = 200
	})
	a, b := NewWorld(cfg), NewWorld(cfg)

	for tick := 0; tick < 120; tick++ {
		ma, mb := a.Step(tick), b.Step(tick)
		if !ma.SameOutcome(mb) {
			t.Fatalf("tick %d diverged:\n  %+v\n  %+v", tick, ma, mb)
		}
	}
	if a.Metrics().Len() != 120 {
		t.Errorf("metrics len = %d, want 120", a.Metrics().Len())
	}
	agentsA, agentsB := a.Agents(), b.Agents()
	if len(agentsA) != len(agentsB) {
		t.Fatalf("population %d vs %d", len(agentsA), len(agentsB))
	}
	for i := range agentsA {
		if agentsA[i] != agentsB[i] {
			t.Fatalf("agent %d differs: %+v vs %+v", i, agentsA[i], agentsB[i])
		}
	}
}

func TestResetMatchesFreshWorld(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.Seed = 9
		c.InitialPopulation = 40
	})
	w := NewWorld(cfg)
	first := make([]float64, 0, 90)
	for tick := 0; tick < 90; tick++ {
		first = append(first, w.Step(tick).AverageEnergy)
	}

	w.Reset()
	if w.Metrics().Len() != 0 {
		t.Fatalf("metrics not cleared on reset: %d", w.Metrics().Len())
	}
	fresh := NewWorld(cfg)
	for tick := 0; tick < 90; tick++ {
		m := w.Step(tick)
		f := fresh.Step(tick)
		if !m.SameOutcome(f) {
			t.Fatalf("tick %d: reset world %+v, fresh world %+v", tick, m, f)
		}
		if m.AverageEnergy != first[tick] {
			t.Fatalf("tick %d: avg energy %v after reset, %v before", tick, m.AverageEnergy, first[tick])
		}
	}
}

func TestWorldsDoNotShareRandomness(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.InitialPopulation = 20 })
	a := NewWorld(cfg)
	b := NewWorld(cfg)
	noise := NewWorld(testConfig(func(c *config.Config) { c.Seed = 77 }))
	for tick := 0; tick < 30; tick++ {
		noise.Step(tick)
		if ma, mb := a.Step(tick), b.Step(tick); !ma.SameOutcome(mb) {
			t.Fatalf("tick %d: a third world perturbed the sequence", tick)
		}
	}
}

func TestPopulationBoundUnderFeedback(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.Seed = 123
		c.InitialPopulation = 50
		c.MaxPopulation = 150
		c.Feedback.DensitySoftCap = 6
		c.Feedback.DensityReproductionPenalty = 0.3
		c.Feedback.StressDrainPerNeighbor = 0.1
		c.Feedback.DiseaseProbabilityPerNeighbor = 0.002
	})
	w := NewWorld(cfg)
	for tick := 0; tick < 500; tick++ {
		m := w.Step(tick)
		if m.Population > cfg.MaxPopulation {
			t.Fatalf("tick %d: population %d exceeds max %d", tick, m.Population, cfg.MaxPopulation)
		}
	}
	last, _ := w.Metrics().Last()
	if last.Population < 5 || last.Population > 150 {
		t.Errorf("final population %d outside [5, 150]", last.Population)
	}
}

func TestDeathsCountedOnce(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.DT = 0.1
		c.InitialPopulation = 2
		c.Species.BaseSpeed = 0
		c.Species.MaxAcceleration = 0
		c.Species.MaxAge = 0.05
		c.Species.Metabolism = 0
		c.Species.ReproductionThreshold = 100
		c.Species.AdultAge = 999
	})
	w := NewWorld(cfg)

	m := w.Step(0)
	if m.Births != 0 || m.Deaths != 2 {
		t.Errorf("births=%d deaths=%d, want 0 and 2", m.Births, m.Deaths)
	}
	if len(w.Agents()) != 0 || m.Population != 0 {
		t.Errorf("agents left: %d (population %d)", len(w.Agents()), m.Population)
	}

	m = w.Step(1)
	if m.Deaths != 0 || m.Population != 0 {
		t.Errorf("second tick deaths=%d population=%d, want 0/0", m.Deaths, m.Population)
	}
	if m.AverageEnergy != 0 || m.AverageAge != 0 {
		t.Errorf("empty world averages = %v/%v, want 0", m.AverageEnergy, m.AverageAge)
	}
}

func TestEmptyWorldSteps(t *testing.T) {
	w := NewWorld(testConfig(func(c *config.Config) { c.InitialPopulation = 0 }))
	for tick := 0; tick < 5; tick++ {
		m := w.Step(tick)
		if m.Population != 0 || m.Groups != 0 || m.NeighborChecks != 0 {
			t.Fatalf("tick %d: %+v", tick, m)
		}
		if math.IsNaN(m.AverageEnergy) || math.IsNaN(m.AverageAge) {
			t.Fatalf("tick %d: NaN averages", tick)
		}
	}
}

func TestNewWorldPanicsOnBadCellSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for cell size 0")
		}
	}()
	NewWorld(testConfig(func(c *config.Config) { c.CellSize = 0 }))
}

func TestConfigSnapshotIsolated(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.InitialPopulation = 3 })
	w := NewWorld(cfg)
	cfg.Species.BaseSpeed = 1000
	cfg.Environment.Patches[0].Radius = 0
	if w.Config().Species.BaseSpeed == 1000 || w.Config().Environment.Patches[0].Radius == 0 {
		t.Error("world config changed with the caller's copy")
	}
}

func TestPositionsStayWrapped(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.Seed = 5
		c.InitialPopulation = 60
	})
	w := NewWorld(cfg)
	for tick := 0; tick < 200; tick++ {
		w.Step(tick)
		for _, a := range w.Agents() {
			p := a.Position
			if p.X < 0 || p.X >= cfg.WorldSize || p.Y < 0 || p.Y >= cfg.WorldSize {
				t.Fatalf("tick %d: agent %d at %v outside the world", tick, a.ID, p)
			}
			if s := a.Velocity.Len(); s > cfg.Species.BaseSpeed*1.0001 {
				t.Fatalf("tick %d: agent %d speed %v above base speed", tick, a.ID, s)
			}
			if !p.IsFinite() || !a.Velocity.IsFinite() {
				t.Fatalf("tick %d: agent %d has non-finite state", tick, a.ID)
			}
		}
	}
}

func TestIDsUniqueAndIndexed(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.Seed = 11
		c.InitialPopulation = 80
		c.Species.AdultAge = 0.5
		c.Species.InitialEnergyFraction = 1.2
		c.Feedback.ReproductionBaseChance = 1
	})
	w := NewWorld(cfg)
	seen := make(map[uint64]bool)
	for tick := 0; tick < 60; tick++ {
		w.Step(tick)
		for _, a := range w.Agents() {
			got, ok := w.Find(a.ID)
			if !ok || got.ID != a.ID {
				t.Fatalf("tick %d: Find(%d) missed", tick, a.ID)
			}
			seen[a.ID] = true
		}
	}
	if len(seen) <= 80 {
		t.Errorf("expected births to mint new ids, saw %d", len(seen))
	}
	if _, ok := w.Find(1 << 40); ok {
		t.Error("Find on unknown id reported found")
	}
}

func TestFleeFromDangerField(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 1
		c.Species.VisionRadius = 0
		c.Species.WanderJitter = 0
	})
	w := NewWorld(cfg)
	w.agents[0].Position = components.V2(50.1, 50.1)
	w.agents[0].Velocity = components.Vec2{}
	w.Environment().AddDanger(components.V2(50.1, 50.1), 1)
	w.Environment().AddDanger(components.V2(53, 50.1), 5) // one cell east

	w.Step(0)

	a := w.Agents()[0]
	if a.State != components.StateFlee {
		t.Errorf("state = %v, want Flee", a.State)
	}
	if a.Velocity.LenSq() == 0 {
		t.Fatal("velocity still zero")
	}
	if a.Velocity.X >= 0 {
		t.Errorf("velocity %v should point west, away from the stronger danger", a.Velocity)
	}
}

func TestFleeFromFlatDangerPicksSomeDirection(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 1
		c.Species.VisionRadius = 0
		c.Species.WanderJitter = 0
	})
	w := NewWorld(cfg)
	w.agents[0].Velocity = components.Vec2{}
	w.Environment().AddDanger(w.agents[0].Position, 3)

	w.Step(0)

	a := w.Agents()[0]
	if a.State != components.StateFlee || a.Velocity.LenSq() == 0 {
		t.Errorf("state=%v velocity=%v, want Flee with nonzero velocity", a.State, a.Velocity)
	}
}

func TestRivalGroupsRepel(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 2
		c.Feedback.InitialGroups = 2
		c.Feedback.GroupFormationWarmup = float32(math.Inf(1))
	})
	w := NewWorld(cfg)
	w.agents[0].Position = components.V2(50, 50)
	w.agents[1].Position = components.V2(51, 50)
	for i := range w.agents {
		w.agents[i].Velocity = components.Vec2{}
	}

	w.Step(0)

	a, b := w.Agents()[0], w.Agents()[1]
	if a.State != components.StateFlee || b.State != components.StateFlee {
		t.Fatalf("states %v/%v, want both Flee", a.State, b.State)
	}
	if a.Velocity.X >= 0 || b.Velocity.X <= 0 {
		t.Errorf("velocities %v / %v should point apart", a.Velocity, b.Velocity)
	}
}

func TestReproduction(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 1
		c.Feedback.ReproductionBaseChance = 1
		c.Feedback.GroupBirthSeedChance = 0
	})
	w := NewWorld(cfg)
	w.agents[0].Energy = 30
	w.agents[0].Age = 10

	m := w.Step(0)
	if m.Births != 1 || m.Population != 2 {
		t.Fatalf("births=%d population=%d, want 1 and 2", m.Births, m.Population)
	}
	parent, child := w.Agents()[0], w.Agents()[1]
	if child.Generation != 1 || child.ID != 1 || child.Age != 0 {
		t.Errorf("child = %+v", child)
	}
	if child.State != components.StateWander || child.GroupID != components.Ungrouped {
		t.Errorf("child state=%v group=%d", child.State, child.GroupID)
	}
	// parent paid the child's share plus the birth cost
	want := child.Energy - cfg.Species.BirthEnergyCost
	if math.Abs(float64(parent.Energy-want)) > 1e-4 {
		t.Errorf("parent energy %v, want %v", parent.Energy, want)
	}
}

func TestReproductionRespectsMaxPopulation(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 3
		c.MaxPopulation = 3
		c.Feedback.ReproductionBaseChance = 1
	})
	w := NewWorld(cfg)
	for i := range w.agents {
		w.agents[i].Energy = 30
		w.agents[i].Age = 10
	}
	if m := w.Step(0); m.Births != 0 || m.Population != 3 {
		t.Errorf("births=%d population=%d at the cap", m.Births, m.Population)
	}
}

func TestBootstrapAges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		lo, hi float32
	}{
		{"unset max uses adult age", func(c *config.Config) {}, 0, 8},
		{"unset max uses half max age", func(c *config.Config) { c.Species.MaxAge = 3 }, 0, 1.5},
		{"explicit range", func(c *config.Config) {
			c.Species.InitialAgeMin = 2
			c.Species.InitialAgeMax = 4
		}, 2, 4},
		{"explicit max clamped to max age", func(c *config.Config) {
			c.Species.MaxAge = 3
			c.Species.InitialAgeMax = 10
		}, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld(testConfig(func(c *config.Config) {
				c.InitialPopulation = 50
				tt.mutate(c)
			}))
			lo, hi := float32(math.MaxFloat32), float32(0)
			for _, a := range w.Agents() {
				if a.Age < tt.lo || a.Age > tt.hi {
					t.Fatalf("agent %d age %v outside [%v, %v]", a.ID, a.Age, tt.lo, tt.hi)
				}
				lo, hi = min(lo, a.Age), max(hi, a.Age)
			}
			if math.Abs(float64(hi-lo)) < 1e-3 {
				t.Errorf("ages all near %v, want a spread", lo)
			}
		})
	}
}

// Two rivals 0.9 apart with vision 1 see each other only through pre-tick
// positions: either one moving first pushes them out of range. A third
// agent in the same field cell must not see the danger they emit until the
// pass is over.
func TestAgentOrderDoesNotChangeTick(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 3
		c.Species.VisionRadius = 1
		c.Feedback.InitialGroups = 2
		c.Feedback.GroupFormationWarmup = float32(math.Inf(1))
		c.Environment.DangerPulseOnFlee = 1
	})
	build := func(swap bool) *World {
		w := NewWorld(cfg)
		w.agents[0].Position, w.agents[0].Velocity = components.V2(51, 51), components.V2(-6, 0)
		w.agents[1].Position, w.agents[1].Velocity = components.V2(51.9, 51), components.V2(6, 0)
		w.agents[2].Position, w.agents[2].Velocity = components.V2(52.3, 52.3), components.Vec2{}
		w.agents[2].GroupID = w.agents[0].GroupID
		if swap {
			w.agents[0], w.agents[1] = w.agents[1], w.agents[0]
		}
		return w
	}

	tests := []struct {
		name string
		swap bool
	}{
		{"listed order", false},
		{"swapped order", true},
	}
	var results []*World
	var metrics []telemetry.TickMetrics
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := build(tt.swap)
			if w.Environment().HasDanger() {
				t.Fatal("danger field not empty before the tick")
			}
			m := w.Step(0)
			if m.NeighborChecks != 2 {
				t.Errorf("neighbor checks = %d, want 2", m.NeighborChecks)
			}
			for _, id := range []uint64{0, 1} {
				if a, _ := w.Find(id); a.State != components.StateFlee {
					t.Errorf("agent %d state = %v, want Flee", id, a.State)
				}
			}
			bystander, _ := w.Find(2)
			if bystander.State == components.StateFlee {
				t.Error("bystander fled from danger emitted during the same pass")
			}
			if got := w.Environment().SampleDanger(bystander.Position); got <= dangerSenseLevel {
				t.Errorf("danger at bystander after the tick = %v, want above %v", got, dangerSenseLevel)
			}
			results = append(results, w)
			metrics = append(metrics, m)
		})
	}
	if len(results) != 2 {
		t.FailNow()
	}
	if !metrics[0].SameOutcome(metrics[1]) {
		t.Errorf("metrics differ by order:\n%+v\n%+v", metrics[0], metrics[1])
	}
	for id := uint64(0); id < 3; id++ {
		a, _ := results[0].Find(id)
		b, _ := results[1].Find(id)
		if a != b {
			t.Errorf("agent %d differs by order:\n%+v\n%+v", id, a, b)
		}
	}
}
