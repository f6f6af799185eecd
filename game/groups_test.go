package game

import (
	"math"
	"testing"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
)

func clusterAt(w *World, x, y float32) {
	for i := range w.agents {
		w.agents[i].Position = components.V2(x+float32(i%2)*0.5, y+float32(i/2)*0.5)
		w.agents[i].Velocity = components.Vec2{}
	}
}

func TestGroupFormation(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 4
		c.Feedback.GroupFormationWarmup = 0
		c.Feedback.GroupFormationThreshold = 2
		c.Feedback.GroupFormationChance = 1
	})
	w := NewWorld(cfg)
	clusterAt(w, 40, 40)

	m := w.Step(0)

	if m.Groups != 1 {
		t.Errorf("groups = %d, want 1", m.Groups)
	}
	for _, a := range w.Agents() {
		if a.GroupID != 0 {
			t.Errorf("agent %d in group %d, want 0", a.ID, a.GroupID)
		}
	}
}

func TestGroupFormationWaitsForWarmup(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 4
		c.DT = 0.1
		c.Feedback.GroupFormationWarmup = 1
		c.Feedback.GroupFormationThreshold = 2
		c.Feedback.GroupFormationChance = 1
	})
	w := NewWorld(cfg)
	clusterAt(w, 40, 40)

	if m := w.Step(0); m.Groups != 0 {
		t.Fatalf("formed %d groups before the warmup elapsed", m.Groups)
	}
	clusterAt(w, 40, 40)
	if m := w.Step(10); m.Groups != 1 {
		t.Errorf("groups after warmup = %d, want 1", m.Groups)
	}
}

func TestGroupAdoption(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.InitialPopulation = 3
		c.Feedback.GroupFormationWarmup = 0
		c.Feedback.GroupFormationThreshold = 100
		c.Feedback.GroupAdoptionThreshold = 2
		c.Feedback.GroupAdoptionChance = 1
	})
	w := NewWorld(cfg)
	clusterAt(w, 60, 20)
	w.agents[1].GroupID = 3
	w.agents[2].GroupID = 3

	m := w.Step(0)

	if got := w.Agents()[0].GroupID; got != 3 {
		t.Errorf("agent 0 group = %d, want 3", got)
	}
	if m.Groups != 1 {
		t.Errorf("groups = %d, want 1", m.Groups)
	}
}

func TestMajorityTieKeepsFirstSeen(t *testing.T) {
	w := NewWorld(testConfig(func(c *config.Config) { c.InitialPopulation = 0 }))
	for _, g := range []int32{5, 2, 2, 5} {
		w.countGroup(g)
	}
	g, n := w.majority()
	if g != 5 || n != 2 {
		t.Errorf("majority = (%d, %d), want (5, 2)", g, n)
	}

	w.tally = w.tally[:0]
	if g, n := w.majority(); g != components.Ungrouped || n != 0 {
		t.Errorf("empty majority = (%d, %d)", g, n)
	}
}

func TestChildGroup(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.InitialPopulation = 0
		c.Feedback.GroupMutationChance = 1
		c.Feedback.GroupMutationModulus = 8
		c.Feedback.GroupBirthSeedChance = 1
	})

	tests := []struct {
		name   string
		parent int32
		want   []int32
	}{
		{"interior", 7, []int32{6, 7, 0}},
		{"zero reflects", 0, []int32{0, 1}},
		{"middle", 3, []int32{2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld(cfg)
			seen := make(map[int32]bool)
			for range 60 {
				g := w.childGroup(tt.parent, false)
				ok := false
				for _, want := range tt.want {
					ok = ok || g == want
				}
				if !ok {
					t.Fatalf("childGroup(%d) = %d, want one of %v", tt.parent, g, tt.want)
				}
				seen[g] = true
			}
			if len(seen) != len(tt.want) {
				t.Errorf("saw %v, want all of %v", seen, tt.want)
			}
		})
	}

	t.Run("ungrouped parent", func(t *testing.T) {
		w := NewWorld(cfg)
		if g := w.childGroup(components.Ungrouped, false); g != components.Ungrouped {
			t.Errorf("seeded group %d before formation is allowed", g)
		}
		if g := w.childGroup(components.Ungrouped, true); g != 0 {
			t.Errorf("first seeded group = %d, want 0", g)
		}
		if g := w.childGroup(components.Ungrouped, true); g != 1 {
			t.Errorf("second seeded group = %d, want 1", g)
		}
	})
}

func TestMutationOnlyVariant(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		quietConfig(c)
		c.Seed = 3
		c.InitialPopulation = 20
		c.MaxPopulation = 200
		c.Species.AdultAge = 0.5
		c.Species.InitialEnergyFraction = 1.2
		c.Feedback.InitialGroups = 2
		c.Feedback.GroupFormationWarmup = float32(math.Inf(1))
		c.Feedback.ReproductionBaseChance = 1
		c.Feedback.GroupMutationChance = 1
		c.Feedback.GroupMutationModulus = 8
		c.Feedback.GroupSplitChance = 1
		c.Feedback.GroupSplitStressThreshold = 0
		c.Feedback.GroupSplitThreshold = 0
	})
	w := NewWorld(cfg)
	if w.groupsEnabled {
		t.Fatal("group dynamics enabled with an infinite warmup")
	}

	births := 0
	for tick := 0; tick < 90; tick++ {
		births += w.Step(tick).Births
		for _, a := range w.Agents() {
			if !a.Grouped() {
				t.Fatalf("tick %d: agent %d left its group with dynamics disabled", tick, a.ID)
			}
			if a.GroupID >= 8 {
				t.Fatalf("tick %d: group %d outside the mutation modulus", tick, a.GroupID)
			}
		}
	}
	if births == 0 {
		t.Fatal("no births; mutation never exercised")
	}
}

func TestReproductionChance(t *testing.T) {
	w := NewWorld(testConfig(func(c *config.Config) {
		c.InitialPopulation = 0
		c.Feedback.DensitySoftCap = 8
		c.Feedback.DensityReproductionPenalty = 0.6
		c.Feedback.DensityReproductionSlope = 0.02
		c.Feedback.ReproductionBaseChance = 0.25
	}))

	tests := []struct {
		neighbors int
		want      float32
	}{
		{0, 0.25},
		{8, 0.25},
		{10, 0.25 * 0.56},
		{100, 0},
	}
	for _, tt := range tests {
		got := w.reproductionChance(tt.neighbors)
		if math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("reproductionChance(%d) = %v, want %v", tt.neighbors, got, tt.want)
		}
	}
}
