package game

import (
	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/systems"
)

// lifecycle applies metabolism, crowding, feeding, reproduction, hazard
// and death checks to agent i, which has n neighbors this tick. It
// returns the number of children queued (0 or 1).
func (w *World) lifecycle(i, n int, canForm bool) int {
	a := &w.agents[i]
	sp := &w.cfg.Species
	fb := &w.cfg.Feedback
	dt := w.cfg.DT
	crowd := float32(n)

	metabolism := sp.Metabolism*dt + a.Velocity.Len()*0.05*dt
	metabolism += max(0, a.Energy-sp.EnergySoftCap) * sp.HighEnergyMetabolismSlope * dt
	stressDrain := crowd * fb.StressDrainPerNeighbor * dt
	a.Energy -= metabolism + stressDrain + a.Stress*dt

	if n > fb.DensitySoftCap {
		a.Stress += 0.1 * dt
		if w.rng.Float32() < crowd*fb.DiseaseProbabilityPerNeighbor*dt {
			w.kill(i)
			return 0
		}
	} else {
		a.Stress = max(0, a.Stress-0.05*dt)
	}

	// Food is the one field that changes mid-tick: agents later in index
	// order see what earlier agents ate.
	if avail := w.env.SampleFood(a.Position); avail > 0 {
		a.Energy += w.env.ConsumeFood(a.Position, min(avail, w.cfg.Environment.ConsumptionRate*dt))
	}

	born := 0
	if a.Energy > sp.ReproductionThreshold && a.Age > sp.AdultAge &&
		len(w.agents)+len(w.births) < w.cfg.MaxPopulation {
		if w.rng.Float32() < w.reproductionChance(n) {
			w.spawnChild(i, canForm)
			born = 1
		}
	}

	hazard := min(1, (fb.BaseDeathProbability+a.Age*fb.AgeDeathProbability+crowd*fb.DensityDeathProbability)*dt)
	if hazard > 0 && w.rng.Float32() < hazard {
		w.kill(i)
		return born
	}

	if a.Energy <= 0 || a.Age >= sp.MaxAge {
		w.kill(i)
	}
	return born
}

// reproductionChance is the base chance scaled down once the agent has
// more neighbors than the density soft cap.
func (w *World) reproductionChance(n int) float32 {
	fb := &w.cfg.Feedback
	factor := float32(1)
	if n > fb.DensitySoftCap {
		excess := float32(n - fb.DensitySoftCap)
		factor = systems.Clamp01(fb.DensityReproductionPenalty - excess*fb.DensityReproductionSlope)
	}
	return systems.Clamp01(fb.ReproductionBaseChance * factor)
}

// spawnChild queues a child of agent i. The parent pays half its energy
// plus the birth cost. An ungrouped parent joins a group its child seeds.
func (w *World) spawnChild(i int, canForm bool) {
	a := &w.agents[i]
	size := w.cfg.WorldSize

	childEnergy := a.Energy * 0.5
	a.Energy -= childEnergy + w.cfg.Species.BirthEnergyCost

	group := w.childGroup(a.GroupID, canForm)
	if !a.Grouped() && group != components.Ungrouped {
		a.GroupID = group
	}

	offset := w.rng.UnitCircle().Scale(0.5)
	w.births = append(w.births, components.Agent{
		ID:         w.nextID,
		Generation: a.Generation + 1,
		GroupID:    group,
		Position: components.V2(
			systems.Wrap(a.Position.X+offset.X, size),
			systems.Wrap(a.Position.Y+offset.Y, size),
		),
		Velocity: a.Velocity,
		Energy:   childEnergy,
		State:    components.StateWander,
		Alive:    true,
	})
	w.nextID++

	if group != components.Ungrouped {
		w.events.pheromone(a.Position, group, w.cfg.Environment.PheromoneDepositOnBirth)
	}
}

// kill marks agent i dead and queues its remains as food. It stays in the
// slice until the end of the tick.
func (w *World) kill(i int) {
	a := &w.agents[i]
	a.Alive = false
	w.events.food(a.Position, w.cfg.Environment.FoodFromDeath)
}
