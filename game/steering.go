package game

import (
	"github.com/pthm-cable/terrarium/components"
)

const (
	dangerSenseLevel = 0.1  // danger above this triggers fleeing
	conflictDistSq   = 4.0  // rival group members closer than 2 units repel
	fleeMinLenSq     = 1e-3 // flee vectors shorter than this are ignored
	flatGradLenSq    = 1e-4 // gradients shorter than this have no direction
	activeFoodGrad   = 0.01 // food gradient strong enough to forage toward
)

// desiredVelocity picks agent i's behavior and returns the velocity it
// steers toward, plus whether it sensed danger. Flee overrides every other
// term. Otherwise one primary behavior is chosen and separation, alignment
// and danger avoidance are added on top.
func (w *World) desiredVelocity(i int) (components.Vec2, bool) {
	a := &w.agents[i]
	sp := &w.cfg.Species
	base := sp.BaseSpeed

	var flee components.Vec2
	sensed := false
	if level := w.env.SampleDanger(a.Position); level > dangerSenseLevel {
		sensed = true
		grad := w.dangerGradient(a.Position)
		if grad.LenSq() < flatGradLenSq {
			grad = w.rng.UnitCircle()
		}
		flee = flee.Sub(grad.Normalized().Scale(base * min(1, level)))
	}
	for _, n := range w.neighbors {
		o := &w.agents[n.idx]
		rival := a.Grouped() && o.Grouped() && o.GroupID != a.GroupID
		if rival && n.offset.LenSq() < conflictDistSq {
			flee = flee.Sub(n.offset.Normalized().Scale(base))
			sensed = true
		}
	}
	if flee.LenSq() > fleeMinLenSq {
		a.State = components.StateFlee
		return flee, sensed
	}

	foodHere := w.env.SampleFood(a.Position)
	foodGrad := w.foodGradient(a.Position)
	var pherGrad components.Vec2
	if a.Grouped() {
		pherGrad = w.pheromoneGradient(a.Position, a.GroupID)
	}
	foodBias := bias(foodGrad)
	pherBias := bias(pherGrad)
	dangerBias := bias(w.dangerGradient(a.Position))

	var desired components.Vec2
	switch {
	case a.Energy < sp.ReproductionThreshold*0.6 ||
		foodHere > w.cfg.Environment.FoodPerCell*0.5 ||
		foodGrad.LenSq() > activeFoodGrad:
		a.State = components.StateSeekingFood
		desired = foodBias.Scale(base * 0.4).
			Add(w.rng.UnitCircle().Scale(base * 0.25))
	case a.Energy > sp.ReproductionThreshold && a.Age > sp.AdultAge:
		a.State = components.StateSeekingMate
		desired = w.cohesion().Scale(base * 0.8).
			Add(pherBias.Scale(base * 0.25))
	default:
		a.State = components.StateWander
		desired = w.rng.UnitCircle().Scale(base * sp.WanderJitter).
			Add(pherBias.Scale(base * 0.15))
	}

	desired = desired.
		Add(w.separation().Scale(base * 1.2)).
		Add(w.alignment(a.GroupID).Scale(base * 0.3)).
		Sub(dangerBias.Scale(base * 0.2))
	return desired, sensed
}

func bias(grad components.Vec2) components.Vec2 {
	if grad.LenSq() <= flatGradLenSq {
		return components.Vec2{}
	}
	return grad.Normalized()
}

// separation pushes away from every neighbor with inverse-square weight.
func (w *World) separation() components.Vec2 {
	var acc components.Vec2
	for _, n := range w.neighbors {
		acc = acc.Sub(n.offset.Scale(1 / max(n.offset.LenSq(), 0.1)))
	}
	return acc.Normalized()
}

// alignment is the mean pre-tick velocity of same-group neighbors.
func (w *World) alignment(group int32) components.Vec2 {
	if group == components.Ungrouped {
		return components.Vec2{}
	}
	var acc components.Vec2
	count := 0
	for _, n := range w.neighbors {
		if w.agents[n.idx].GroupID != group {
			continue
		}
		acc = acc.Add(w.velocities[n.idx])
		count++
	}
	if count == 0 {
		return components.Vec2{}
	}
	return acc.Scale(1 / float32(count)).Normalized()
}

// cohesion points at the centroid of the neighbors.
func (w *World) cohesion() components.Vec2 {
	if len(w.neighbors) == 0 {
		return components.Vec2{}
	}
	var c components.Vec2
	for _, n := range w.neighbors {
		c = c.Add(n.offset)
	}
	return c.Scale(1 / float32(len(w.neighbors))).Normalized()
}

// Gradients are central differences one field cell to each side:
// (right-left, up-down).

func (w *World) foodGradient(p components.Vec2) components.Vec2 {
	s := w.env.CellSize()
	return components.V2(
		w.env.PeekFood(p.Add(components.V2(s, 0)))-w.env.PeekFood(p.Add(components.V2(-s, 0))),
		w.env.PeekFood(p.Add(components.V2(0, s)))-w.env.PeekFood(p.Add(components.V2(0, -s))),
	)
}

func (w *World) dangerGradient(p components.Vec2) components.Vec2 {
	s := w.env.CellSize()
	return components.V2(
		w.env.SampleDanger(p.Add(components.V2(s, 0)))-w.env.SampleDanger(p.Add(components.V2(-s, 0))),
		w.env.SampleDanger(p.Add(components.V2(0, s)))-w.env.SampleDanger(p.Add(components.V2(0, -s))),
	)
}

func (w *World) pheromoneGradient(p components.Vec2, group int32) components.Vec2 {
	s := w.env.CellSize()
	return components.V2(
		w.env.SamplePheromone(p.Add(components.V2(s, 0)), group)-w.env.SamplePheromone(p.Add(components.V2(-s, 0)), group),
		w.env.SamplePheromone(p.Add(components.V2(0, s)), group)-w.env.SamplePheromone(p.Add(components.V2(0, -s)), group),
	)
}
