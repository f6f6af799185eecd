package game

import "github.com/pthm-cable/terrarium/components"

type groupCount struct {
	id int32
	n  int
}

// countGroup tallies one neighbor's group. The tally keeps first-seen
// order so that majority ties resolve the same way on every run.
func (w *World) countGroup(id int32) {
	for k := range w.tally {
		if w.tally[k].id == id {
			w.tally[k].n++
			return
		}
	}
	w.tally = append(w.tally, groupCount{id: id, n: 1})
}

// majority returns the first group with the strictly highest count.
func (w *World) majority() (int32, int) {
	best, count := components.Ungrouped, 0
	for _, t := range w.tally {
		if t.n > count {
			best, count = t.id, t.n
		}
	}
	return best, count
}

// updateGroups runs formation, adoption and splitting for agent i against
// its current neighbor list. Recruits of a newly formed group are other
// agents, so later agents in the same tick see the new membership.
func (w *World) updateGroups(i int, canForm bool) {
	if !w.groupsEnabled {
		return
	}
	a := &w.agents[i]
	original := a.GroupID

	w.ungrouped = w.ungrouped[:0]
	w.tally = w.tally[:0]
	same := 0
	for _, n := range w.neighbors {
		g := w.agents[n.idx].GroupID
		if g == components.Ungrouped {
			w.ungrouped = append(w.ungrouped, n.idx)
			continue
		}
		if a.Grouped() && g == a.GroupID {
			same++
		}
		w.countGroup(g)
	}
	majority, count := w.majority()

	if canForm {
		w.tryForm(i)
		if a.GroupID == original {
			w.tryAdopt(i, majority, count)
		}
	}
	w.trySplit(i, same, canForm)
}

func (w *World) tryForm(i int) {
	a := &w.agents[i]
	fb := &w.cfg.Feedback
	if a.Grouped() || len(w.ungrouped) < fb.GroupFormationThreshold {
		return
	}
	if w.rng.Float32() >= fb.GroupFormationChance {
		return
	}
	g := w.newGroupID()
	a.GroupID = g
	recruits := min(len(w.ungrouped), fb.GroupFormationThreshold+2)
	for _, j := range w.ungrouped[:recruits] {
		w.agents[j].GroupID = g
	}
}

func (w *World) tryAdopt(i int, majority int32, count int) {
	a := &w.agents[i]
	fb := &w.cfg.Feedback
	if majority == components.Ungrouped || a.GroupID == majority {
		return
	}
	if count < fb.GroupAdoptionThreshold {
		return
	}
	if w.rng.Float32() < fb.GroupAdoptionChance {
		a.GroupID = majority
	}
}

func (w *World) trySplit(i int, same int, canForm bool) {
	a := &w.agents[i]
	fb := &w.cfg.Feedback
	if !a.Grouped() || same < fb.GroupSplitThreshold || a.Stress < fb.GroupSplitStressThreshold {
		return
	}
	if w.rng.Float32() >= fb.GroupSplitChance {
		return
	}
	if canForm && w.rng.Float32() < fb.GroupSplitNewGroupChance {
		a.GroupID = w.newGroupID()
	} else {
		a.GroupID = components.Ungrouped
	}
}

// childGroup picks a newborn's group. Ungrouped parents may seed a new
// group once formation is allowed; grouped parents occasionally drift to
// an adjacent id. Drift is independent of the formation warmup, so with
// group dynamics disabled ids change by mutation alone.
func (w *World) childGroup(parent int32, canForm bool) int32 {
	fb := &w.cfg.Feedback
	if parent == components.Ungrouped {
		if canForm && w.rng.Float32() < fb.GroupBirthSeedChance {
			return w.newGroupID()
		}
		return components.Ungrouped
	}
	if w.rng.Float32() < fb.GroupMutationChance {
		g := parent + int32(w.rng.Intn(3)) - 1
		if g < 0 {
			g = -g
		}
		if fb.GroupMutationModulus > 0 {
			g %= fb.GroupMutationModulus
		}
		return g
	}
	return parent
}
