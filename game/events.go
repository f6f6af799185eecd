package game

import (
	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/systems"
)

type eventKind uint8

const (
	eventFood eventKind = iota
	eventDanger
	eventPheromone
)

type fieldEvent struct {
	kind   eventKind
	pos    components.Vec2
	group  int32
	amount float32
}

// eventQueue collects field deposits made during the agent pass. They are
// applied in queue order once every agent has been processed, so no agent
// reacts to another's death, alarm or scent in the same tick.
type eventQueue struct {
	items []fieldEvent
}

func (q *eventQueue) reset() { q.items = q.items[:0] }

func (q *eventQueue) len() int { return len(q.items) }

func (q *eventQueue) food(pos components.Vec2, amount float32) {
	if amount > 0 {
		q.items = append(q.items, fieldEvent{kind: eventFood, pos: pos, amount: amount})
	}
}

func (q *eventQueue) danger(pos components.Vec2, amount float32) {
	if amount > 0 {
		q.items = append(q.items, fieldEvent{kind: eventDanger, pos: pos, amount: amount})
	}
}

func (q *eventQueue) pheromone(pos components.Vec2, group int32, amount float32) {
	if amount > 0 && group != components.Ungrouped {
		q.items = append(q.items, fieldEvent{kind: eventPheromone, pos: pos, group: group, amount: amount})
	}
}

func (q *eventQueue) apply(env *systems.EnvironmentGrid) {
	for _, e := range q.items {
		switch e.kind {
		case eventFood:
			env.AddFood(e.pos, e.amount)
		case eventDanger:
			env.AddDanger(e.pos, e.amount)
		case eventPheromone:
			env.AddPheromone(e.pos, e.group, e.amount)
		}
	}
	q.reset()
}
