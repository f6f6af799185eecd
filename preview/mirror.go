// Package preview mirrors the live population into an ECS world that a
// renderer can query, and paces a session against wall-clock frames.
package preview

import (
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/systems"
)

// Palette is the number of distinct group hues.
const Palette = 8

// ungroupedHue is the hue of agents without a group.
const ungroupedHue = 0.08

// Mirror keeps one ECS entity per live agent, keyed by agent id.
type Mirror struct {
	world *ecs.World

	mapper *ecs.Map3[components.Transform, components.Appearance, components.AgentRef]
	filter *ecs.Filter3[components.Transform, components.Appearance, components.AgentRef]

	transformMap  *ecs.Map1[components.Transform]
	appearanceMap *ecs.Map1[components.Appearance]
	refMap        *ecs.Map1[components.AgentRef]

	entities map[uint64]ecs.Entity
	live     map[uint64]struct{}
	stale    []uint64
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	world := ecs.NewWorld()
	return &Mirror{
		world: world,
		mapper: ecs.NewMap3[
			components.Transform,
			components.Appearance,
			components.AgentRef,
		](world),
		filter: ecs.NewFilter3[
			components.Transform,
			components.Appearance,
			components.AgentRef,
		](world),
		transformMap:  ecs.NewMap1[components.Transform](world),
		appearanceMap: ecs.NewMap1[components.Appearance](world),
		refMap:        ecs.NewMap1[components.AgentRef](world),
		entities:      make(map[uint64]ecs.Entity),
		live:          make(map[uint64]struct{}),
	}
}

// TransformOf maps an agent to its render transform.
func TransformOf(a *components.Agent) components.Transform {
	return components.Transform{
		X:       a.Position.X,
		Y:       a.Position.Y,
		Heading: a.Velocity.Heading(),
		Scale:   a.Size(),
	}
}

// GroupHue maps a group id to a hue in [0, 1). Groups that share a
// residue modulo Palette share a hue.
func GroupHue(group int32) float32 {
	if group == components.Ungrouped {
		return ungroupedHue
	}
	g := group % Palette
	if g < 0 {
		g += Palette
	}
	return float32(g) / Palette
}

// AppearanceOf maps an agent's group to its display hue.
func AppearanceOf(a *components.Agent) components.Appearance {
	return components.Appearance{Hue: GroupHue(a.GroupID), Grouped: a.Grouped()}
}

// Sync brings the mirror in line with agents: live agents are created or
// updated, and entities of dead or vanished agents are removed.
func (m *Mirror) Sync(agents []components.Agent) {
	clear(m.live)
	for i := range agents {
		a := &agents[i]
		if !a.Alive {
			continue
		}
		m.live[a.ID] = struct{}{}

		t := TransformOf(a)
		app := AppearanceOf(a)
		ref := components.AgentRef{ID: a.ID, State: a.State, Energy: a.Energy}

		if e, ok := m.entities[a.ID]; ok {
			*m.transformMap.Get(e) = t
			*m.appearanceMap.Get(e) = app
			*m.refMap.Get(e) = ref
			continue
		}
		m.entities[a.ID] = m.mapper.NewEntity(&t, &app, &ref)
	}

	// Removal order is fixed so entity storage stays reproducible.
	m.stale = m.stale[:0]
	for id := range m.entities {
		if _, ok := m.live[id]; !ok {
			m.stale = append(m.stale, id)
		}
	}
	slices.Sort(m.stale)
	for _, id := range m.stale {
		m.mapper.Remove(m.entities[id])
		delete(m.entities, id)
	}
}

// Len returns the number of mirrored agents.
func (m *Mirror) Len() int { return len(m.entities) }

// Lookup returns the mirrored components of agent id.
func (m *Mirror) Lookup(id uint64) (components.Transform, components.Appearance, bool) {
	e, ok := m.entities[id]
	if !ok || !m.world.Alive(e) {
		return components.Transform{}, components.Appearance{}, false
	}
	return *m.transformMap.Get(e), *m.appearanceMap.Get(e), true
}

// Each calls fn for every mirrored agent.
func (m *Mirror) Each(fn func(t *components.Transform, app *components.Appearance, ref *components.AgentRef)) {
	query := m.filter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

// Nearest returns the id of the mirrored agent closest to p on a torus of
// edge world, if one lies within maxDist. Ties go to the lower id.
func (m *Mirror) Nearest(p components.Vec2, world, maxDist float32) (uint64, bool) {
	var (
		bestID uint64
		bestD2 = maxDist * maxDist
		found  bool
	)
	m.Each(func(t *components.Transform, _ *components.Appearance, ref *components.AgentRef) {
		dx, dy := systems.ToroidalDelta(p.X, p.Y, t.X, t.Y, world, world)
		d2 := dx*dx + dy*dy
		if d2 > bestD2 || (found && d2 == bestD2 && ref.ID > bestID) {
			return
		}
		bestID, bestD2, found = ref.ID, d2, true
	})
	return bestID, found
}

// Clear removes every entity.
func (m *Mirror) Clear() {
	m.Sync(nil)
}
