// Package game implements the simulation stepper: the per-tick pipeline
// that moves, feeds, breeds and kills agents over the environment fields.
package game

import (
	"time"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/systems"
	"github.com/pthm-cable/terrarium/telemetry"
)

type neighborRef struct {
	idx    int
	offset components.Vec2
}

// World owns the population, the fields and the RNG of one simulation.
// It is single-threaded: Step, Reset and the accessors must not be called
// concurrently.
type World struct {
	cfg  *config.Config
	rng  *systems.Rng
	grid *systems.SpatialGrid
	env  *systems.EnvironmentGrid

	agents []components.Agent
	index  map[uint64]int
	births []components.Agent
	events eventQueue

	metrics telemetry.MetricsBuffer
	perf    *telemetry.PerfCollector

	nextID        uint64
	nextGroupID   int32
	groupsEnabled bool

	// per-tick scratch
	neighbors  []neighborRef
	ungrouped  []int
	tally      []groupCount
	velocities []components.Vec2
	liveGroups map[int32]struct{}
}

// NewWorld builds a world from a snapshot of cfg and bootstraps the
// initial population. cfg is not validated beyond the cell size; run
// config.Validate first. Panics if cfg.CellSize <= 0.
func NewWorld(cfg *config.Config) *World {
	if !(cfg.CellSize > 0) {
		panic("game: cell size must be positive")
	}
	c := cfg.Clone()
	c.ComputeDerived()

	w := &World{
		cfg:           c,
		rng:           systems.NewRng(c.Seed),
		grid:          systems.NewSpatialGrid(c.CellSize, c.WorldSize),
		env:           systems.NewEnvironmentGrid(c),
		index:         make(map[uint64]int),
		groupsEnabled: c.GroupDynamicsEnabled(),
		liveGroups:    make(map[int32]struct{}),
	}
	w.bootstrap()
	return w
}

// Reset restores the state a fresh NewWorld with the same config would
// have. Metrics are cleared.
func (w *World) Reset() {
	w.rng.Reset(w.cfg.Seed)
	w.env.Reset()
	w.grid.Clear()
	w.agents = w.agents[:0]
	w.births = w.births[:0]
	w.events.reset()
	w.metrics.Clear()
	w.nextID = 0
	w.nextGroupID = 0
	w.bootstrap()
}

func (w *World) bootstrap() {
	sp := &w.cfg.Species
	size := w.cfg.WorldSize
	k := w.cfg.Feedback.InitialGroups

	for i := 0; i < w.cfg.InitialPopulation; i++ {
		pos := components.V2(
			systems.Wrap(w.rng.Range(0, size), size),
			systems.Wrap(w.rng.Range(0, size), size),
		)
		vel := w.rng.UnitCircle().Scale(sp.BaseSpeed * 0.3)
		age := w.initialAge()
		group := components.Ungrouped
		if k > 0 {
			group = int32(i) % k
		}
		w.agents = append(w.agents, components.Agent{
			ID:       w.nextID,
			GroupID:  group,
			Position: pos,
			Velocity: vel,
			Energy:   w.cfg.Derived.InitialEnergy,
			Age:      age,
			State:    components.StateWander,
			Alive:    true,
		})
		w.nextID++
	}
	if k > 0 {
		w.nextGroupID = k
	}
	w.refreshIndex()
}

// initialAge draws a bootstrap age. An unset initial_age_max falls back to
// min(adult_age, max_age/2); the range is clamped to [0, max_age].
func (w *World) initialAge() float32 {
	sp := &w.cfg.Species
	lo := max(0, sp.InitialAgeMin)
	hi := sp.InitialAgeMax
	if hi <= 0 {
		hi = min(sp.AdultAge, sp.MaxAge*0.5)
	}
	hi = max(0, min(hi, sp.MaxAge))
	if hi < lo {
		lo, hi = hi, lo
	}
	return w.rng.Range(lo, hi)
}

// Config returns the world's configuration snapshot. It must not be modified.
func (w *World) Config() *config.Config { return w.cfg }

// Agents returns the live population in index order. The slice is owned by
// the world and is invalidated by the next Step or Reset.
func (w *World) Agents() []components.Agent { return w.agents }

// Metrics returns the tick log.
func (w *World) Metrics() *telemetry.MetricsBuffer { return &w.metrics }

// Environment returns the field grid.
func (w *World) Environment() *systems.EnvironmentGrid { return w.env }

// SetPerf attaches a phase timer. nil detaches it.
func (w *World) SetPerf(p *telemetry.PerfCollector) { w.perf = p }

// Find returns the agent with the given id.
func (w *World) Find(id uint64) (components.Agent, bool) {
	i, ok := w.lookup(id)
	if !ok {
		return components.Agent{}, false
	}
	return w.agents[i], true
}

// lookup resolves an id through the index map. A miss, or an index that no
// longer points at that id, reports false.
func (w *World) lookup(id uint64) (int, bool) {
	i, ok := w.index[id]
	if !ok || i < 0 || i >= len(w.agents) || w.agents[i].ID != id {
		return 0, false
	}
	return i, true
}

func (w *World) refreshIndex() {
	clear(w.index)
	for i := range w.agents {
		w.index[w.agents[i].ID] = i
	}
}

func (w *World) newGroupID() int32 {
	g := w.nextGroupID
	w.nextGroupID++
	return g
}

// Step advances the world by one tick of cfg.DT and returns the metrics it
// appended. tick is the caller's 0-based tick index; tick*dt is the
// simulated time used for the group formation warmup.
func (w *World) Step(tick int) telemetry.TickMetrics {
	start := time.Now()
	w.perf.StartTick()

	dt := w.cfg.DT
	w.events.reset()
	simTime := float64(tick) * float64(dt)
	canForm := w.groupsEnabled && simTime >= float64(w.cfg.Feedback.GroupFormationWarmup)

	// Neighbors are resolved against positions and velocities from before
	// anyone moves this tick.
	w.perf.StartPhase(telemetry.PhaseSpatialGrid)
	w.refreshIndex()
	w.grid.Clear()
	w.velocities = w.velocities[:0]
	for i := range w.agents {
		w.grid.Insert(w.agents[i].ID, w.agents[i].Position)
		w.velocities = append(w.velocities, w.agents[i].Velocity)
	}

	w.perf.StartPhase(telemetry.PhaseAgents)
	births, checks := 0, 0
	pulse := w.cfg.Environment.DangerPulseOnFlee
	for i := range w.agents {
		if !w.agents[i].Alive {
			continue
		}
		w.gatherNeighbors(i)
		checks += len(w.neighbors)

		w.updateGroups(i, canForm)
		desired, sensed := w.desiredVelocity(i)
		w.integrate(i, desired)
		births += w.lifecycle(i, len(w.neighbors), canForm)

		a := &w.agents[i]
		if pulse > 0 && (a.State == components.StateFlee || sensed) {
			w.events.danger(a.Position, pulse)
		}
	}

	w.perf.StartPhase(telemetry.PhaseFieldEvents)
	w.events.apply(w.env)

	w.perf.StartPhase(telemetry.PhaseEnvironment)
	w.pruneExtinctPheromones()
	w.env.Tick(dt)

	w.perf.StartPhase(telemetry.PhaseBirths)
	w.agents = append(w.agents, w.births...)
	w.births = w.births[:0]

	w.perf.StartPhase(telemetry.PhaseCleanup)
	deaths := w.removeDead()
	w.refreshIndex()

	w.perf.StartPhase(telemetry.PhaseMetrics)
	m := w.aggregate(tick, births, deaths, checks)
	w.perf.EndTick()
	m.TickDurationMs = float64(time.Since(start).Microseconds()) / 1000
	w.metrics.Append(m)
	return m
}

func (w *World) gatherNeighbors(i int) {
	self := &w.agents[i]
	w.neighbors = w.neighbors[:0]
	for _, n := range w.grid.Neighbors(self.Position, w.cfg.Species.VisionRadius) {
		if n.ID == self.ID {
			continue
		}
		j, ok := w.lookup(n.ID)
		if !ok || !w.agents[j].Alive {
			continue
		}
		w.neighbors = append(w.neighbors, neighborRef{idx: j, offset: n.Offset})
	}
}

func (w *World) integrate(i int, desired components.Vec2) {
	a := &w.agents[i]
	sp := &w.cfg.Species
	dt := w.cfg.DT
	size := w.cfg.WorldSize

	accel := desired.Sub(a.Velocity).ClampLength(sp.MaxAcceleration)
	a.Velocity = a.Velocity.Add(accel.Scale(dt)).ClampLength(sp.BaseSpeed)
	a.Position = components.V2(
		systems.Wrap(a.Position.X+a.Velocity.X*dt, size),
		systems.Wrap(a.Position.Y+a.Velocity.Y*dt, size),
	)
	a.Age += dt
}

// removeDead compacts the population in place, keeping survivor order.
func (w *World) removeDead() int {
	kept := w.agents[:0]
	for _, a := range w.agents {
		if a.Alive {
			kept = append(kept, a)
		}
	}
	deaths := len(w.agents) - len(kept)
	clear(w.agents[len(kept):])
	w.agents = kept
	return deaths
}

func (w *World) pruneExtinctPheromones() {
	clear(w.liveGroups)
	for i := range w.agents {
		if a := &w.agents[i]; a.Alive && a.Grouped() {
			w.liveGroups[a.GroupID] = struct{}{}
		}
	}
	for i := range w.births {
		if w.births[i].Grouped() {
			w.liveGroups[w.births[i].GroupID] = struct{}{}
		}
	}
	w.env.PrunePheromones(func(g int32) bool {
		_, ok := w.liveGroups[g]
		return ok
	})
}

func (w *World) aggregate(tick, births, deaths, checks int) telemetry.TickMetrics {
	var energy, age float64
	clear(w.liveGroups)
	for i := range w.agents {
		a := &w.agents[i]
		energy += float64(a.Energy)
		age += float64(a.Age)
		if a.Grouped() {
			w.liveGroups[a.GroupID] = struct{}{}
		}
	}
	m := telemetry.TickMetrics{
		Tick:           tick,
		Population:     len(w.agents),
		Births:         births,
		Deaths:         deaths,
		Groups:         len(w.liveGroups),
		NeighborChecks: checks,
	}
	if n := len(w.agents); n > 0 {
		m.AverageEnergy = energy / float64(n)
		m.AverageAge = age / float64(n)
	}
	return m
}
