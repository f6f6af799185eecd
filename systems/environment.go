package systems

import (
	"math"

	"github.com/pthm-cable/terrarium/components"
	"github.com/pthm-cable/terrarium/config"
)

// FoodCell is one tracked food cell. 0 <= Value <= Max.
type FoodCell struct {
	Value float32
	Max   float32
	Regen float32 // per second
}

// CellValue is a field cell exported for viewers.
type CellValue struct {
	X     int32   `json:"x"`
	Y     int32   `json:"y"`
	Value float32 `json:"value"`
	Group int32   `json:"group,omitempty"`
}

// EnvironmentGrid holds the food, danger and per-group pheromone fields.
// All three share one cell size. When the world size is positive, cell
// keys wrap so the fields live on the same torus as the agents.
type EnvironmentGrid struct {
	cellSize float32
	cols     int32

	defaultMax   float32
	defaultRegen float32
	envCfg       config.EnvironmentConfig

	food      map[CellKey]*FoodCell
	danger    Field
	pheromone map[int32]Field

	diff      diffuser
	foodVals  Field
	groupKeys []int32
}

// NewEnvironmentGrid builds the fields for cfg and stamps its resource
// patches. Panics if cfg.CellSize <= 0.
func NewEnvironmentGrid(cfg *config.Config) *EnvironmentGrid {
	if !(cfg.CellSize > 0) {
		panic("systems: environment cell size must be positive")
	}
	e := &EnvironmentGrid{
		cellSize:     cfg.CellSize,
		defaultMax:   cfg.Environment.FoodPerCell,
		defaultRegen: cfg.Environment.FoodRegenPerSecond,
		envCfg:       cfg.Environment,
	}
	if cfg.WorldSize > 0 {
		e.cols = max(1, int32(math.Ceil(float64(cfg.WorldSize/cfg.CellSize))))
	}
	e.envCfg.Patches = append([]config.ResourcePatchConfig(nil), cfg.Environment.Patches...)
	e.diff.cols = e.cols
	e.Reset()
	return e
}

// Reset drops every field value and re-stamps the resource patches.
func (e *EnvironmentGrid) Reset() {
	e.food = make(map[CellKey]*FoodCell)
	e.danger = make(Field)
	e.pheromone = make(map[int32]Field)
	for _, p := range e.envCfg.Patches {
		e.stampPatch(p)
	}
}

// CellSize returns the field cell edge length.
func (e *EnvironmentGrid) CellSize() float32 { return e.cellSize }

// Cols returns the number of cells per axis, or 0 for an unbounded grid.
func (e *EnvironmentGrid) Cols() int32 { return e.cols }

// KeyOf returns the cell key containing pos.
func (e *EnvironmentGrid) KeyOf(pos components.Vec2) CellKey {
	k := CellKey{X: cellCoord(pos.X, e.cellSize), Y: cellCoord(pos.Y, e.cellSize)}
	if e.cols > 0 {
		k.X = wrapIndex(k.X, e.cols)
		k.Y = wrapIndex(k.Y, e.cols)
	}
	return k
}

func (e *EnvironmentGrid) wrapKey(k CellKey) CellKey {
	if e.cols > 0 {
		k.X = wrapIndex(k.X, e.cols)
		k.Y = wrapIndex(k.Y, e.cols)
	}
	return k
}

// stampPatch applies p to every cell whose center lies within p.Radius of
// the patch center. Overlaps keep the larger of each value.
func (e *EnvironmentGrid) stampPatch(p config.ResourcePatchConfig) {
	lo := CellKey{X: cellCoord(p.X-p.Radius, e.cellSize), Y: cellCoord(p.Y-p.Radius, e.cellSize)}
	hi := CellKey{X: cellCoord(p.X+p.Radius, e.cellSize), Y: cellCoord(p.Y+p.Radius, e.cellSize)}
	rsq := p.Radius * p.Radius
	initial := min(p.FoodPerCell, p.Initial)

	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			dx := (float32(cx)+0.5)*e.cellSize - p.X
			dy := (float32(cy)+0.5)*e.cellSize - p.Y
			if dx*dx+dy*dy > rsq {
				continue
			}
			k := e.wrapKey(CellKey{X: cx, Y: cy})
			if c, ok := e.food[k]; ok {
				c.Value = max(c.Value, initial)
				c.Max = max(c.Max, p.FoodPerCell)
				c.Regen = max(c.Regen, p.Regen)
				continue
			}
			e.food[k] = &FoodCell{Value: initial, Max: p.FoodPerCell, Regen: p.Regen}
		}
	}
}

func (e *EnvironmentGrid) foodCell(k CellKey, initial float32) *FoodCell {
	c, ok := e.food[k]
	if !ok {
		c = &FoodCell{Value: min(initial, e.defaultMax), Max: e.defaultMax, Regen: e.defaultRegen}
		e.food[k] = c
	}
	return c
}

// SampleFood returns the food at pos. An untouched cell is created at 80%
// of the default max first, so sampling is not read-only.
func (e *EnvironmentGrid) SampleFood(pos components.Vec2) float32 {
	return e.foodCell(e.KeyOf(pos), e.defaultMax*0.8).Value
}

// PeekFood returns the food at pos without creating a cell.
func (e *EnvironmentGrid) PeekFood(pos components.Vec2) float32 {
	if c, ok := e.food[e.KeyOf(pos)]; ok {
		return c.Value
	}
	return 0
}

// ConsumeFood removes up to amount from the cell at pos and returns what
// was actually removed.
func (e *EnvironmentGrid) ConsumeFood(pos components.Vec2, amount float32) float32 {
	if amount <= 0 {
		return 0
	}
	c := e.foodCell(e.KeyOf(pos), e.defaultMax*0.8)
	taken := min(amount, c.Value)
	c.Value -= taken
	return taken
}

// AddFood deposits amount at pos, capped at the cell max. A missing cell
// starts empty.
func (e *EnvironmentGrid) AddFood(pos components.Vec2, amount float32) {
	if amount <= 0 {
		return
	}
	c := e.foodCell(e.KeyOf(pos), 0)
	c.Value = min(c.Max, c.Value+amount)
}

// FoodCellAt returns a copy of the tracked cell at key.
func (e *EnvironmentGrid) FoodCellAt(k CellKey) (FoodCell, bool) {
	c, ok := e.food[e.wrapKey(k)]
	if !ok {
		return FoodCell{}, false
	}
	return *c, true
}

// SampleDanger returns the danger at pos.
func (e *EnvironmentGrid) SampleDanger(pos components.Vec2) float32 {
	return e.danger[e.KeyOf(pos)]
}

// AddDanger deposits amount of danger at pos.
func (e *EnvironmentGrid) AddDanger(pos components.Vec2, amount float32) {
	if amount <= 0 {
		return
	}
	e.danger[e.KeyOf(pos)] += amount
}

// HasDanger reports whether any danger cell is set.
func (e *EnvironmentGrid) HasDanger() bool { return len(e.danger) > 0 }

// SamplePheromone returns group's pheromone at pos.
func (e *EnvironmentGrid) SamplePheromone(pos components.Vec2, group int32) float32 {
	f, ok := e.pheromone[group]
	if !ok {
		return 0
	}
	return f[e.KeyOf(pos)]
}

// AddPheromone deposits amount of group's pheromone at pos.
func (e *EnvironmentGrid) AddPheromone(pos components.Vec2, group int32, amount float32) {
	if amount <= 0 || group == components.Ungrouped {
		return
	}
	f, ok := e.pheromone[group]
	if !ok {
		f = make(Field)
		e.pheromone[group] = f
	}
	f[e.KeyOf(pos)] += amount
}

// PrunePheromones drops the fields of every group not in active.
func (e *EnvironmentGrid) PrunePheromones(active func(group int32) bool) {
	for g := range e.pheromone {
		if !active(g) {
			delete(e.pheromone, g)
		}
	}
}

// Tick advances all fields by dt: food regen, then one diffusion-decay
// step per field whose rates are nonzero.
func (e *EnvironmentGrid) Tick(dt float32) {
	for _, c := range e.food {
		c.Value = min(c.Max, c.Value+c.Regen*dt)
	}

	env := &e.envCfg
	if env.FoodDiffusionRate > 0 || env.FoodDecayRate > 0 {
		e.diffuseFood(dt)
	}
	if env.DangerDiffusionRate > 0 || env.DangerDecayRate > 0 {
		e.diff.diffuseField(e.danger, env.DangerDiffusionRate, env.DangerDecayRate, dt)
	}
	if env.PheromoneDiffusionRate > 0 || env.PheromoneDecayRate > 0 {
		e.groupKeys = e.groupKeys[:0]
		for g := range e.pheromone {
			e.groupKeys = append(e.groupKeys, g)
		}
		for _, g := range e.groupKeys {
			f := e.pheromone[g]
			e.diff.diffuseField(f, env.PheromoneDiffusionRate, env.PheromoneDecayRate, dt)
			if len(f) == 0 {
				delete(e.pheromone, g)
			}
		}
	}
}

// diffuseFood runs the field step over food values. Cells that fall to
// epsilon are dropped unless they regenerate, in which case they stay at 0.
// Cells created by spreading take the default max and regen.
func (e *EnvironmentGrid) diffuseFood(dt float32) {
	if e.foodVals == nil {
		e.foodVals = make(Field, len(e.food))
	}
	clear(e.foodVals)
	for k, c := range e.food {
		e.foodVals[k] = c.Value
	}
	out := e.diff.step(e.foodVals, e.envCfg.FoodDiffusionRate, e.envCfg.FoodDecayRate, dt)

	for k, c := range e.food {
		v := out[k]
		if v > FieldEpsilon {
			c.Value = min(c.Max, v)
			continue
		}
		if c.Regen > 0 {
			c.Value = 0
		} else {
			delete(e.food, k)
		}
	}
	for k, v := range out {
		if _, ok := e.food[k]; ok || v <= FieldEpsilon {
			continue
		}
		e.food[k] = &FoodCell{Value: min(e.defaultMax, v), Max: e.defaultMax, Regen: e.defaultRegen}
	}
}

// FoodCells returns every food cell with a positive value, row-major.
func (e *EnvironmentGrid) FoodCells() []CellValue {
	var keys []CellKey
	keys = sortedKeys(e.food, keys)
	out := make([]CellValue, 0, len(keys))
	for _, k := range keys {
		if v := e.food[k].Value; v > 0 {
			out = append(out, CellValue{X: k.X, Y: k.Y, Value: v})
		}
	}
	return out
}

// DangerCells returns every danger cell, row-major.
func (e *EnvironmentGrid) DangerCells() []CellValue {
	var keys []CellKey
	keys = sortedKeys(e.danger, keys)
	out := make([]CellValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, CellValue{X: k.X, Y: k.Y, Value: e.danger[k]})
	}
	return out
}

// PheromoneCells returns, per cell, the strongest group's pheromone.
// Ties go to the lower group id.
func (e *EnvironmentGrid) PheromoneCells() []CellValue {
	best := make(map[CellKey]CellValue)
	for g, f := range e.pheromone {
		for k, v := range f {
			b, ok := best[k]
			if !ok || v > b.Value || (v == b.Value && g < b.Group) {
				best[k] = CellValue{X: k.X, Y: k.Y, Value: v, Group: g}
			}
		}
	}
	var keys []CellKey
	keys = sortedKeys(best, keys)
	out := make([]CellValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, best[k])
	}
	return out
}

// FoodTotal returns the summed value of all food cells.
func (e *EnvironmentGrid) FoodTotal() float64 {
	var keys []CellKey
	keys = sortedKeys(e.food, keys)
	var sum float64
	for _, k := range keys {
		sum += float64(e.food[k].Value)
	}
	return sum
}
