package systems

import (
	"math"

	"github.com/pthm-cable/terrarium/components"
)

// CellKey addresses one square cell of a grid.
type CellKey struct {
	X, Y int32
}

// Entry is a copy of an agent's id and position taken at insert time.
type Entry struct {
	ID  uint64
	Pos components.Vec2
}

// Neighbor is an entry returned by a radius query, with its offset from
// the query origin already resolved.
type Neighbor struct {
	Entry
	Offset components.Vec2 // other - origin, shortest path on a torus
	DistSq float32
}

// SpatialGrid buckets entries by cell for radius queries. It is rebuilt
// from scratch every tick and never updated incrementally.
type SpatialGrid struct {
	cellSize  float32
	worldSize float32 // 0 = unbounded plane
	cols      int32   // cells per axis when worldSize > 0

	buckets map[CellKey][]Entry
	scratch []Neighbor
}

// NewSpatialGrid creates a grid. When worldSize > 0 the grid wraps on both
// axes and queries measure shortest toroidal offsets. Panics if
// cellSize <= 0.
func NewSpatialGrid(cellSize, worldSize float32) *SpatialGrid {
	if !(cellSize > 0) {
		panic("systems: spatial grid cell size must be positive")
	}
	g := &SpatialGrid{
		cellSize:  cellSize,
		worldSize: worldSize,
		buckets:   make(map[CellKey][]Entry),
		scratch:   make([]Neighbor, 0, 64),
	}
	if worldSize > 0 {
		g.cols = int32(math.Ceil(float64(worldSize / cellSize)))
		if g.cols < 1 {
			g.cols = 1
		}
	}
	return g
}

// CellSize returns the bucket edge length.
func (g *SpatialGrid) CellSize() float32 { return g.cellSize }

// Clear empties every bucket, keeping their storage.
func (g *SpatialGrid) Clear() {
	for k, b := range g.buckets {
		g.buckets[k] = b[:0]
	}
}

// Insert adds an entry to the bucket containing pos.
func (g *SpatialGrid) Insert(id uint64, pos components.Vec2) {
	k := g.key(pos)
	g.buckets[k] = append(g.buckets[k], Entry{ID: id, Pos: pos})
}

// Len returns the number of stored entries.
func (g *SpatialGrid) Len() int {
	n := 0
	for _, b := range g.buckets {
		n += len(b)
	}
	return n
}

// Neighbors returns every entry within radius of pos, the origin's own
// entry included. The result aliases an internal buffer that the next call
// overwrites; the grid is not re-entrant.
func (g *SpatialGrid) Neighbors(pos components.Vec2, radius float32) []Neighbor {
	g.scratch = g.QueryInto(g.scratch[:0], pos, radius)
	return g.scratch
}

// QueryInto appends every entry within radius of pos to dst. Buckets are
// visited row by row, then in insertion order, so results are stable.
func (g *SpatialGrid) QueryInto(dst []Neighbor, pos components.Vec2, radius float32) []Neighbor {
	if radius < 0 || len(g.buckets) == 0 {
		return dst
	}
	home := g.key(pos)
	ring := int32(math.Ceil(float64(radius / g.cellSize)))
	if g.cols > 0 && float32(g.cols)*g.cellSize != g.worldSize {
		// the last column is narrower than the rest
		ring++
	}
	radiusSq := radius * radius

	x0, x1 := home.X-ring, home.X+ring
	y0, y1 := home.Y-ring, home.Y+ring
	if g.cols > 0 && 2*ring+1 >= g.cols {
		// ring covers the whole axis; visit each column once
		x0, x1 = 0, g.cols-1
		y0, y1 = 0, g.cols-1
	}

	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			k := CellKey{X: cx, Y: cy}
			if g.cols > 0 {
				k.X = wrapIndex(cx, g.cols)
				k.Y = wrapIndex(cy, g.cols)
			}
			for _, e := range g.buckets[k] {
				dx, dy := ToroidalDelta(pos.X, pos.Y, e.Pos.X, e.Pos.Y, g.worldSize, g.worldSize)
				dsq := dx*dx + dy*dy
				if dsq <= radiusSq {
					dst = append(dst, Neighbor{Entry: e, Offset: components.Vec2{X: dx, Y: dy}, DistSq: dsq})
				}
			}
		}
	}
	return dst
}

func (g *SpatialGrid) key(pos components.Vec2) CellKey {
	k := CellKey{X: cellCoord(pos.X, g.cellSize), Y: cellCoord(pos.Y, g.cellSize)}
	if g.cols > 0 {
		k.X = wrapIndex(k.X, g.cols)
		k.Y = wrapIndex(k.Y, g.cols)
	}
	return k
}
