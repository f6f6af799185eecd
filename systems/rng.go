// Package systems holds the leaf algorithms of the simulation: the seeded
// RNG, the spatial index and the environment field solver.
package systems

import (
	"math"

	"github.com/pthm-cable/terrarium/components"
)

// zeroSeedFallback replaces a zero seed, which would leave xorshift stuck at 0.
const zeroSeedFallback = 2463534242

// Rng is a 128-bit xorshift generator. It is not safe for concurrent use
// and is owned by exactly one World.
type Rng struct {
	x, y, z, w uint32
}

// NewRng returns a generator seeded with seed.
func NewRng(seed uint32) *Rng {
	r := &Rng{}
	r.Reset(seed)
	return r
}

// Reset restores the generator to the state NewRng(seed) would produce.
func (r *Rng) Reset(seed uint32) {
	if seed == 0 {
		seed = zeroSeedFallback
	}
	r.x = seed
	r.y = 362436069
	r.z = 521288629
	r.w = 88675123
}

// Uint32 advances the generator and returns the next raw output.
func (r *Rng) Uint32() uint32 {
	t := r.x ^ (r.x << 11)
	r.x, r.y, r.z = r.y, r.z, r.w
	r.w = r.w ^ (r.w >> 19) ^ (t ^ (t >> 8))
	return r.w
}

// Intn returns a value in [0, n). n <= 0 returns 0 without consuming state.
func (r *Rng) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint32() % uint32(n))
}

// Float32 returns a uniform value in [0, 1) with 24 bits of resolution.
func (r *Rng) Float32() float32 {
	return float32(r.Uint32()&0xFFFFFF) / 16777216
}

// Range maps Float32 onto [lo, hi).
func (r *Rng) Range(lo, hi float32) float32 {
	return lo + (hi-lo)*r.Float32()
}

// UnitCircle returns a unit vector with a uniformly distributed angle.
func (r *Rng) UnitCircle() components.Vec2 {
	a := float64(r.Range(0, 2*math.Pi))
	return components.Vec2{X: float32(math.Cos(a)), Y: float32(math.Sin(a))}
}
