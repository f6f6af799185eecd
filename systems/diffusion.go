package systems

import (
	"cmp"
	"slices"
)

// FieldEpsilon is the value at or below which a sparse field cell is dropped.
const FieldEpsilon = 1e-4

// Field is a sparse scalar field keyed by cell. Absent cells read as 0.
type Field map[CellKey]float32

var stencil = [4]CellKey{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func compareKeys(a, b CellKey) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}

// sortedKeys returns the keys of f in row-major order. Map iteration order
// is random in Go, so every pass that sums floats walks this order instead.
func sortedKeys[V any](f map[CellKey]V, dst []CellKey) []CellKey {
	dst = dst[:0]
	for k := range f {
		dst = append(dst, k)
	}
	slices.SortFunc(dst, compareKeys)
	return dst
}

// diffuser runs one explicit diffusion-decay step over a sparse field.
//
// For every source cell: decayed = v*max(0, 1-decay*dt), spread =
// decayed*min(1, diffusion*dt). The source keeps decayed-spread and each
// of its four axis neighbors receives spread/4. Output goes to a separate
// buffer so no cell reads a value written in the same pass.
//
// The scheme is forward Euler and is only stable for diffusion*dt <= 1.
// Callers are expected to configure rates accordingly; it is not enforced.
type diffuser struct {
	cols int32 // wrap modulus, 0 = unbounded
	keys []CellKey
	out  Field
}

func (d *diffuser) neighbor(k, off CellKey) CellKey {
	n := CellKey{X: k.X + off.X, Y: k.Y + off.Y}
	if d.cols > 0 {
		n.X = wrapIndex(n.X, d.cols)
		n.Y = wrapIndex(n.Y, d.cols)
	}
	return n
}

// step fills d.out from values and returns it. The returned map is reused
// by the next call.
func (d *diffuser) step(values Field, diffusion, decay, dt float32) Field {
	if d.out == nil {
		d.out = make(Field, len(values))
	}
	clear(d.out)

	keep := max(0, 1-decay*dt)
	spreadFrac := min(1, diffusion*dt)

	d.keys = sortedKeys(values, d.keys)
	for _, k := range d.keys {
		v := values[k]
		if v <= 0 {
			continue
		}
		decayed := v * keep
		spread := decayed * spreadFrac
		d.out[k] += decayed - spread
		share := spread * 0.25
		for _, off := range stencil {
			d.out[d.neighbor(k, off)] += share
		}
	}
	return d.out
}

// diffuseField replaces the contents of f with one diffusion-decay step,
// dropping cells at or below FieldEpsilon.
func (d *diffuser) diffuseField(f Field, diffusion, decay, dt float32) {
	out := d.step(f, diffusion, decay, dt)
	clear(f)
	for k, v := range out {
		if v > FieldEpsilon {
			f[k] = v
		}
	}
}
