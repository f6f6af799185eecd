package systems

import "math"

// Clamp clamps v between lo and hi.
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float32) float32 {
	return Clamp(v, 0, 1)
}

// Wrap maps v into [0, size). The subtraction path handles the common
// case of a single step across the edge; mod handles larger jumps.
func Wrap(v, size float32) float32 {
	if size <= 0 {
		return v
	}
	if v >= 0 && v < size {
		return v
	}
	if v < 0 && v >= -size {
		v += size
	} else if v >= size && v < 2*size {
		v -= size
	} else {
		v = float32(math.Mod(float64(v), float64(size)))
		if v < 0 {
			v += size
		}
	}
	// float rounding can land exactly on size
	if v >= size {
		v = 0
	}
	return v
}

// ToroidalDelta returns the shortest delta from (x1,y1) to (x2,y2) on a
// torus of the given size. A size of 0 on an axis disables wrapping on it.
func ToroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1

	if w > 0 {
		if dx > w/2 {
			dx -= w
		} else if dx < -w/2 {
			dx += w
		}
	}
	if h > 0 {
		if dy > h/2 {
			dy -= h
		} else if dy < -h/2 {
			dy += h
		}
	}

	return dx, dy
}

// cellCoord returns floor(v/cellSize).
func cellCoord(v, cellSize float32) int32 {
	return int32(math.Floor(float64(v / cellSize)))
}

// wrapIndex maps i into [0, n).
func wrapIndex(i, n int32) int32 {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
