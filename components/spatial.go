package components

import "math"

// Vec2 is a 2D vector in world units. All operations return new values.
type Vec2 struct {
	X, Y float32
}

// V2 is shorthand for constructing a Vec2.
func V2(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Dot(o Vec2) float32 { return v.X*o.X + v.Y*o.Y }

// LenSq returns the squared length.
func (v Vec2) LenSq() float32 { return v.X*v.X + v.Y*v.Y }

// Len returns the Euclidean length.
func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.LenSq())))
}

// Normalized returns the unit vector in the direction of v, or the zero
// vector when v is too short to have a meaningful direction.
func (v Vec2) Normalized() Vec2 {
	lsq := v.LenSq()
	if lsq < 1e-10 {
		return Vec2{}
	}
	inv := float32(1 / math.Sqrt(float64(lsq)))
	return Vec2{v.X * inv, v.Y * inv}
}

// ClampLength scales v down so its length is at most maxLen.
func (v Vec2) ClampLength(maxLen float32) Vec2 {
	lsq := v.LenSq()
	if lsq <= maxLen*maxLen || lsq == 0 {
		return v
	}
	return v.Scale(maxLen / float32(math.Sqrt(float64(lsq))))
}

// Heading returns the angle of v in radians, measured from +X.
func (v Vec2) Heading() float32 {
	return float32(math.Atan2(float64(v.Y), float64(v.X)))
}

// IsFinite reports whether both components are finite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(float64(v.X)) && !math.IsInf(float64(v.X), 0) &&
		!math.IsNaN(float64(v.Y)) && !math.IsInf(float64(v.Y), 0)
}
