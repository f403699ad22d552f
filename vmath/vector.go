package vmath

// Vec2 is a 2D vector in Q32.32 fixed-point
type Vec2 struct {
	X, Y int64
}

// V2 builds a Vec2 from whole-unit components
func V2(x, y int) Vec2 {
	return Vec2{FromInt(x), FromInt(y)}
}

func V2Add(a, b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func V2Scale(v Vec2, s int64) Vec2 {
	return Vec2{Mul(v.X, s), Mul(v.Y, s)}
}

// Cell returns the integer grid cell containing the vector
func (v Vec2) Cell() (x, y int) {
	return ToInt(v.X), ToInt(v.Y)
}

// IsZero reports whether both components are zero
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// RotateVector rotates vector by angle using precomputed Sin/Cos LUT
// angle is in Q32.32 where Scale = 2π (full rotation)
func RotateVector(x, y, angle int64) (rx, ry int64) {
	cos := Cos(angle)
	sin := Sin(angle)
	rx = Mul(x, cos) - Mul(y, sin)
	ry = Mul(x, sin) + Mul(y, cos)
	return rx, ry
}

// V2Rotate is RotateVector over Vec2
func V2Rotate(v Vec2, angle int64) Vec2 {
	x, y := RotateVector(v.X, v.Y, angle)
	return Vec2{x, y}
}

// DistanceApprox uses Alpha max plus beta min algorithm (error ~4%)
func DistanceApprox(dx, dy int64) int64 {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx < dy {
		dx, dy = dy, dx
	}
	// dist = max + 0.375*min
	return dx + (dy >> 2) + (dy >> 3)
}

// Normalize2D returns unit vector in Q32.32, zero-safe
func Normalize2D(x, y int64) (nx, ny int64) {
	mag := DistanceApprox(x, y)
	if mag == 0 {
		return 0, 0
	}
	return Div(x, mag), Div(y, mag)
}
