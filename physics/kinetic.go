package physics

import (
	"github.com/lixenwraith/slivers/vmath"
)

// Euler advances one fixed frame: p = p + v; v.Y = v.Y + g
// Position integrates the velocity held at the start of the frame
func Euler(pos, vel *vmath.Vec2, gravity int64) {
	pos.X += vel.X
	pos.Y += vel.Y
	vel.Y += gravity
}

// Project returns position and velocity after frames Euler steps without mutating inputs
// p_k = p_0 + k*v_0 + g*k*(k-1)/2, v_k = v_0 + k*g
func Project(pos, vel vmath.Vec2, gravity int64, frames int) (vmath.Vec2, vmath.Vec2) {
	if frames <= 0 {
		return pos, vel
	}
	k := int64(frames)
	p := vmath.Vec2{
		X: pos.X + k*vel.X,
		Y: pos.Y + k*vel.Y + gravity*(k*(k-1)/2),
	}
	v := vmath.Vec2{X: vel.X, Y: vel.Y + k*gravity}
	return p, v
}
