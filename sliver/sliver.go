// Package sliver implements short-lived debris particles and the fixed-capacity pool that recycles them
//
// A sliver is FREE (not drawn, no palette lease, zero life) or ACTIVE (drawn, exactly one
// lease, positive life). Activate moves FREE to ACTIVE, Update advances one frame and
// reports expiry, Dispose returns the lease and moves back to FREE.
package sliver

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/part"
	"github.com/lixenwraith/slivers/physics"
	"github.com/lixenwraith/slivers/vmath"
)

// Source is the object whose destruction spawns slivers
type Source interface {
	// ShadeMaster names the master color slivers from this object borrow shades of
	ShadeMaster() palette.MasterRef
}

// Activation groups the launch parameters of one sliver
type Activation struct {
	Origin      vmath.Vec2 // Starting position
	Direction   vmath.Vec2 // Base heading, its length is the base speed
	Scale       int64      // Visual size multiplier (Q32.32), 0 means 1.0
	SpeedFactor int64      // Speed multiplier (Q32.32)
	Spread      int        // Half-angle of the launch cone in degrees
	Age         int        // Frames to live, clamped to at least 1
	From        Source     // May be nil
}

// Glyphs by sprite index, smallest first
var glyphs = [...]rune{'░', '▒', '▓', '█'}

// Sliver is one pooled debris particle
type Sliver struct {
	part.Base

	velocity vmath.Vec2
	gravity  int64
	scale    int64
	life     int
	maxLife  int

	lease palette.Lease
	shade palette.MasterRef

	table *palette.Table
	log   *zap.SugaredLogger
}

var _ part.Part = (*Sliver)(nil)

// Initialize binds the sliver to slot partIndex and its color table, leaving it FREE
// A lease still held from earlier use is returned first
func (s *Sliver) Initialize(partIndex int, table *palette.Table, log *zap.SugaredLogger) {
	if s.table != nil {
		s.Dispose()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s.table = table
	s.log = log
	s.Bind(partIndex)
	s.reset()
}

// Activate launches a FREE sliver
// Returns false, leaving the sliver FREE, if it is already active or no palette entry can be leased
func (s *Sliver) Activate(a Activation, rng *vmath.FastRand, tu *Tuning) bool {
	if s.Active() {
		s.log.Debugw("activate on active sliver rejected", "index", s.Index())
		return false
	}

	hint := palette.Hint{Count: tu.ShadeCount}
	if a.From != nil {
		hint.Master = a.From.ShadeMaster()
	}
	lease := s.table.AcquireRange(hint)
	if !lease.Held() {
		return false
	}

	scale := a.Scale
	if scale <= 0 {
		scale = vmath.Scale
	}
	age := a.Age
	if age < 1 {
		age = 1
	}

	s.lease = lease
	s.shade = hint.Master
	s.Pos = a.Origin
	s.velocity = launchVelocity(a, rng, tu)
	s.scale = scale
	s.gravity = tu.Gravity
	if tu.GravityScales {
		s.gravity = vmath.Mul(tu.Gravity, scale)
	}
	s.life = age
	s.maxLife = age
	s.Sprite = spriteFor(scale)
	return true
}

// launchVelocity rotates Direction by a random angle in ±Spread and scales it by SpeedFactor
func launchVelocity(a Activation, rng *vmath.FastRand, tu *Tuning) vmath.Vec2 {
	v := a.Direction
	if a.Spread != 0 {
		half := vmath.FromDegrees(a.Spread)
		if half < 0 {
			half = -half
		}
		v = vmath.V2Rotate(v, vmath.Mul(half, tu.Spread.sample(rng)))
	}

	speed := a.SpeedFactor
	if tu.SpeedJitter > 0 {
		speed = vmath.Mul(speed, vmath.Scale+vmath.Mul(tu.SpeedJitter, rng.Signed()))
	}
	return vmath.V2Scale(v, speed)
}

func spriteFor(scale int64) int {
	switch {
	case scale >= 2*vmath.Scale:
		return 3
	case scale >= vmath.Scale:
		return 2
	case scale >= vmath.Half:
		return 1
	}
	return 0
}

// Update advances one frame and reports whether the sliver has just expired
// Position moves by the current velocity, then gravity accelerates it, then life counts down
func (s *Sliver) Update() bool {
	if s.life <= 0 {
		return true
	}
	physics.Euler(&s.Pos, &s.velocity, s.gravity)
	s.life--
	return s.life <= 0
}

// Dispose releases the palette lease and returns the sliver to FREE
// Safe to call on a FREE sliver
func (s *Sliver) Dispose() {
	if s.lease.Held() {
		if err := s.table.ReleaseRange(s.lease); err != nil {
			s.log.Debugw("sliver lease already invalid", "index", s.Index(), "error", err)
		}
	}
	s.reset()
	s.Detach()
}

func (s *Sliver) reset() {
	s.lease = palette.Lease{}
	s.shade = palette.MasterRef{}
	s.velocity = vmath.Vec2{}
	s.gravity = 0
	s.scale = 0
	s.life = 0
	s.maxLife = 0
	s.Sprite = 0
}

// Active reports whether the sliver is live
func (s *Sliver) Active() bool { return s.life > 0 }

func (s *Sliver) LifeRemaining() int { return s.life }
func (s *Sliver) MaxLife() int { return s.maxLife }
func (s *Sliver) Velocity() vmath.Vec2 { return s.velocity }
func (s *Sliver) Gravity() int64 { return s.gravity }
func (s *Sliver) Scale() int64 { return s.scale }
func (s *Sliver) Lease() palette.Lease { return s.lease }
func (s *Sliver) ShadeRef() palette.MasterRef { return s.shade }

// Color returns the current shade, darkening with age
// The freshest shade follows the live master color while the master reference is still valid
func (s *Sliver) Color() palette.RGB {
	ramp := s.table.Ramp(s.lease)
	if len(ramp) == 0 || s.maxLife <= 0 {
		return palette.RGBFallback
	}

	idx := (s.maxLife - s.life) * len(ramp) / s.maxLife
	if idx >= len(ramp) {
		idx = len(ramp) - 1
	}

	if !s.shade.IsZero() {
		master, ok := s.table.Master(s.shade)
		if !ok {
			s.shade = palette.MasterRef{}
		} else if idx == 0 {
			return master
		}
	}
	return ramp[idx]
}

// Draw plots the sliver at its current cell; FREE slivers draw nothing
func (s *Sliver) Draw(c part.Canvas) {
	if !s.Active() {
		return
	}
	x, y := s.Pos.Cell()
	c.Plot(x, y, glyphs[s.Sprite], s.Color())
}
