package event

import (
	"github.com/lixenwraith/slivers/sliver"
	"github.com/lixenwraith/slivers/vmath"
)

// ExplosionRequest describes one burst of slivers
type ExplosionRequest struct {
	Origin      vmath.Vec2
	Direction   vmath.Vec2
	Scale       int64
	SpeedFactor int64
	Spread      int // Half-angle in degrees
	Count       int
	AgeMin      int
	AgeMax      int
	From        sliver.Source
}

// Activation returns the per-sliver launch parameters; age is filled in by the pool
func (r *ExplosionRequest) Activation() sliver.Activation {
	return sliver.Activation{
		Origin:      r.Origin,
		Direction:   r.Direction,
		Scale:       r.Scale,
		SpeedFactor: r.SpeedFactor,
		Spread:      r.Spread,
		From:        r.From,
	}
}

// GameEvent is a queued frame-loop event
// Payload is carried by value so pushing never allocates
type GameEvent struct {
	Type      EventType
	Explosion ExplosionRequest
	Frame     int64
}
