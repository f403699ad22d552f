package sliver

import (
	"github.com/lixenwraith/slivers/parameter"
	"github.com/lixenwraith/slivers/vmath"
)

// Distribution selects how launch angles are drawn inside ±spread
type Distribution uint8

const (
	// SpreadUniform draws every angle in the cone with equal probability
	SpreadUniform Distribution = iota
	// SpreadTriangular biases angles toward the base direction
	SpreadTriangular
)

// ParseDistribution maps a config name to a Distribution
func ParseDistribution(name string) (Distribution, bool) {
	switch name {
	case "", "uniform":
		return SpreadUniform, true
	case "triangular":
		return SpreadTriangular, true
	}
	return SpreadUniform, false
}

func (d Distribution) String() string {
	if d == SpreadTriangular {
		return "triangular"
	}
	return "uniform"
}

// Tuning carries the physics and shading knobs shared by every sliver of a pool
type Tuning struct {
	// Gravity is added to vertical velocity once per frame (Q32.32 cells/frame²)
	Gravity int64
	// GravityScales multiplies gravity by the activation scale so larger debris falls faster
	GravityScales bool
	// SpeedJitter randomizes launch speed within ±jitter of speedFactor (Q32.32 fraction)
	SpeedJitter int64
	// Spread is the launch angle distribution
	Spread Distribution
	// ShadeCount is the preferred number of palette entries leased per sliver
	ShadeCount int
}

// DefaultTuning returns the stock sliver tuning
func DefaultTuning() Tuning {
	return Tuning{
		Gravity:       vmath.FromFloat(parameter.SliverGravity),
		GravityScales: parameter.SliverGravityScales,
		SpeedJitter:   vmath.FromFloat(parameter.SliverSpeedJitter),
		Spread:        SpreadUniform,
		ShadeCount:    parameter.SliverShadeCount,
	}
}

// sample returns a Q32.32 factor in [-Scale, Scale) for the distribution
func (d Distribution) sample(rng *vmath.FastRand) int64 {
	if d == SpreadTriangular {
		return (rng.Signed() + rng.Signed()) / 2
	}
	return rng.Signed()
}
