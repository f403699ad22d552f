package sliver

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/part"
	"github.com/lixenwraith/slivers/physics"
	"github.com/lixenwraith/slivers/status"
	"github.com/lixenwraith/slivers/vmath"
)

func TestInitializeStartsFree(t *testing.T) {
	tb, _ := newTable(t, nil)
	s := &Sliver{}
	s.Initialize(7, tb, nil)

	assert.Equal(t, 7, s.Index())
	assert.False(t, s.Active())
	assert.Equal(t, 0, s.LifeRemaining())
	assert.False(t, s.Lease().Held())
	assert.True(t, s.ShadeRef().IsZero())
	assert.Equal(t, part.Detached, s.ListPos())
}

func TestInitializeReturnsHeldLease(t *testing.T) {
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(0)
	require.True(t, s.Activate(straightShot(5, src), vmath.NewFastRand(1), &tu))
	require.Equal(t, 4, tb.LeasedEntries())

	s.Initialize(3, tb, nil)
	assert.False(t, s.Active())
	assert.Equal(t, 0, tb.LeasedEntries())
}

func TestStraightShotScenario(t *testing.T) {
	g := vmath.FromFloat(0.5)
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(g)

	require.True(t, s.Activate(straightShot(3, src), vmath.NewFastRand(1), &tu))
	assert.Equal(t, vmath.V2(2, 0), s.Velocity(), "spread 0 leaves direction untouched")
	assert.Equal(t, vmath.V2(0, 0), s.Position())
	assert.Equal(t, 3, s.LifeRemaining())

	assert.False(t, s.Update())
	assert.Equal(t, vmath.V2(2, 0), s.Position())
	assert.Equal(t, 2, s.LifeRemaining())

	assert.False(t, s.Update())
	assert.True(t, s.Update())

	wantPos, wantVel := physics.Project(vmath.V2(0, 0), vmath.V2(2, 0), g, 3)
	assert.Equal(t, wantPos, s.Position())
	assert.Equal(t, vmath.Vec2{X: vmath.FromInt(6), Y: 3 * g}, s.Position())
	assert.Equal(t, wantVel, s.Velocity())
}

func TestUpdateExpiresOnFinalFrame(t *testing.T) {
	for _, age := range []int{1, 2, 5, 60} {
		t.Run(fmt.Sprintf("age %d", age), func(t *testing.T) {
			tb, src := newTable(t, nil)
			s := newSliver(t, tb)
			tu := exactTuning(vmath.FromFloat(0.1))
			require.True(t, s.Activate(straightShot(age, src), vmath.NewFastRand(9), &tu))

			for i := 1; i < age; i++ {
				require.False(t, s.Update(), "call %d of %d", i, age)
			}
			assert.True(t, s.Update(), "call %d of %d", age, age)
		})
	}
}

func TestGravityIntegrationIsExact(t *testing.T) {
	g := int64(0x1234567) // Not a clean fraction
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(g)

	a := straightShot(500, src)
	a.Direction = vmath.Vec2{X: vmath.FromFloat(0.3), Y: -vmath.FromFloat(1.7)}
	require.True(t, s.Activate(a, vmath.NewFastRand(1), &tu))
	v0 := s.Velocity()

	for k := 1; k <= 400; k++ {
		s.Update()
		require.Equal(t, v0.Y+int64(k)*g, s.Velocity().Y)
		require.Equal(t, v0.X, s.Velocity().X)
	}
}

func TestAgeClampedToOneFrame(t *testing.T) {
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(0)

	require.True(t, s.Activate(straightShot(-4, src), vmath.NewFastRand(1), &tu))
	assert.Equal(t, 1, s.LifeRemaining())
	assert.True(t, s.Update())
}

func TestDisposeIsIdempotent(t *testing.T) {
	reg := status.NewRegistry()
	tb, src := newTable(t, reg)
	s := newSliver(t, tb)
	tu := exactTuning(0)
	require.True(t, s.Activate(straightShot(10, src), vmath.NewFastRand(1), &tu))
	require.Equal(t, 4, tb.LeasedEntries())

	s.Dispose()
	assert.Equal(t, 0, tb.LeasedEntries())
	assert.False(t, s.Active())
	assert.True(t, s.ShadeRef().IsZero())

	// A second lease now occupies the range the first one had
	other := tb.AcquireRange(palette.Hint{Count: 4})
	require.True(t, tb.Valid(other))

	s.Dispose()
	assert.True(t, tb.Valid(other), "second dispose must not free another owner's range")
	assert.Equal(t, 4, tb.LeasedEntries())
	assert.Equal(t, int64(0), reg.Ints.Get("palette.stale").Load())
}

func TestDisposeLogsInvalidLease(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tb, src := newTable(t, nil)
	s := &Sliver{}
	s.Initialize(0, tb, zap.New(core).Sugar())
	tu := exactTuning(0)
	require.True(t, s.Activate(straightShot(10, src), vmath.NewFastRand(1), &tu))

	// Range reclaimed behind the sliver's back
	require.NoError(t, tb.ReleaseRange(s.Lease()))

	s.Dispose()
	assert.False(t, s.Active())
	assert.False(t, s.Lease().Held())
	assert.Equal(t, 1, logs.FilterMessage("sliver lease already invalid").Len())
}

func TestReactivateMatchesFreshActivation(t *testing.T) {
	tb, src := newTable(t, nil)
	tu := exactTuning(vmath.FromFloat(0.25))
	tu.GravityScales = true
	a := straightShot(12, src)
	a.Scale = vmath.FromFloat(1.5)

	reused := newSliver(t, tb)
	require.True(t, reused.Activate(a, vmath.NewFastRand(3), &tu))
	for i := 0; i < 5; i++ {
		reused.Update()
	}
	reused.Dispose()
	require.True(t, reused.Activate(a, vmath.NewFastRand(3), &tu))

	freshTable, freshSrc := newTable(t, nil)
	a.From = freshSrc
	fresh := newSliver(t, freshTable)
	require.True(t, fresh.Activate(a, vmath.NewFastRand(3), &tu))

	assert.Equal(t, fresh.Position(), reused.Position())
	assert.Equal(t, fresh.Velocity(), reused.Velocity())
	assert.Equal(t, fresh.LifeRemaining(), reused.LifeRemaining())
	assert.Equal(t, fresh.MaxLife(), reused.MaxLife())
	assert.Equal(t, fresh.Gravity(), reused.Gravity())
	assert.Equal(t, fresh.Scale(), reused.Scale())
	assert.Equal(t, fresh.Sprite, reused.Sprite)
	assert.Equal(t, fresh.Lease().Start, reused.Lease().Start)
	assert.Equal(t, fresh.Lease().Count, reused.Lease().Count)
	assert.Equal(t, fresh.Color(), reused.Color())
}

func TestActivateRejectsActiveSliver(t *testing.T) {
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(0)
	require.True(t, s.Activate(straightShot(10, src), vmath.NewFastRand(1), &tu))
	lease := s.Lease()

	assert.False(t, s.Activate(straightShot(99, src), vmath.NewFastRand(1), &tu))
	assert.Equal(t, lease, s.Lease())
	assert.Equal(t, 10, s.LifeRemaining())
	assert.Equal(t, 4, tb.LeasedEntries())
}

func TestActivateWithExhaustedPaletteStaysFree(t *testing.T) {
	tb := palette.NewTable(5, 4, nil, nil) // one lendable entry
	tu := exactTuning(0)

	first := newSliver(t, tb)
	require.True(t, first.Activate(straightShot(10, nil), vmath.NewFastRand(1), &tu))
	assert.Equal(t, uint16(1), first.Lease().Count, "degraded to the single free entry")

	second := &Sliver{}
	second.Initialize(1, tb, nil)
	assert.False(t, second.Activate(straightShot(10, nil), vmath.NewFastRand(1), &tu))
	assert.False(t, second.Active())
	assert.False(t, second.Lease().Held())
	assert.Equal(t, 0, second.LifeRemaining())
}

func TestGravityScalesWithSize(t *testing.T) {
	g := vmath.FromFloat(0.1)
	tb, src := newTable(t, nil)
	tu := exactTuning(g)
	tu.GravityScales = true

	s := newSliver(t, tb)
	a := straightShot(5, src)
	a.Scale = vmath.FromInt(2)
	require.True(t, s.Activate(a, vmath.NewFastRand(1), &tu))
	assert.Equal(t, 2*g, s.Gravity())
	assert.Equal(t, 3, s.Sprite)

	tu.GravityScales = false
	t2 := newSliver(t, tb)
	require.True(t, t2.Activate(a, vmath.NewFastRand(1), &tu))
	assert.Equal(t, g, t2.Gravity())
}

func TestZeroScaleDefaultsToOne(t *testing.T) {
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(0)
	a := straightShot(5, src)
	a.Scale = 0
	require.True(t, s.Activate(a, vmath.NewFastRand(1), &tu))
	assert.Equal(t, int64(vmath.Scale), s.Scale())
	assert.Equal(t, 2, s.Sprite)
}

func TestSpreadStaysInsideCone(t *testing.T) {
	tests := []struct {
		name   string
		dist   Distribution
		spread int
	}{
		{"uniform narrow", SpreadUniform, 30},
		{"triangular narrow", SpreadTriangular, 30},
		{"uniform negative half angle", SpreadUniform, -45},
		{"triangular wide", SpreadTriangular, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, src := newTable(t, nil)
			tu := exactTuning(0)
			tu.Spread = tt.dist
			rng := vmath.NewFastRand(11)
			limit := math.Abs(float64(tt.spread)) + 0.5 // LUT step is ~0.35°

			for i := 0; i < 500; i++ {
				s := newSliver(t, tb)
				a := straightShot(5, src)
				a.Spread = tt.spread
				require.True(t, s.Activate(a, rng, &tu))
				v := s.Velocity()
				deg := math.Atan2(vmath.ToFloat(v.Y), vmath.ToFloat(v.X)) * 180 / math.Pi
				require.LessOrEqual(t, math.Abs(deg), limit)
				s.Dispose()
			}
		})
	}
}

func TestFullSpreadReachesBothSides(t *testing.T) {
	tb, src := newTable(t, nil)
	tu := exactTuning(0)
	rng := vmath.NewFastRand(5)

	var backward, up, down bool
	for i := 0; i < 200; i++ {
		s := newSliver(t, tb)
		a := straightShot(5, src)
		a.Spread = 180
		require.True(t, s.Activate(a, rng, &tu))
		v := s.Velocity()
		backward = backward || v.X < 0
		up = up || v.Y < 0
		down = down || v.Y > 0
		s.Dispose()
	}
	assert.True(t, backward && up && down)
}

func TestSpeedJitterBounds(t *testing.T) {
	tb, src := newTable(t, nil)
	tu := exactTuning(0)
	tu.SpeedJitter = vmath.FromFloat(0.25)
	rng := vmath.NewFastRand(21)

	for i := 0; i < 300; i++ {
		s := newSliver(t, tb)
		require.True(t, s.Activate(straightShot(5, src), rng, &tu))
		speed := vmath.ToFloat(s.Velocity().X)
		require.GreaterOrEqual(t, speed, 1.5-1e-6)
		require.LessOrEqual(t, speed, 2.5+1e-6)
		s.Dispose()
	}
}

func TestColorFadesAndDropsStaleMaster(t *testing.T) {
	tb := palette.NewTable(64, 4, nil, nil)
	tb.SetRampFloor(0)
	ref := tb.SetMaster(2, palette.RGB{R: 200, G: 200, B: 0})
	src := testSource{ref: ref}

	s := newSliver(t, tb)
	tu := exactTuning(0)
	require.True(t, s.Activate(straightShot(8, src), vmath.NewFastRand(1), &tu))

	fresh := s.Color()
	assert.Equal(t, palette.RGB{R: 200, G: 200, B: 0}, fresh)

	// Fresh shade follows the live master
	tb.SetMaster(2, palette.RGB{R: 10, G: 20, B: 30})
	assert.True(t, s.ShadeRef() == ref)
	_ = s.Color()
	assert.True(t, s.ShadeRef().IsZero(), "recolored master invalidates the reference")
	assert.Equal(t, tb.Ramp(s.Lease())[0], s.Color(), "falls back to the leased ramp")

	for i := 0; i < 7; i++ {
		s.Update()
	}
	last := s.Color()
	assert.Less(t, last.R, fresh.R, "shade darkens with age")
	assert.Equal(t, tb.Ramp(s.Lease())[3], last)
}

func TestColorFollowsLiveMasterWhileValid(t *testing.T) {
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	tu := exactTuning(0)
	require.True(t, s.Activate(straightShot(8, src), vmath.NewFastRand(1), &tu))

	master, ok := tb.Master(src.ref)
	require.True(t, ok)
	assert.Equal(t, master, s.Color())
	assert.False(t, s.ShadeRef().IsZero())
}

func TestDrawOnlyWhenActive(t *testing.T) {
	tb, src := newTable(t, nil)
	s := newSliver(t, tb)
	c := &recordingCanvas{}

	s.Draw(c)
	assert.Empty(t, c.plots)

	tu := exactTuning(0)
	a := straightShot(3, src)
	a.Origin = vmath.Vec2{X: vmath.FromFloat(4.75), Y: vmath.FromFloat(2.25)}
	a.Scale = vmath.FromFloat(0.5)
	require.True(t, s.Activate(a, vmath.NewFastRand(1), &tu))

	s.Draw(c)
	require.Len(t, c.plots, 1)
	assert.Equal(t, 4, c.plots[0].x)
	assert.Equal(t, 2, c.plots[0].y)
	assert.Equal(t, '▒', c.plots[0].glyph)
	assert.Equal(t, s.Color(), c.plots[0].color)
}

func TestUpdateOnFreeSliverIsInert(t *testing.T) {
	tb, _ := newTable(t, nil)
	s := newSliver(t, tb)
	assert.True(t, s.Update())
	assert.Equal(t, vmath.Vec2{}, s.Position())
	assert.Equal(t, 0, s.LifeRemaining())
}

func TestParseDistribution(t *testing.T) {
	tests := []struct {
		in   string
		want Distribution
		ok   bool
	}{
		{"", SpreadUniform, true},
		{"uniform", SpreadUniform, true},
		{"triangular", SpreadTriangular, true},
		{"gaussian", SpreadUniform, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDistribution(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
	assert.Equal(t, "triangular", SpreadTriangular.String())
}
