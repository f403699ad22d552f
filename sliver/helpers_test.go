package sliver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/part"
	"github.com/lixenwraith/slivers/status"
	"github.com/lixenwraith/slivers/vmath"
)

type testSource struct {
	ref palette.MasterRef
}

func (s testSource) ShadeMaster() palette.MasterRef { return s.ref }

type plot struct {
	x, y  int
	glyph rune
	color palette.RGB
}

type recordingCanvas struct {
	plots []plot
}

func (c *recordingCanvas) Plot(x, y int, glyph rune, color palette.RGB) {
	c.plots = append(c.plots, plot{x, y, glyph, color})
}

var _ part.Canvas = (*recordingCanvas)(nil)

// exactTuning disables every source of randomness except spread
func exactTuning(gravity int64) Tuning {
	return Tuning{
		Gravity:    gravity,
		Spread:     SpreadUniform,
		ShadeCount: 4,
	}
}

func straightShot(age int, from Source) Activation {
	return Activation{
		Origin:      vmath.V2(0, 0),
		Direction:   vmath.V2(1, 0),
		Scale:       vmath.Scale,
		SpeedFactor: vmath.FromInt(2),
		Spread:      0,
		Age:         age,
		From:        from,
	}
}

func newTable(t *testing.T, reg *status.Registry) (*palette.Table, testSource) {
	t.Helper()
	tb := palette.NewTable(64, 4, reg, nil)
	ref := tb.SetMaster(1, palette.RGB{R: 240, G: 120, B: 0})
	require.False(t, ref.IsZero())
	return tb, testSource{ref: ref}
}

func newSliver(t *testing.T, tb *palette.Table) *Sliver {
	t.Helper()
	s := &Sliver{}
	s.Initialize(0, tb, nil)
	return s
}

// checkInvariants verifies lease ownership and list bookkeeping across the whole pool
func checkInvariants(t *testing.T, p *Pool) {
	t.Helper()
	tb := p.Table()

	seen := make(map[int]bool, p.Capacity())
	leased := 0
	for pos, idx := range p.active {
		require.False(t, seen[idx], "slot %d listed twice", idx)
		seen[idx] = true
		s := &p.slots[idx]
		require.Equal(t, pos, s.ListPos(), "slot %d list position", idx)
		require.True(t, s.Active(), "listed slot %d not active", idx)
		require.True(t, tb.Valid(s.Lease()), "active slot %d holds no valid lease", idx)
		leased += int(s.Lease().Count)
	}
	for _, idx := range p.free {
		require.False(t, seen[idx], "slot %d both free and active or free twice", idx)
		seen[idx] = true
		s := &p.slots[idx]
		require.False(t, s.Active(), "free slot %d is active", idx)
		require.False(t, s.Lease().Held(), "free slot %d holds a lease", idx)
		require.False(t, s.Linked(), "free slot %d still linked", idx)
	}
	require.Len(t, seen, p.Capacity())
	require.Equal(t, leased, tb.LeasedEntries())
}
