// Package palette implements the shared color table that slivers borrow shades from
// Entries [0, masters) are master colors owned by game objects; the remainder is
// lent out in contiguous ranges. Both masters and leases carry generation counters,
// so a reference held past reuse is detected instead of silently reading recycled data
package palette

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lixenwraith/slivers/status"
)

// ErrStaleLease is returned when a lease no longer owns its range
var ErrStaleLease = errors.New("palette: stale lease")

// MaxSize bounds table size so entry indices fit a Lease
const MaxSize = 1 << 16

// MasterRef is a non-owning reference to a master entry
// Zero value refers to nothing
type MasterRef struct {
	Index uint16
	Gen   uint32
}

// IsZero reports whether the reference was never assigned
func (r MasterRef) IsZero() bool { return r.Gen == 0 }

// Lease is a temporary claim on Count contiguous entries starting at Start
// Zero value is the invalid lease returned on exhaustion
type Lease struct {
	Start uint16
	Count uint16
	Gen   uint32
}

// Held reports whether the lease was ever granted; ownership is checked by Table.Valid
func (l Lease) Held() bool { return l.Count > 0 && l.Gen != 0 }

// Hint describes the range a borrower wants
type Hint struct {
	Master MasterRef // Color the range is shaded from
	Count  int       // Preferred range length; degraded down to 1 on fragmentation
}

// Table is the color table manager
// Not safe for concurrent use: acquire/release happen on the frame goroutine
type Table struct {
	colors    []RGB
	masterGen []uint32
	owner     []uint32 // Lease generation per entry, 0 = free
	masters   int

	nextGen   uint32
	leased    int
	rampFloor float64

	log *zap.SugaredLogger

	statLeased    *atomic.Int64
	statDegraded  *atomic.Int64
	statExhausted *atomic.Int64
	statStale     *atomic.Int64
}

// NewTable creates a table of size entries with the first masters reserved
// Sizes are clamped so at least one entry is lendable
func NewTable(size, masters int, reg *status.Registry, log *zap.SugaredLogger) *Table {
	if size > MaxSize {
		size = MaxSize
	}
	if size < 2 {
		size = 2
	}
	if masters < 0 {
		masters = 0
	}
	if masters > size-1 {
		masters = size - 1
	}
	if reg == nil {
		reg = status.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Table{
		colors:        make([]RGB, size),
		masterGen:     make([]uint32, masters),
		owner:         make([]uint32, size),
		masters:       masters,
		rampFloor:     0.25,
		log:           log,
		statLeased:    reg.Ints.Get("palette.leased"),
		statDegraded:  reg.Ints.Get("palette.degraded"),
		statExhausted: reg.Ints.Get("palette.exhausted"),
		statStale:     reg.Ints.Get("palette.stale"),
	}
}

// SetRampFloor sets the brightness of the darkest shade in generated ramps (0.0-1.0)
func (t *Table) SetRampFloor(floor float64) {
	if floor < 0 {
		floor = 0
	}
	if floor > 1 {
		floor = 1
	}
	t.rampFloor = floor
}

func (t *Table) Size() int    { return len(t.colors) }
func (t *Table) Masters() int { return t.masters }

// LeasedEntries returns the number of lendable entries currently on loan
func (t *Table) LeasedEntries() int { return t.leased }

// FreeEntries returns the number of lendable entries not on loan
func (t *Table) FreeEntries() int { return len(t.colors) - t.masters - t.leased }

// Entry returns the color stored at index i
func (t *Table) Entry(i int) RGB {
	if i < 0 || i >= len(t.colors) {
		return RGBBlack
	}
	return t.colors[i]
}

// --- Masters ---

// SetMaster stores c at master index i and returns a fresh reference
// Earlier references to i become stale
func (t *Table) SetMaster(i int, c RGB) MasterRef {
	if i < 0 || i >= t.masters {
		return MasterRef{}
	}
	t.bumpMaster(i)
	t.colors[i] = c
	return MasterRef{Index: uint16(i), Gen: t.masterGen[i]}
}

// RecycleMaster invalidates every outstanding reference to master i
func (t *Table) RecycleMaster(i int) {
	if i < 0 || i >= t.masters {
		return
	}
	t.bumpMaster(i)
	t.colors[i] = RGBBlack
}

func (t *Table) bumpMaster(i int) {
	t.masterGen[i]++
	if t.masterGen[i] == 0 {
		t.masterGen[i] = 1
	}
}

// Master resolves ref, false if it was never set or its entry has been reused
func (t *Table) Master(ref MasterRef) (RGB, bool) {
	if ref.IsZero() || int(ref.Index) >= t.masters {
		return RGBBlack, false
	}
	if t.masterGen[ref.Index] != ref.Gen {
		return RGBBlack, false
	}
	return t.colors[ref.Index], true
}

// --- Leases ---

// AcquireRange lends a contiguous range shaded from the hinted master
// Falls back to progressively shorter ranges when no run of the hinted length is free
// Returns the zero Lease when the lendable region is completely full
func (t *Table) AcquireRange(h Hint) Lease {
	want := h.Count
	if want < 1 {
		want = 1
	}
	if lendable := len(t.colors) - t.masters; want > lendable {
		want = lendable
	}

	for n := want; n >= 1; n /= 2 {
		start := t.findRun(n)
		if start < 0 {
			continue
		}

		gen := t.allocGen()
		for i := start; i < start+n; i++ {
			t.owner[i] = gen
		}
		t.leased += n
		t.statLeased.Add(int64(n))
		if n < want {
			t.statDegraded.Add(1)
		}

		base, ok := t.Master(h.Master)
		if !ok {
			base = RGBFallback
		}
		fillRamp(t.colors[start:start+n], base, t.rampFloor)

		return Lease{Start: uint16(start), Count: uint16(n), Gen: gen}
	}

	t.statExhausted.Add(1)
	t.log.Debugw("palette exhausted", "want", want, "leased", t.leased)
	return Lease{}
}

// ReleaseRange returns a lease's entries to the free region
// Releasing a lease that no longer owns its range changes nothing and reports ErrStaleLease
func (t *Table) ReleaseRange(l Lease) error {
	if !t.Valid(l) {
		t.statStale.Add(1)
		return fmt.Errorf("%w: start=%d count=%d gen=%d", ErrStaleLease, l.Start, l.Count, l.Gen)
	}

	end := int(l.Start) + int(l.Count)
	for i := int(l.Start); i < end; i++ {
		t.owner[i] = 0
		t.colors[i] = RGBBlack
	}
	t.leased -= int(l.Count)
	t.statLeased.Add(-int64(l.Count))
	return nil
}

// Valid reports whether l currently owns every entry of its range
func (t *Table) Valid(l Lease) bool {
	if !l.Held() {
		return false
	}
	start, end := int(l.Start), int(l.Start)+int(l.Count)
	if start < t.masters || end > len(t.colors) {
		return false
	}
	for i := start; i < end; i++ {
		if t.owner[i] != l.Gen {
			return false
		}
	}
	return true
}

// Ramp returns the leased shades, brightest first; nil for an invalid lease
// The slice aliases table storage and must not be modified
func (t *Table) Ramp(l Lease) []RGB {
	if !t.Valid(l) {
		return nil
	}
	end := int(l.Start) + int(l.Count)
	return t.colors[l.Start:end:end]
}

// findRun returns the first index of n consecutive free lendable entries, -1 if none
func (t *Table) findRun(n int) int {
	run := 0
	for i := t.masters; i < len(t.owner); i++ {
		if t.owner[i] != 0 {
			run = 0
			continue
		}
		run++
		if run == n {
			return i - n + 1
		}
	}
	return -1
}

func (t *Table) allocGen() uint32 {
	t.nextGen++
	if t.nextGen == 0 {
		t.nextGen = 1
	}
	return t.nextGen
}
