package sliver

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/part"
	"github.com/lixenwraith/slivers/status"
	"github.com/lixenwraith/slivers/vmath"
)

// PoolConfig sizes and seeds a Pool
type PoolConfig struct {
	Capacity int
	Seed     uint64
	Tuning   Tuning
}

// Pool owns a fixed array of slivers with an index free stack and a dense active list
// Activate and recycle are O(1); nothing allocates after construction
// Not safe for concurrent use: the frame goroutine is the only caller
type Pool struct {
	slots  []Sliver
	free   []int // Stack of FREE slot indices
	active []int // ACTIVE slot indices; slot.ListPos() is its position here

	table  *palette.Table
	tuning Tuning
	rng    *vmath.FastRand
	log    *zap.SugaredLogger

	statSpawned  *atomic.Int64
	statExpired  *atomic.Int64
	statReleased *atomic.Int64
	statActive   *atomic.Int64
	statStarved  *atomic.Int64
	statUnshaded *atomic.Int64
}

// NewPool pre-allocates cfg.Capacity slivers bound to table
func NewPool(cfg PoolConfig, table *palette.Table, reg *status.Registry, log *zap.SugaredLogger) *Pool {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if reg == nil {
		reg = status.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	p := &Pool{
		slots:  make([]Sliver, cfg.Capacity),
		free:   make([]int, 0, cfg.Capacity),
		active: make([]int, 0, cfg.Capacity),
		table:  table,
		tuning: cfg.Tuning,
		rng:    vmath.NewFastRand(cfg.Seed),
		log:    log,

		statSpawned:  reg.Ints.Get("sliver.spawned"),
		statExpired:  reg.Ints.Get("sliver.expired"),
		statReleased: reg.Ints.Get("sliver.released"),
		statActive:   reg.Ints.Get("sliver.active"),
		statStarved:  reg.Ints.Get("sliver.starved"),
		statUnshaded: reg.Ints.Get("sliver.unshaded"),
	}

	// Low indices pop first
	for i := cfg.Capacity - 1; i >= 0; i-- {
		p.slots[i].Initialize(i, table, log)
		p.free = append(p.free, i)
	}
	p.statActive.Store(0)

	log.Debugw("sliver pool ready", "capacity", cfg.Capacity, "shades", cfg.Tuning.ShadeCount)
	return p
}

func (p *Pool) Capacity() int { return len(p.slots) }
func (p *Pool) ActiveCount() int { return len(p.active) }
func (p *Pool) FreeCount() int { return len(p.free) }
func (p *Pool) Table() *palette.Table { return p.table }
func (p *Pool) Tuning() Tuning { return p.tuning }

// GetFreeParticle returns the sliver the next Spawn will use, without claiming it
func (p *Pool) GetFreeParticle() (*Sliver, bool) {
	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	return &p.slots[p.free[n-1]], true
}

// Spawn claims a FREE sliver and activates it
// Reports false when no sliver is free or the palette cannot lend a shade; pool state is unchanged then
func (p *Pool) Spawn(a Activation) (*Sliver, bool) {
	s, ok := p.GetFreeParticle()
	if !ok {
		p.statStarved.Add(1)
		p.log.Debugw("sliver pool starved", "capacity", len(p.slots))
		return nil, false
	}

	if !s.Activate(a, p.rng, &p.tuning) {
		p.statUnshaded.Add(1)
		return nil, false
	}

	p.free = p.free[:len(p.free)-1]
	s.SetListPos(len(p.active))
	p.active = append(p.active, s.Index())

	p.statSpawned.Add(1)
	p.statActive.Store(int64(len(p.active)))
	return s, true
}

// ActivateBatch spawns up to count slivers sharing a, each with a random age in [ageMin, ageMax]
// Stops at the first failure and returns the number activated
func (p *Pool) ActivateBatch(count int, a Activation, ageMin, ageMax int) int {
	spawned := 0
	for i := 0; i < count; i++ {
		a.Age = p.rng.Range(ageMin, ageMax)
		if _, ok := p.Spawn(a); !ok {
			break
		}
		spawned++
	}
	return spawned
}

// SweepAndRecycle updates every active sliver once and recycles the ones that expire
// Returns the number recycled
func (p *Pool) SweepAndRecycle() int {
	expired := 0
	for i := 0; i < len(p.active); {
		// A sliver disposed outside the pool is detached but still listed; Update reports it expired
		if p.slots[p.active[i]].Update() {
			// Swap-remove pulls an unvisited sliver into i
			p.recycleAt(i)
			expired++
			continue
		}
		i++
	}

	if expired > 0 {
		p.statExpired.Add(int64(expired))
		p.statActive.Store(int64(len(p.active)))
	}
	return expired
}

// Release ends one active sliver early
// Returns false if s is not an active member of this pool
func (p *Pool) Release(s *Sliver) bool {
	if !p.owns(s) || !s.Linked() {
		return false
	}
	p.recycleAt(s.ListPos())
	p.statReleased.Add(1)
	p.statActive.Store(int64(len(p.active)))
	return true
}

// Reset disposes every active sliver
func (p *Pool) Reset() {
	n := len(p.active)
	for len(p.active) > 0 {
		p.recycleAt(len(p.active) - 1)
	}
	p.statReleased.Add(int64(n))
	p.statActive.Store(0)
	if n > 0 {
		p.log.Debugw("sliver pool reset", "released", n)
	}
}

// Each visits active slivers in list order
func (p *Pool) Each(fn func(s *Sliver)) {
	for _, idx := range p.active {
		fn(&p.slots[idx])
	}
}

// Draw invokes the draw hook of every active sliver
func (p *Pool) Draw(c part.Canvas) {
	for _, idx := range p.active {
		p.slots[idx].Draw(c)
	}
}

func (p *Pool) owns(s *Sliver) bool {
	if s == nil {
		return false
	}
	idx := s.Index()
	return idx >= 0 && idx < len(p.slots) && &p.slots[idx] == s
}

// recycleAt unlinks the sliver at active list position pos, disposes it, and pushes it on the free stack
// The position comes from the list, not the sliver, so detached slivers recycle safely
func (p *Pool) recycleAt(pos int) {
	idx := p.active[pos]
	last := len(p.active) - 1
	moved := p.active[last]
	p.active[pos] = moved
	p.slots[moved].SetListPos(pos)
	p.active = p.active[:last]

	s := &p.slots[idx]
	s.Dispose()
	p.free = append(p.free, idx)
}
