// Package engine drives the per-frame sliver sequence: drain spawn requests, sweep, recycle
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/slivers/event"
	"github.com/lixenwraith/slivers/sliver"
	"github.com/lixenwraith/slivers/status"
)

// TickResult summarizes one frame
type TickResult struct {
	Frame    int64
	Requests int // Explosion requests drained
	Spawned  int
	Expired  int
}

// BurstFunc observes each explosion request after its slivers were spawned
type BurstFunc func(req *event.ExplosionRequest, spawned int)

// Frame owns the fixed per-frame order over one pool
// Tick and Reset must run on a single goroutine; Queue accepts pushes from any goroutine
type Frame struct {
	pool  *sliver.Pool
	queue *event.EventQueue
	buf   []event.GameEvent

	frame   int64
	onBurst BurstFunc
	log     *zap.SugaredLogger

	statTicks    *atomic.Int64
	statRequests *atomic.Int64
}

// NewFrame wires a frame driver over pool and queue
func NewFrame(pool *sliver.Pool, queue *event.EventQueue, reg *status.Registry, log *zap.SugaredLogger) *Frame {
	if reg == nil {
		reg = status.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Frame{
		pool:         pool,
		queue:        queue,
		buf:          make([]event.GameEvent, 0, 64),
		log:          log,
		statTicks:    reg.Ints.Get("engine.ticks"),
		statRequests: reg.Ints.Get("engine.requests"),
	}
}

func (f *Frame) Pool() *sliver.Pool { return f.pool }
func (f *Frame) Queue() *event.EventQueue { return f.queue }
func (f *Frame) FrameNumber() int64 { return f.frame }

// OnBurst registers a callback run on the frame goroutine after each explosion is spawned
func (f *Frame) OnBurst(fn BurstFunc) { f.onBurst = fn }

// Tick runs one frame: spawn requests, then sweep and recycle
func (f *Frame) Tick() TickResult {
	f.frame++
	res := TickResult{Frame: f.frame}

	f.buf = f.queue.ConsumeInto(f.buf[:0])
	for i := range f.buf {
		ev := &f.buf[i]
		switch ev.Type {
		case event.EventExplosionRequest:
			req := &ev.Explosion
			n := f.pool.ActivateBatch(req.Count, req.Activation(), req.AgeMin, req.AgeMax)
			res.Requests++
			res.Spawned += n
			if n < req.Count {
				f.log.Debugw("explosion truncated", "frame", f.frame, "want", req.Count, "spawned", n)
			}
			if f.onBurst != nil {
				f.onBurst(req, n)
			}
		case event.EventSliverReset:
			f.pool.Reset()
		}
	}

	res.Expired = f.pool.SweepAndRecycle()

	f.statTicks.Add(1)
	f.statRequests.Add(int64(res.Requests))
	return res
}

// Reset drops pending requests and disposes every active sliver
func (f *Frame) Reset() {
	f.buf = f.queue.ConsumeInto(f.buf[:0])
	dropped := len(f.buf)
	f.buf = f.buf[:0]
	f.pool.Reset()
	f.log.Debugw("frame reset", "frame", f.frame, "dropped", dropped)
}

// Run ticks every interval until ctx is done, calling after with each result
// Reset is applied on exit so no lease outlives the loop
func (f *Frame) Run(ctx context.Context, interval time.Duration, after func(TickResult)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer f.Reset()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := f.Tick()
			if after != nil {
				after(res)
			}
		}
	}
}
