package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

// SampleRate used for every generated sound
const SampleRate = beep.SampleRate(44100)

// Player plays burst sounds through the system speaker
// A player that failed to start, or was never started, stays silent
type Player struct {
	volume float64
	log    *zap.SugaredLogger

	running atomic.Bool
	muted   atomic.Bool
	seq     atomic.Uint64
}

func NewPlayer(enabled bool, volume float64, log *zap.SugaredLogger) *Player {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	p := &Player{volume: volume, log: log}
	p.muted.Store(!enabled)
	return p
}

// Start opens the speaker; on failure the player runs silent
func (p *Player) Start() error {
	if p.running.Load() {
		return fmt.Errorf("audio player already running")
	}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		p.log.Warnw("speaker unavailable, running silent", "error", err)
		return err
	}
	p.running.Store(true)
	return nil
}

// PlayBurst queues the sound for a burst of spawned slivers; reports whether anything was queued
func (p *Player) PlayBurst(spawned int) bool {
	if spawned <= 0 || !p.running.Load() || p.muted.Load() {
		return false
	}
	speaker.Play(CreateBurstSound(spawned, p.volume, SampleRate, p.seq.Add(1)))
	return true
}

// ToggleMute flips mute and returns the new state
func (p *Player) ToggleMute() bool {
	for {
		old := p.muted.Load()
		if p.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (p *Player) IsMuted() bool   { return p.muted.Load() }
func (p *Player) IsRunning() bool { return p.running.Load() }

// Stop closes the speaker if it was started
func (p *Player) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	speaker.Close()
}
