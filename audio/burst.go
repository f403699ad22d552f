package audio

import (
	"time"

	"github.com/gopxl/beep"
)

const (
	burstBaseDuration = 60 * time.Millisecond
	burstMaxDuration  = 220 * time.Millisecond
	burstAttack       = 2 * time.Millisecond
	thumpMaxFreq      = 180.0
	thumpMinFreq      = 55.0
)

// BurstDuration grows with the number of slivers spawned, capped at burstMaxDuration
func BurstDuration(spawned int) time.Duration {
	d := burstBaseDuration + time.Duration(spawned)*2*time.Millisecond
	return min(d, burstMaxDuration)
}

// thumpFreq falls from thumpMaxFreq toward thumpMinFreq as bursts get larger
func thumpFreq(spawned int) float64 {
	return thumpMinFreq + (thumpMaxFreq-thumpMinFreq)/(1+float64(spawned)/8)
}

// CreateBurstSound mixes a noise crackle with a low sine thump sized to the burst
func CreateBurstSound(spawned int, volume float64, rate beep.SampleRate, seed uint64) beep.Streamer {
	d := BurstDuration(spawned)

	crackle := NewOscillator(0, d, WaveNoise, rate, seed)
	crackleShaped := NewEnvelope(crackle, d, burstAttack, d*3/4, rate)

	thump := NewOscillator(thumpFreq(spawned), d, WaveSine, rate, 0)
	thumpShaped := NewEnvelope(thump, d, burstAttack, d/2, rate)

	mixed := beep.Mix(
		newVolume(crackleShaped, 0.4),
		newVolume(thumpShaped, 0.6),
	)
	return newVolume(mixed, volume)
}
