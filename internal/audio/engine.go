// Package audio synthesizes an engine note that follows the drivetrain RPM.
package audio

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	cylinders  = 4
	// glide is the rate (1/s) at which pitch and volume follow their targets.
	glide = 12.0
)

// FiringFrequency returns the fundamental of a four-stroke engine at rpm.
func FiringFrequency(rpm float64, cylinders int) float64 {
	if rpm <= 0 || cylinders <= 0 {
		return 0
	}
	return rpm / 60 * float64(cylinders) / 2
}

// EngineNote is an endless streamer whose pitch and loudness follow the
// values last passed to Set. Set may be called from any goroutine.
type EngineNote struct {
	rate beep.SampleRate

	targetFreq atomic.Uint64 // float64 bits
	targetGain atomic.Uint64

	freq  float64
	gain  float64
	phase float64
	sub   float64
}

// NewEngineNote creates a silent note.
func NewEngineNote(rate beep.SampleRate) *EngineNote {
	return &EngineNote{rate: rate}
}

// Set retargets the note to rpm with loudness rising with throttle.
func (e *EngineNote) Set(rpm, throttle float64) {
	e.targetFreq.Store(math.Float64bits(FiringFrequency(rpm, cylinders)))
	gain := 0.0
	if rpm > 0 {
		gain = 0.25 + 0.5*math.Max(0, math.Min(1, throttle))
	}
	e.targetGain.Store(math.Float64bits(gain))
}

// Frequency returns the current pitch in Hz.
func (e *EngineNote) Frequency() float64 { return e.freq }

func (e *EngineNote) Stream(samples [][2]float64) (n int, ok bool) {
	tf := math.Float64frombits(e.targetFreq.Load())
	tg := math.Float64frombits(e.targetGain.Load())
	k := 1 - math.Exp(-glide/float64(e.rate))
	for i := range samples {
		e.freq += (tf - e.freq) * k
		e.gain += (tg - e.gain) * k

		// sawtooth for the firing pulses plus a sine an octave below
		saw := 2*e.phase - 1
		val := e.gain * (0.6*saw + 0.4*math.Sin(2*math.Pi*e.sub))
		samples[i][0] = val
		samples[i][1] = val

		step := e.freq / float64(e.rate)
		e.phase += step
		e.phase -= math.Floor(e.phase)
		e.sub += step / 2
		e.sub -= math.Floor(e.sub)
	}
	return len(samples), true
}

func (e *EngineNote) Err() error { return nil }

// Player plays one EngineNote on the speaker.
type Player struct {
	mu          sync.Mutex
	note        *EngineNote
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	initialized bool
}

// NewPlayer creates a player. Nothing is audible until Init.
func NewPlayer() *Player {
	note := NewEngineNote(sampleRate)
	ctrl := &beep.Ctrl{Streamer: note}
	return &Player{
		note:   note,
		ctrl:   ctrl,
		volume: &effects.Volume{Streamer: ctrl, Base: 2, Volume: -1},
	}
}

// Init opens the speaker and starts playback.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.volume)
	p.initialized = true
	return nil
}

// Update retargets the note.
func (p *Player) Update(rpm, throttle float64) { p.note.Set(rpm, throttle) }

// SetMuted pauses or resumes the note.
func (p *Player) SetMuted(muted bool) {
	speaker.Lock()
	p.ctrl.Paused = muted
	speaker.Unlock()
}

// Close stops playback.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Clear()
	p.initialized = false
}
