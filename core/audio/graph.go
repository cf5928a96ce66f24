package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"MacanFM/logger"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
)

// graphSampleRate is the fixed device rate; sources at other rates are
// resampled into it.
const graphSampleRate = beep.SampleRate(44100)

// ErrDeviceUnavailable wraps a failed audio device initialization.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Graph owns the audio signal path
//
//	source → equalizer → normalization gain → fade gain → volume → output
//
// The path is assembled exactly once per process. Construction of the device
// context is deferred until the first play gesture (or restored-session
// hydration) so startup stays cheap when nothing is queued.
type Graph struct {
	mu        sync.Mutex
	assembled bool

	eq     *Equalizer
	norm   *NormGain
	fade   *FadeGain
	volume *effects.Volume
	ctrl   *beep.Ctrl
}

// NewGraph creates an unassembled graph around the given equalizer.
func NewGraph(eq *Equalizer) *Graph {
	return &Graph{
		eq:   eq,
		norm: NewNormGain(),
		fade: NewFadeGain(float64(graphSampleRate)),
	}
}

// Assemble initializes the device and wires the chain. Idempotent: repeat
// calls return (false, nil) without touching the existing graph.
func (g *Graph) Assemble() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.assembled {
		return false, nil
	}

	if err := speaker.Init(graphSampleRate, graphSampleRate.N(100*time.Millisecond)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	g.eq.Activate(float64(graphSampleRate))
	g.fade.SetSampleRate(float64(graphSampleRate))

	// static portion of the chain; the source is rebound per track
	g.norm.Bind(g.eq)
	g.fade.Bind(g.norm)
	g.volume = &effects.Volume{Streamer: g.fade, Base: 2}
	g.ctrl = &beep.Ctrl{Streamer: nil}

	g.assembled = true
	logger.Info("audio graph assembled", logger.Int("sampleRate", int(graphSampleRate)))
	return true, nil
}

// Assembled reports whether the device and chain exist.
func (g *Graph) Assembled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.assembled
}

// Equalizer returns the equalizer node.
func (g *Graph) Equalizer() *Equalizer {
	return g.eq
}

// SetNormalization replaces the normalization multiplier (no ramp).
func (g *Graph) SetNormalization(factor float64) {
	g.norm.SetFactor(factor)
}

// FadeOut ramps the fade stage to near-silence; the channel closes when the
// fade is complete.
func (g *Graph) FadeOut(d time.Duration) <-chan struct{} {
	return g.fade.FadeOut(d)
}

// FadeIn ramps the fade stage from near-silence to unity.
func (g *Graph) FadeIn(d time.Duration) {
	g.fade.FadeIn(d)
}

// ResetFade snaps the fade stage back to unity gain.
func (g *Graph) ResetFade() {
	g.fade.Reset()
}

// Play binds src as the chain's source and starts the speaker on it. onEnd
// fires once the source is exhausted.
func (g *Graph) Play(src beep.Streamer, srcRate beep.SampleRate, onEnd func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.assembled {
		return fmt.Errorf("audio graph not assembled")
	}

	if srcRate != graphSampleRate {
		src = beep.Resample(4, srcRate, graphSampleRate, src)
	}

	speaker.Clear()
	speaker.Lock()
	g.eq.Bind(src)
	g.ctrl = &beep.Ctrl{Streamer: beep.Seq(g.volume, beep.Callback(onEnd))}
	speaker.Unlock()
	speaker.Play(g.ctrl)
	return nil
}

// Stop clears the speaker and detaches the source.
func (g *Graph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.assembled {
		return
	}
	speaker.Clear()
	speaker.Lock()
	g.eq.Bind(nil)
	speaker.Unlock()
}

// SetPaused pauses or resumes the speaker without tearing the chain down.
func (g *Graph) SetPaused(paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.assembled || g.ctrl == nil {
		return
	}
	speaker.Lock()
	g.ctrl.Paused = paused
	speaker.Unlock()
}

// SetVolume maps a 0-100 percent value onto the volume stage. 0 or muted is
// full silence.
func (g *Graph) SetVolume(percent int, muted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.assembled {
		return
	}
	speaker.Lock()
	if percent <= 0 || muted {
		g.volume.Silent = true
	} else {
		g.volume.Silent = false
		g.volume.Volume = math.Log2(float64(percent) / 100)
	}
	speaker.Unlock()
}

// WithSourceLock runs fn while holding the speaker lock, for seek and
// position reads against the live source.
func (g *Graph) WithSourceLock(fn func()) {
	g.mu.Lock()
	assembled := g.assembled
	g.mu.Unlock()
	if !assembled {
		fn()
		return
	}
	speaker.Lock()
	fn()
	speaker.Unlock()
}
