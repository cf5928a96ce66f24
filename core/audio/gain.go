package audio

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
)

const (
	normFactorMin = 0.1
	normFactorMax = 4.0

	// fadeEpsilon is the lowest gain a fade ever targets. Exactly zero is
	// never used: an exponential ramp cannot reach a zero endpoint.
	fadeEpsilon = 0.001

	// fadeMargin is added on top of a fade duration before its completion
	// signal fires.
	fadeMargin = 50 * time.Millisecond
)

// NormalizationFactor converts a loudness offset in dB into the linear
// multiplier of the normalization stage, clamped to [0.1, 4.0].
func NormalizationFactor(loudnessDB float64) float64 {
	factor := math.Pow(10, loudnessDB/20)
	if factor < normFactorMin {
		return normFactorMin
	}
	if factor > normFactorMax {
		return normFactorMax
	}
	return factor
}

// NormGain is the per-track constant gain stage. The factor changes only at
// track boundaries or on the normalization toggle, with no ramp.
type NormGain struct {
	mu     sync.Mutex
	factor float64
	src    beep.Streamer
}

// NewNormGain returns a pass-through normalization stage.
func NewNormGain() *NormGain {
	return &NormGain{factor: 1.0}
}

// SetFactor replaces the multiplier immediately.
func (g *NormGain) SetFactor(factor float64) {
	g.mu.Lock()
	g.factor = factor
	g.mu.Unlock()
}

// Factor returns the current multiplier.
func (g *NormGain) Factor() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.factor
}

// Bind attaches the upstream source.
func (g *NormGain) Bind(src beep.Streamer) {
	g.mu.Lock()
	g.src = src
	g.mu.Unlock()
}

// Stream implements beep.Streamer.
func (g *NormGain) Stream(samples [][2]float64) (int, bool) {
	g.mu.Lock()
	src, factor := g.src, g.factor
	g.mu.Unlock()
	if src == nil {
		return 0, false
	}
	n, ok := src.Stream(samples)
	if factor != 1.0 {
		for s := 0; s < n; s++ {
			samples[s][0] *= factor
			samples[s][1] *= factor
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (g *NormGain) Err() error {
	g.mu.Lock()
	src := g.src
	g.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Err()
}

// FadeGain is the time-varying gain stage used at track boundaries. Ramps
// are exponential: linear gain ramps sound abrupt near silence.
type FadeGain struct {
	mu         sync.Mutex
	sampleRate float64
	gain       float64
	target     float64
	step       float64 // per-sample multiplicative step; 1 = no ramp
	src        beep.Streamer
}

// NewFadeGain returns a fade stage at unity gain.
func NewFadeGain(sampleRate float64) *FadeGain {
	return &FadeGain{sampleRate: sampleRate, gain: 1.0, target: 1.0, step: 1.0}
}

// SetSampleRate fixes the ramp timebase once the device rate is known.
func (g *FadeGain) SetSampleRate(sampleRate float64) {
	g.mu.Lock()
	g.sampleRate = sampleRate
	g.mu.Unlock()
}

// Gain returns the current multiplier.
func (g *FadeGain) Gain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gain
}

// rampTo starts an exponential ramp from the current gain to target over d.
// Caller holds g.mu.
func (g *FadeGain) rampTo(target float64, d time.Duration) {
	if g.gain < fadeEpsilon {
		g.gain = fadeEpsilon
	}
	g.target = target
	n := g.sampleRate * d.Seconds()
	if n < 1 {
		g.gain = target
		g.step = 1.0
		return
	}
	g.step = math.Pow(target/g.gain, 1/n)
}

// FadeOut ramps the gain to near-zero over d. The returned channel closes
// after d plus a small margin, wall-clock driven, so completion fires even
// when no samples are flowing yet.
func (g *FadeGain) FadeOut(d time.Duration) <-chan struct{} {
	g.mu.Lock()
	g.rampTo(fadeEpsilon, d)
	g.mu.Unlock()

	done := make(chan struct{})
	time.AfterFunc(d+fadeMargin, func() {
		g.mu.Lock()
		g.gain = fadeEpsilon
		g.step = 1.0
		g.mu.Unlock()
		close(done)
	})
	return done
}

// FadeIn resets the gain to near-zero and ramps it up to unity over d.
func (g *FadeGain) FadeIn(d time.Duration) {
	g.mu.Lock()
	g.gain = fadeEpsilon
	g.rampTo(1.0, d)
	g.mu.Unlock()
}

// Reset snaps the gain back to unity, for transitions with fades disabled.
func (g *FadeGain) Reset() {
	g.mu.Lock()
	g.gain = 1.0
	g.target = 1.0
	g.step = 1.0
	g.mu.Unlock()
}

// Bind attaches the upstream source.
func (g *FadeGain) Bind(src beep.Streamer) {
	g.mu.Lock()
	g.src = src
	g.mu.Unlock()
}

// Stream implements beep.Streamer, advancing the ramp per sample.
func (g *FadeGain) Stream(samples [][2]float64) (int, bool) {
	g.mu.Lock()
	src := g.src
	g.mu.Unlock()
	if src == nil {
		return 0, false
	}
	n, ok := src.Stream(samples)

	g.mu.Lock()
	defer g.mu.Unlock()
	for s := 0; s < n; s++ {
		samples[s][0] *= g.gain
		samples[s][1] *= g.gain
		if g.step != 1.0 {
			g.gain *= g.step
			if (g.step > 1 && g.gain >= g.target) || (g.step < 1 && g.gain <= g.target) {
				g.gain = g.target
				g.step = 1.0
			}
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (g *FadeGain) Err() error {
	g.mu.Lock()
	src := g.src
	g.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Err()
}
