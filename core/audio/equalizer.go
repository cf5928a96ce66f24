package audio

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// BandCount is the number of equalizer stages.
const BandCount = 10

// BandFrequencies are the fixed center frequencies of the ten stages, one
// octave apart. Stage 0 is a low-shelf, stage 9 a high-shelf, the rest are
// peaking filters.
var BandFrequencies = [BandCount]float64{
	31, 62, 125, 250, 500, 1000, 2000, 4000, 8000, 16000,
}

const (
	bandGainMin = -12.0
	bandGainMax = 12.0
	peakingQ    = 1.1
)

// biquad is a single second-order IIR stage in transposed direct form II.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

func (f *biquad) setCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

// peakingCoefficients configures f as a peaking EQ stage (RBJ cookbook).
func (f *biquad) peaking(sampleRate, freq, gainDB, q float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	f.setCoefficients(
		1+alpha*a, -2*cosw, 1-alpha*a,
		1+alpha/a, -2*cosw, 1-alpha/a,
	)
}

// lowShelf configures f as a low-shelf stage with shelf slope 1.
func (f *biquad) lowShelf(sampleRate, freq, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / 2 * math.Sqrt2

	f.setCoefficients(
		a*((a+1)-(a-1)*cosw+2*math.Sqrt(a)*alpha),
		2*a*((a-1)-(a+1)*cosw),
		a*((a+1)-(a-1)*cosw-2*math.Sqrt(a)*alpha),
		(a+1)+(a-1)*cosw+2*math.Sqrt(a)*alpha,
		-2*((a-1)+(a+1)*cosw),
		(a+1)+(a-1)*cosw-2*math.Sqrt(a)*alpha,
	)
}

// highShelf configures f as a high-shelf stage with shelf slope 1.
func (f *biquad) highShelf(sampleRate, freq, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / 2 * math.Sqrt2

	f.setCoefficients(
		a*((a+1)+(a-1)*cosw+2*math.Sqrt(a)*alpha),
		-2*a*((a-1)+(a+1)*cosw),
		a*((a+1)+(a-1)*cosw-2*math.Sqrt(a)*alpha),
		(a+1)-(a-1)*cosw+2*math.Sqrt(a)*alpha,
		2*((a-1)-(a+1)*cosw),
		(a+1)-(a-1)*cosw-2*math.Sqrt(a)*alpha,
	)
}

// Equalizer is the ten-stage filter chain. It starts uninitialized: band
// gains and the preset name are staged until Activate builds the live filter
// graph against a known sample rate. All setters follow a clamp-don't-throw
// policy so a bad UI parameter can never interrupt playback.
type Equalizer struct {
	mu         sync.Mutex
	active     bool
	sampleRate float64
	preset     string
	gains      [BandCount]float64
	filters    [2][BandCount]biquad // independent state per channel
	src        beep.Streamer
}

// NewEqualizer returns an equalizer in the uninitialized (flat) state.
func NewEqualizer() *Equalizer {
	return &Equalizer{preset: PresetFlat}
}

// Activate builds the live filter chain. It is the single transition from
// the uninitialized state; repeated calls are no-ops.
func (e *Equalizer) Activate(sampleRate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return
	}
	e.sampleRate = sampleRate
	e.active = true
	for i := 0; i < BandCount; i++ {
		e.updateStage(i)
	}
}

// Active reports whether the live filter chain exists.
func (e *Equalizer) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// updateStage recomputes coefficients for stage i. Caller holds e.mu.
func (e *Equalizer) updateStage(i int) {
	gain := math.Max(bandGainMin, math.Min(bandGainMax, e.gains[i]))
	for ch := 0; ch < 2; ch++ {
		f := &e.filters[ch][i]
		switch i {
		case 0:
			f.lowShelf(e.sampleRate, BandFrequencies[i], gain)
		case BandCount - 1:
			f.highShelf(e.sampleRate, BandFrequencies[i], gain)
		default:
			f.peaking(e.sampleRate, BandFrequencies[i], gain, peakingQ)
		}
	}
}

// SetBandGain sets one band's gain in dB. Out-of-range indexes are ignored.
func (e *Equalizer) SetBandGain(i int, gainDB float64) {
	if i < 0 || i >= BandCount {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gains[i] = gainDB
	e.preset = PresetCustom
	if e.active {
		e.updateStage(i)
	}
}

// BandGain returns one band's gain in dB, 0 for out-of-range indexes.
func (e *Equalizer) BandGain(i int) float64 {
	if i < 0 || i >= BandCount {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gains[i]
}

// Bands returns a snapshot of all ten band gains.
func (e *Equalizer) Bands() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float64, BandCount)
	copy(out, e.gains[:])
	return out
}

// SetBands applies all ten gains atomically. Slices of any other length are
// ignored so a partial application is never observable.
func (e *Equalizer) SetBands(values []float64) bool {
	if len(values) != BandCount {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.gains[:], values)
	e.preset = PresetCustom
	if e.active {
		for i := 0; i < BandCount; i++ {
			e.updateStage(i)
		}
	}
	return true
}

// Preset returns the name of the preset currently in effect.
func (e *Equalizer) Preset() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preset
}

// setPreset records the preset name without touching gains. Used by
// ApplyPreset and restore.
func (e *Equalizer) setPreset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preset = name
}

// Bind attaches the upstream source. nil detaches it.
func (e *Equalizer) Bind(src beep.Streamer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = src
	// fresh filter state per source, stale energy from the previous track
	// must not bleed into the next
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < BandCount; i++ {
			e.filters[ch][i].z1 = 0
			e.filters[ch][i].z2 = 0
		}
	}
}

// Stream implements beep.Streamer, running samples through the ten stages.
func (e *Equalizer) Stream(samples [][2]float64) (int, bool) {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return 0, false
	}

	n, ok := src.Stream(samples)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return n, ok
	}
	for s := 0; s < n; s++ {
		for ch := 0; ch < 2; ch++ {
			x := samples[s][ch]
			for i := 0; i < BandCount; i++ {
				x = e.filters[ch][i].process(x)
			}
			samples[s][ch] = x
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (e *Equalizer) Err() error {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Err()
}
