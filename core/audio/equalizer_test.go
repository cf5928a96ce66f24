package audio

import (
	"math"
	"testing"
)

// constStreamer emits a fixed sample value on both channels.
type constStreamer struct {
	value float64
}

func (s constStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i][0] = s.value
		samples[i][1] = s.value
	}
	return len(samples), true
}

func (s constStreamer) Err() error { return nil }

func TestSetBandGain(t *testing.T) {
	t.Run("valid band switches to custom", func(t *testing.T) {
		eq := NewEqualizer()
		eq.SetBandGain(3, 5.5)
		if got := eq.BandGain(3); got != 5.5 {
			t.Errorf("BandGain(3) = %v, want 5.5", got)
		}
		if eq.Preset() != PresetCustom {
			t.Errorf("Preset() = %q, want %q", eq.Preset(), PresetCustom)
		}
	})

	t.Run("out of range index is ignored", func(t *testing.T) {
		eq := NewEqualizer()
		eq.SetBandGain(-1, 6)
		eq.SetBandGain(BandCount, 6)
		for i, g := range eq.Bands() {
			if g != 0 {
				t.Errorf("band %d = %v after out-of-range writes, want 0", i, g)
			}
		}
		if eq.Preset() != PresetFlat {
			t.Errorf("Preset() = %q, want %q", eq.Preset(), PresetFlat)
		}
		if got := eq.BandGain(BandCount); got != 0 {
			t.Errorf("BandGain(out of range) = %v, want 0", got)
		}
	})
}

func TestSetBands(t *testing.T) {
	eq := NewEqualizer()
	eq.SetBandGain(0, 3)

	t.Run("wrong length rejected", func(t *testing.T) {
		if eq.SetBands([]float64{1, 2, 3, 4, 5, 6, 7}) {
			t.Fatal("SetBands accepted a 7-element slice")
		}
		if got := eq.BandGain(0); got != 3 {
			t.Errorf("band 0 = %v after rejected write, want 3", got)
		}
	})

	t.Run("full set applied", func(t *testing.T) {
		want := []float64{1, 2, 3, 4, 5, -1, -2, -3, -4, -5}
		if !eq.SetBands(want) {
			t.Fatal("SetBands rejected a 10-element slice")
		}
		got := eq.Bands()
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("band %d = %v, want %v", i, got[i], want[i])
			}
		}
	})
}

func TestApplyPreset(t *testing.T) {
	t.Run("known preset", func(t *testing.T) {
		eq := NewEqualizer()
		values, ok := eq.ApplyPreset(PresetRock)
		if !ok {
			t.Fatal("ApplyPreset(Rock) failed")
		}
		if eq.Preset() != PresetRock {
			t.Errorf("Preset() = %q, want %q", eq.Preset(), PresetRock)
		}
		got := eq.Bands()
		for i := range values {
			if got[i] != values[i] {
				t.Errorf("band %d = %v, want %v", i, got[i], values[i])
			}
		}
	})

	t.Run("unknown preset leaves state alone", func(t *testing.T) {
		eq := NewEqualizer()
		eq.ApplyPreset(PresetJazz)
		before := eq.Bands()
		if _, ok := eq.ApplyPreset("Polka"); ok {
			t.Fatal("ApplyPreset accepted an unknown name")
		}
		if eq.Preset() != PresetJazz {
			t.Errorf("Preset() = %q, want %q", eq.Preset(), PresetJazz)
		}
		after := eq.Bands()
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("band %d changed from %v to %v", i, before[i], after[i])
			}
		}
	})
}

func TestActivateOnce(t *testing.T) {
	eq := NewEqualizer()
	if eq.Active() {
		t.Fatal("new equalizer reports active")
	}
	eq.Activate(44100)
	if !eq.Active() {
		t.Fatal("equalizer not active after Activate")
	}
	// second call must not rebuild anything
	eq.Activate(48000)
	if eq.sampleRate != 44100 {
		t.Errorf("sampleRate = %v after repeat Activate, want 44100", eq.sampleRate)
	}
}

func TestStreamFlatPassthrough(t *testing.T) {
	eq := NewEqualizer()
	eq.Activate(44100)
	eq.Bind(constStreamer{value: 0.5})

	buf := make([][2]float64, 256)
	n, ok := eq.Stream(buf)
	if !ok || n != len(buf) {
		t.Fatalf("Stream returned (%d, %v)", n, ok)
	}
	// all stages at 0 dB are identity filters
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			if math.Abs(buf[i][ch]-0.5) > 1e-9 {
				t.Fatalf("sample %d ch %d = %v, want 0.5", i, ch, buf[i][ch])
			}
		}
	}
}

func TestStreamWithoutSource(t *testing.T) {
	eq := NewEqualizer()
	n, ok := eq.Stream(make([][2]float64, 16))
	if n != 0 || ok {
		t.Errorf("Stream with no source = (%d, %v), want (0, false)", n, ok)
	}
}

func TestBoostChangesSignal(t *testing.T) {
	eq := NewEqualizer()
	eq.Activate(44100)
	eq.SetBandGain(0, 12)
	eq.Bind(constStreamer{value: 0.1})

	buf := make([][2]float64, 4096)
	eq.Stream(buf)

	// 直流分量落在低搁架内，应被增益放大
	last := buf[len(buf)-1][0]
	if last <= 0.1 {
		t.Errorf("low-shelf boost did not amplify DC input: got %v", last)
	}
}
