package analyze

import (
	"math"
	"testing"
)

func sine(freq, amplitude float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestMeasureSamples(t *testing.T) {
	t.Run("full scale sine", func(t *testing.T) {
		// RMS of a unit sine is 1/sqrt(2), about -3 dBFS
		got := MeasureSamples(sine(441, 1.0, 44100, 44100))
		if math.Abs(got-(-3.01)) > 0.5 {
			t.Errorf("loudness = %.2f dB, want about -3.01", got)
		}
	})

	t.Run("half amplitude is six dB quieter", func(t *testing.T) {
		full := MeasureSamples(sine(441, 1.0, 44100, 44100))
		half := MeasureSamples(sine(441, 0.5, 44100, 44100))
		if diff := full - half; math.Abs(diff-6.02) > 0.5 {
			t.Errorf("level difference = %.2f dB, want about 6.02", diff)
		}
	})

	t.Run("silence hits the floor", func(t *testing.T) {
		if got := MeasureSamples(make([]float64, 44100)); got != silenceFloorDB {
			t.Errorf("silence = %v, want %v", got, silenceFloorDB)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := MeasureSamples(nil); got != silenceFloorDB {
			t.Errorf("empty = %v, want %v", got, silenceFloorDB)
		}
	})

	t.Run("short input uses plain rms", func(t *testing.T) {
		got := MeasureSamples(sine(441, 1.0, 44100, 512))
		if math.Abs(got-(-3.01)) > 1.0 {
			t.Errorf("short-input loudness = %.2f dB, want about -3.01", got)
		}
	})
}
