package analyze

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/window"
)

// blockSize is the analysis window length in samples. At 44.1kHz a block
// is roughly 93ms, short enough to follow loudness over time.
const blockSize = 4096

// silenceFloorDB is reported for files with no measurable signal.
const silenceFloorDB = -70.0

// MeasureWAV computes the windowed RMS loudness of a wav file in dBFS.
// Channels are averaged into mono before analysis.
func MeasureWAV(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("not a valid wav file: %s", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return 0, fmt.Errorf("failed to read pcm data: %w", err)
	}
	return MeasureSamples(downmix(buf, int(decoder.BitDepth))), nil
}

// downmix averages an interleaved PCM buffer into normalized mono samples.
func downmix(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 || len(buf.Data) == 0 {
		return nil
	}
	channels := buf.Format.NumChannels
	scale := float64(int(1) << (uint(bitDepth) - 1))
	mono := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i+c]) / scale
		}
		mono = append(mono, sum/float64(channels))
	}
	return mono
}

// MeasureSamples computes the loudness of normalized mono samples
// (nominal range -1..1) in dBFS by averaging Hann-windowed block energy.
func MeasureSamples(samples []float64) float64 {
	if len(samples) == 0 {
		return silenceFloorDB
	}
	win := window.Hann(blockSize)
	winEnergy := 0.0
	for _, w := range win {
		winEnergy += w * w
	}

	totalEnergy := 0.0
	blocks := 0
	for off := 0; off+blockSize <= len(samples); off += blockSize / 2 {
		energy := 0.0
		for i := 0; i < blockSize; i++ {
			s := samples[off+i] * win[i]
			energy += s * s
		}
		totalEnergy += energy / winEnergy
		blocks++
	}
	if blocks == 0 {
		// shorter than one block, fall back to a plain RMS
		energy := 0.0
		for _, s := range samples {
			energy += s * s
		}
		totalEnergy = energy / float64(len(samples))
		blocks = 1
	}

	meanSquare := totalEnergy / float64(blocks)
	if meanSquare <= 0 {
		return silenceFloorDB
	}
	db := 10 * math.Log10(meanSquare)
	if db < silenceFloorDB {
		return silenceFloorDB
	}
	return db
}
