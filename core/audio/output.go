package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MacanFM/logger"

	"github.com/faiface/beep"
)

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// OutputEvents is how an output path reports media milestones back to the
// engine. Index is the playlist index the output was loaded with, so stale
// callbacks can be rejected upstream.
type OutputEvents interface {
	OnMediaReady(index int, duration float64)
	OnMediaEnded(index int)
}

// SpeakerOutput is the audio output path: decoded locally and played through
// the assembled graph.
type SpeakerOutput struct {
	graph   *Graph
	events  OutputEvents
	tempDir string

	mu      sync.Mutex
	stream  beep.StreamSeekCloser
	srcRate beep.SampleRate
	cleanup func()
	index   int
	loaded  bool
}

// NewSpeakerOutput creates the audio output path.
func NewSpeakerOutput(graph *Graph, events OutputEvents, tempDir string) *SpeakerOutput {
	return &SpeakerOutput{graph: graph, events: events, tempDir: tempDir, index: -1}
}

// Load decodes the media behind url and reports its metadata. It does not
// start playback.
func (o *SpeakerOutput) Load(ctx context.Context, index int, url string) error {
	o.Stop()

	stream, format, cleanup, err := OpenStream(ctx, url, o.tempDir)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.stream = stream
	o.srcRate = format.SampleRate
	o.cleanup = cleanup
	o.index = index
	o.loaded = true
	o.mu.Unlock()

	duration := format.SampleRate.D(stream.Len()).Seconds()
	logger.Debug("audio source loaded",
		logger.Int("index", index),
		logger.Float64("duration", duration))
	o.events.OnMediaReady(index, duration)
	return nil
}

// Start begins playback through the graph. The graph must be assembled.
func (o *SpeakerOutput) Start() error {
	o.mu.Lock()
	if !o.loaded {
		o.mu.Unlock()
		return fmt.Errorf("no source loaded")
	}
	stream := o.stream
	rate := o.srcRate
	index := o.index
	o.mu.Unlock()

	return o.graph.Play(stream, rate, func() {
		o.events.OnMediaEnded(index)
	})
}

// Pause halts playback keeping the source bound.
func (o *SpeakerOutput) Pause() {
	o.graph.SetPaused(true)
}

// Resume continues a paused source.
func (o *SpeakerOutput) Resume() {
	o.graph.SetPaused(false)
}

// Stop tears the current source down and releases its resources.
func (o *SpeakerOutput) Stop() {
	o.mu.Lock()
	cleanup := o.cleanup
	o.stream = nil
	o.cleanup = nil
	o.loaded = false
	o.mu.Unlock()

	o.graph.Stop()
	if cleanup != nil {
		cleanup()
	}
}

// Seek moves the playhead to pos seconds.
func (o *SpeakerOutput) Seek(pos float64) error {
	o.mu.Lock()
	stream := o.stream
	rate := o.srcRate
	o.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("no source loaded")
	}

	var err error
	o.graph.WithSourceLock(func() {
		target := rate.N(secondsToDuration(pos))
		if target < 0 {
			target = 0
		}
		if target >= stream.Len() {
			target = stream.Len() - 1
		}
		err = stream.Seek(target)
	})
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// Position returns the playhead in seconds.
func (o *SpeakerOutput) Position() float64 {
	o.mu.Lock()
	stream := o.stream
	rate := o.srcRate
	o.mu.Unlock()
	if stream == nil || rate == 0 {
		return 0
	}

	var pos int
	o.graph.WithSourceLock(func() {
		pos = stream.Position()
	})
	return rate.D(pos).Seconds()
}

// Duration returns the source length in seconds.
func (o *SpeakerOutput) Duration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream == nil || o.srcRate == 0 {
		return 0
	}
	return o.srcRate.D(o.stream.Len()).Seconds()
}

// SetVolume forwards the user volume to the graph's volume stage.
func (o *SpeakerOutput) SetVolume(percent int, muted bool) {
	o.graph.SetVolume(percent, muted)
}
