package audio

import (
	"context"
	"sync"

	"MacanFM/logger"
)

// VideoCommandSink delivers playback commands to the UI's video element.
// The WebSocket hub implements this.
type VideoCommandSink interface {
	SendVideoCommand(action string, payload map[string]interface{})
}

// RemoteOutput is the video output path. Rendering happens in the UI; this
// side forwards commands over the sink and mirrors the state the UI reports
// back through media events.
type RemoteOutput struct {
	sink   VideoCommandSink
	events OutputEvents

	mu       sync.Mutex
	index    int
	url      string
	duration float64
	position float64
	loaded   bool
}

// NewRemoteOutput creates the video output path.
func NewRemoteOutput(sink VideoCommandSink, events OutputEvents) *RemoteOutput {
	return &RemoteOutput{sink: sink, events: events, index: -1}
}

// Load hands the stream URL to the UI's video element. Duration arrives
// later via ReportMetadata when the element fires loadedmetadata.
func (o *RemoteOutput) Load(ctx context.Context, index int, url string) error {
	o.mu.Lock()
	o.index = index
	o.url = url
	o.duration = 0
	o.position = 0
	o.loaded = true
	o.mu.Unlock()

	o.sink.SendVideoCommand("load", map[string]interface{}{
		"index": index,
		"url":   url,
	})
	logger.Debug("video source handed to UI", logger.Int("index", index))
	return nil
}

// Start asks the UI to begin playback.
func (o *RemoteOutput) Start() error {
	o.sink.SendVideoCommand("play", nil)
	return nil
}

// Pause asks the UI to pause.
func (o *RemoteOutput) Pause() {
	o.sink.SendVideoCommand("pause", nil)
}

// Resume asks the UI to resume.
func (o *RemoteOutput) Resume() {
	o.sink.SendVideoCommand("play", nil)
}

// Stop unloads the video element.
func (o *RemoteOutput) Stop() {
	o.mu.Lock()
	o.loaded = false
	o.position = 0
	o.mu.Unlock()
	o.sink.SendVideoCommand("stop", nil)
}

// Seek asks the UI to move the playhead.
func (o *RemoteOutput) Seek(pos float64) error {
	o.mu.Lock()
	o.position = pos
	o.mu.Unlock()
	o.sink.SendVideoCommand("seek", map[string]interface{}{"position": pos})
	return nil
}

// Position returns the last position the UI reported.
func (o *RemoteOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

// Duration returns the duration the UI reported, 0 until metadata loads.
func (o *RemoteOutput) Duration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.duration
}

// SetVolume forwards the user volume to the video element.
func (o *RemoteOutput) SetVolume(percent int, muted bool) {
	o.sink.SendVideoCommand("volume", map[string]interface{}{
		"percent": percent,
		"muted":   muted,
	})
}

// ReportMetadata records the duration from the element's loadedmetadata
// event and forwards the media-ready milestone to the engine.
func (o *RemoteOutput) ReportMetadata(duration float64) {
	o.mu.Lock()
	if !o.loaded {
		o.mu.Unlock()
		return
	}
	o.duration = duration
	index := o.index
	o.mu.Unlock()
	o.events.OnMediaReady(index, duration)
}

// ReportTime records a timeupdate from the element.
func (o *RemoteOutput) ReportTime(position float64) {
	o.mu.Lock()
	if o.loaded {
		o.position = position
	}
	o.mu.Unlock()
}

// ReportEnded forwards the element's ended event to the engine.
func (o *RemoteOutput) ReportEnded() {
	o.mu.Lock()
	loaded := o.loaded
	index := o.index
	o.mu.Unlock()
	if loaded {
		o.events.OnMediaEnded(index)
	}
}
