package player

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"MacanFM/core/audio"
	"MacanFM/logger"
	"MacanFM/model"
)

const (
	resolveTimeout = 30 * time.Second
	// Clicking prev within this window restarts the current track instead
	// of moving back.
	prevRestartThreshold = 3.0
	timeUpdateInterval   = 500 * time.Millisecond
)

// Status messages pushed to the UI when playback cannot proceed.
const (
	statusDeviceBlocked     = "音频设备不可用，点击播放重试"
	statusFormatUnsupported = "不支持的音频格式，已跳过"
	statusPlaybackFailed    = "播放失败"
)

// Device is the audio processing chain the engine drives. *audio.Graph
// satisfies it.
type Device interface {
	Assemble() (bool, error)
	Assembled() bool
	SetNormalization(factor float64)
	FadeOut(d time.Duration) <-chan struct{}
	FadeIn(d time.Duration)
	ResetFade()
	SetVolume(percent int, muted bool)
}

// Output is a playback sink. *audio.SpeakerOutput covers local audio,
// *audio.RemoteOutput covers video handled by the UI.
type Output interface {
	Load(ctx context.Context, index int, url string) error
	Start() error
	Pause()
	Resume()
	Stop()
	Seek(pos float64) error
	Position() float64
	Duration() float64
	SetVolume(percent int, muted bool)
}

// StreamResolver turns a library track into a playable URL.
type StreamResolver interface {
	Resolve(ctx context.Context, track *model.Track) (string, error)
}

// Persister is notified whenever durable session state changed.
type Persister interface {
	Schedule()
}

// History records tracks that actually started playing.
type History interface {
	Append(track *model.Track) error
}

// Engine owns the session and serializes every mutation through a single
// command goroutine. Handlers and output callbacks never touch the session
// directly, they enqueue closures.
type Engine struct {
	mu   sync.RWMutex
	sess *Session

	eq       *audio.Equalizer
	device   Device
	audioOut Output
	videoOut Output
	active   Output

	resolver StreamResolver
	persist  Persister
	history  History
	bus      *Bus

	// Unbounded command mailbox. Output callbacks fire on the command
	// goroutine itself (SpeakerOutput.Load calls OnMediaReady inline), so
	// enqueueing must never block the loop.
	cmdMu  sync.Mutex
	cmdQ   []func()
	cmdSig chan struct{}

	quit chan struct{}
}

func NewEngine(sess *Session, eq *audio.Equalizer, device Device, resolver StreamResolver, bus *Bus) *Engine {
	return &Engine{
		sess:     sess,
		eq:       eq,
		device:   device,
		resolver: resolver,
		bus:      bus,
		cmdSig:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
}

// SetOutputs wires the playback sinks. Outputs need the engine as their
// event receiver, so they are attached after construction.
func (e *Engine) SetOutputs(audioOut, videoOut Output) {
	e.audioOut = audioOut
	e.videoOut = videoOut
}

func (e *Engine) SetPersister(p Persister) { e.persist = p }
func (e *Engine) SetHistory(h History)     { e.history = h }

// Run processes commands until Shutdown. Call in its own goroutine.
func (e *Engine) Run() {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.cmdSig:
			e.drain()
		case <-ticker.C:
			e.tick()
		case <-e.quit:
			return
		}
	}
}

// drain runs queued commands in order, including any a command enqueues
// while running.
func (e *Engine) drain() {
	for {
		e.cmdMu.Lock()
		if len(e.cmdQ) == 0 {
			e.cmdMu.Unlock()
			return
		}
		fn := e.cmdQ[0]
		e.cmdQ = e.cmdQ[1:]
		e.cmdMu.Unlock()
		fn()
	}
}

// Shutdown stops the command loop.
func (e *Engine) Shutdown() {
	close(e.quit)
}

// do enqueues a closure for the command loop. Never blocks.
func (e *Engine) do(fn func()) {
	e.cmdMu.Lock()
	e.cmdQ = append(e.cmdQ, fn)
	e.cmdMu.Unlock()
	select {
	case e.cmdSig <- struct{}{}:
	default:
	}
}

// wait blocks until every previously enqueued command has run.
func (e *Engine) wait() {
	done := make(chan struct{})
	e.do(func() { close(done) })
	select {
	case <-done:
	case <-e.quit:
	}
}

func (e *Engine) tick() {
	e.mu.RLock()
	playing := e.sess.IsPlaying()
	out := e.active
	dur := e.sess.Duration
	e.mu.RUnlock()
	if !playing || out == nil {
		return
	}
	e.bus.Publish(EventTimeUpdate, map[string]float64{
		"position": out.Position(),
		"duration": dur,
	})
}

func (e *Engine) schedulePersist() {
	if e.persist != nil {
		e.persist.Schedule()
	}
}

func (e *Engine) fadeDuration() time.Duration {
	return time.Duration(e.sess.FadeDurationMs) * time.Millisecond
}

// audioActive reports whether the current track plays through the local
// audio chain.
func (e *Engine) audioActive() bool {
	t := e.sess.CurrentTrack()
	return t != nil && !t.IsVideo
}

func (e *Engine) publishState() {
	e.bus.Publish(EventPlayState, map[string]interface{}{
		"state":     e.sess.State,
		"isPlaying": e.sess.IsPlaying(),
		"index":     e.sess.CurrentIndex,
	})
}

// ---- playlist ----

// SetPlaylist replaces the queue. The current track keeps playing if it is
// still in the new queue, otherwise playback stops.
func (e *Engine) SetPlaylist(tracks []*model.Track) {
	e.do(func() {
		e.mu.Lock()
		cur := e.sess.CurrentTrack()
		e.sess.Playlist = tracks
		e.sess.CurrentIndex = -1
		if cur != nil {
			for i, t := range tracks {
				if t.Path == cur.Path {
					e.sess.CurrentIndex = i
					break
				}
			}
		}
		stop := cur != nil && e.sess.CurrentIndex == -1
		e.mu.Unlock()
		if stop {
			e.stopPlayback()
		}
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

// AddTracks appends to the queue.
func (e *Engine) AddTracks(tracks []*model.Track) {
	e.do(func() {
		e.mu.Lock()
		e.sess.Playlist = append(e.sess.Playlist, tracks...)
		e.mu.Unlock()
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

// RemoveTrack drops one queue entry. Removing the playing track stops
// playback; removing an earlier entry shifts the current index down.
func (e *Engine) RemoveTrack(index int) {
	e.do(func() {
		e.mu.Lock()
		if !e.sess.validIndex(index) {
			e.mu.Unlock()
			return
		}
		removedCurrent := index == e.sess.CurrentIndex
		e.sess.Playlist = append(e.sess.Playlist[:index], e.sess.Playlist[index+1:]...)
		if removedCurrent {
			e.sess.CurrentIndex = -1
		} else if index < e.sess.CurrentIndex {
			e.sess.CurrentIndex--
		}
		e.mu.Unlock()
		if removedCurrent {
			e.stopPlayback()
		}
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

// MoveTrack reorders the queue by position. The current index follows the
// playing track to its new slot.
func (e *Engine) MoveTrack(from, to int) {
	e.do(func() {
		e.mu.Lock()
		if !e.sess.validIndex(from) || !e.sess.validIndex(to) || from == to {
			e.mu.Unlock()
			return
		}
		track := e.sess.Playlist[from]
		e.sess.Playlist = append(e.sess.Playlist[:from], e.sess.Playlist[from+1:]...)
		rest := append([]*model.Track(nil), e.sess.Playlist[to:]...)
		e.sess.Playlist = append(e.sess.Playlist[:to], track)
		e.sess.Playlist = append(e.sess.Playlist, rest...)
		switch cur := e.sess.CurrentIndex; {
		case cur == from:
			e.sess.CurrentIndex = to
		case from < cur && to >= cur:
			e.sess.CurrentIndex--
		case from > cur && to <= cur:
			e.sess.CurrentIndex++
		}
		e.mu.Unlock()
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

// ClearPlaylist empties the queue and stops playback.
func (e *Engine) ClearPlaylist() {
	e.do(func() {
		e.stopPlayback()
		e.mu.Lock()
		e.sess.Playlist = nil
		e.sess.CurrentIndex = -1
		e.mu.Unlock()
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

// ---- transport ----

// PlayTrack starts the queue entry at index.
func (e *Engine) PlayTrack(index int) {
	e.do(func() { e.loadTrack(index, true) })
}

// TogglePlayPause flips between playing and paused. From idle it starts the
// queue, from ended it replays the current track.
func (e *Engine) TogglePlayPause() {
	e.do(func() {
		switch e.sess.State {
		case StatePlaying:
			e.pausePlayback()
		case StatePaused:
			e.resumePlayback()
		case StateEnded:
			e.loadTrack(e.sess.CurrentIndex, true)
		case StateIdle:
			if len(e.sess.Playlist) > 0 {
				e.loadTrack(0, true)
			}
		}
	})
}

// NextTrack advances manually. Shuffle picks a random other entry; at the
// queue end repeat-all wraps and repeat-off stays put.
func (e *Engine) NextTrack() {
	e.do(func() {
		next, ok := e.nextManualIndex()
		if ok {
			e.loadTrack(next, true)
		}
	})
}

// PrevTrack restarts the current track when more than a few seconds in,
// otherwise moves back one entry.
func (e *Engine) PrevTrack() {
	e.do(func() {
		if e.active != nil && e.active.Position() > prevRestartThreshold {
			e.seekTo(0)
			return
		}
		prev := e.sess.CurrentIndex - 1
		if prev < 0 {
			if e.sess.Repeat == model.RepeatAll && len(e.sess.Playlist) > 0 {
				prev = len(e.sess.Playlist) - 1
			} else {
				e.seekTo(0)
				return
			}
		}
		e.loadTrack(prev, true)
	})
}

// Seek moves the playhead. Positions outside the media bounds are
// discarded, not clamped.
func (e *Engine) Seek(pos float64) {
	e.do(func() { e.seekTo(pos) })
}

func (e *Engine) seekTo(pos float64) {
	if e.active == nil {
		return
	}
	if pos < 0 || (e.sess.Duration > 0 && pos > e.sess.Duration) {
		logger.Debug("seek out of range, discarded", logger.Float64("pos", pos))
		return
	}
	if err := e.active.Seek(pos); err != nil {
		logger.Warn("seek failed", logger.ErrorField(err))
		return
	}
	e.bus.Publish(EventTimeUpdate, map[string]float64{
		"position": pos,
		"duration": e.sess.Duration,
	})
	e.schedulePersist()
}

func (e *Engine) pausePlayback() {
	if e.sess.FadeEnabled && e.audioActive() {
		<-e.device.FadeOut(e.fadeDuration())
	}
	if e.active != nil {
		e.active.Pause()
	}
	e.mu.Lock()
	e.sess.setState(StatePaused)
	e.mu.Unlock()
	e.publishState()
	e.schedulePersist()
}

func (e *Engine) resumePlayback() {
	if e.active == nil {
		return
	}
	e.active.Resume()
	if e.sess.FadeEnabled && e.audioActive() {
		e.device.FadeIn(e.fadeDuration())
	} else if e.audioActive() {
		e.device.ResetFade()
	}
	e.mu.Lock()
	e.sess.setState(StatePlaying)
	e.mu.Unlock()
	e.publishState()
	e.schedulePersist()
}

func (e *Engine) stopPlayback() {
	if e.active != nil {
		e.active.Stop()
	}
	// active is read under RLock by the snapshot readers
	e.mu.Lock()
	e.active = nil
	e.sess.setState(StateIdle)
	e.sess.Duration = 0
	e.mu.Unlock()
	e.publishState()
}

// ---- loading ----

// loadTrack fades out whatever is audible, switches the session to the new
// index and resolves the stream URL off the command loop. Runs on the
// command goroutine only.
func (e *Engine) loadTrack(index int, autoplay bool) {
	if !e.sess.validIndex(index) {
		logger.Warn("load index out of range", logger.Int("index", index))
		return
	}
	if e.sess.State == StatePlaying && e.sess.FadeEnabled && e.audioActive() {
		<-e.device.FadeOut(e.fadeDuration())
	}
	if e.active != nil {
		e.active.Stop()
	}
	e.mu.Lock()
	e.active = nil
	e.sess.CurrentIndex = index
	e.sess.Duration = 0
	e.sess.setState(StateLoading)
	track := e.sess.Playlist[index]
	e.mu.Unlock()

	e.bus.Publish(EventTrackChanged, map[string]interface{}{
		"index": index,
		"track": track,
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		url, err := e.resolver.Resolve(ctx, track)
		e.do(func() { e.finishLoad(index, track, url, err, autoplay) })
	}()
}

// finishLoad runs on the command goroutine once the URL resolution comes
// back. A resolution for an index the session already moved past is dropped.
func (e *Engine) finishLoad(index int, track *model.Track, url string, err error, autoplay bool) {
	if e.sess.CurrentIndex != index {
		logger.Debug("stale resolution dropped",
			logger.Int("resolved", index),
			logger.Int("current", e.sess.CurrentIndex))
		return
	}
	if err != nil {
		e.failPlayback(err)
		return
	}

	out := e.audioOut
	if track.IsVideo {
		out = e.videoOut
	}
	if !track.IsVideo {
		if _, aerr := e.device.Assemble(); aerr != nil {
			e.failPlayback(aerr)
			return
		}
		if p := e.sess.consumePending(pendingEQ); p != nil {
			e.applyRestoredEQ(p)
		}
		e.device.SetNormalization(e.normalizationFactor(track))
	}
	out.SetVolume(e.sess.Volume, e.sess.IsMuted)

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	if lerr := out.Load(ctx, index, url); lerr != nil {
		e.failPlayback(lerr)
		return
	}
	e.mu.Lock()
	e.active = out
	e.mu.Unlock()

	if !autoplay {
		e.mu.Lock()
		e.sess.setState(StatePaused)
		e.mu.Unlock()
		e.publishState()
		e.schedulePersist()
		return
	}
	if serr := out.Start(); serr != nil {
		e.failPlayback(serr)
		return
	}
	if !track.IsVideo {
		if e.sess.FadeEnabled {
			e.device.FadeIn(e.fadeDuration())
		} else {
			e.device.ResetFade()
		}
	}
	e.mu.Lock()
	e.sess.setState(StatePlaying)
	e.mu.Unlock()
	e.publishState()
	e.schedulePersist()
	if e.history != nil {
		t := track
		go func() {
			if herr := e.history.Append(t); herr != nil {
				logger.Warn("history append failed", logger.ErrorField(herr))
			}
		}()
	}
}

func (e *Engine) failPlayback(err error) {
	switch {
	case errors.Is(err, audio.ErrUnsupportedFormat):
		logger.Warn("unsupported format, skipping",
			logger.Int("index", e.sess.CurrentIndex), logger.ErrorField(err))
		e.bus.Publish(EventStatus, statusFormatUnsupported)
		if next, ok := e.advanceIndex(); ok {
			e.loadTrack(next, true)
			return
		}
	case errors.Is(err, audio.ErrDeviceUnavailable):
		logger.Error("audio device unavailable", logger.ErrorField(err))
		e.bus.Publish(EventStatus, statusDeviceBlocked)
	default:
		logger.Error("playback failed", logger.ErrorField(err))
		e.bus.Publish(EventStatus, statusPlaybackFailed)
	}
	e.mu.Lock()
	e.sess.setState(StateIdle)
	e.mu.Unlock()
	e.publishState()
}

// ---- track end ----

// OnMediaReady arrives from the active output once media metadata is known.
func (e *Engine) OnMediaReady(index int, duration float64) {
	e.do(func() {
		if e.sess.CurrentIndex != index {
			return
		}
		e.mu.Lock()
		e.sess.Duration = duration
		p := e.sess.consumePending(pendingSeek)
		e.mu.Unlock()
		if p != nil && e.active != nil {
			if p.seek > 0 && p.seek < duration {
				if err := e.active.Seek(p.seek); err != nil {
					logger.Warn("restore seek failed", logger.ErrorField(err))
				}
			} else {
				logger.Debug("restored position out of range, discarded",
					logger.Float64("pos", p.seek),
					logger.Float64("duration", duration))
			}
		}
		e.bus.Publish(EventTimeUpdate, map[string]float64{
			"position": e.currentPosition(),
			"duration": duration,
		})
	})
}

// OnMediaEnded arrives from the active output when the media played out.
func (e *Engine) OnMediaEnded(index int) {
	e.do(func() {
		if e.sess.CurrentIndex != index {
			return
		}
		e.handleTrackEnded()
	})
}

// handleTrackEnded decides what plays next. Repeat-one takes precedence
// over shuffle; at the queue end repeat-all wraps and otherwise the queue
// completes.
func (e *Engine) handleTrackEnded() {
	e.mu.Lock()
	e.sess.setState(StateEnded)
	e.mu.Unlock()
	e.publishState()

	if e.sess.Repeat == model.RepeatOne {
		e.loadTrack(e.sess.CurrentIndex, true)
		return
	}
	if next, ok := e.advanceIndex(); ok {
		e.loadTrack(next, true)
		return
	}
	e.bus.Publish(EventQueueComplete, nil)
	e.schedulePersist()
}

// advanceIndex computes the natural successor of the current track. Returns
// false when the queue is complete.
func (e *Engine) advanceIndex() (int, bool) {
	n := len(e.sess.Playlist)
	if n == 0 {
		return 0, false
	}
	if e.sess.IsShuffle {
		return e.randomOtherIndex(), true
	}
	next := e.sess.CurrentIndex + 1
	if next >= n {
		if e.sess.Repeat == model.RepeatAll {
			return 0, true
		}
		return 0, false
	}
	return next, true
}

// nextManualIndex is advanceIndex for a user-initiated skip. The only
// difference is that repeat-one does not pin the track.
func (e *Engine) nextManualIndex() (int, bool) {
	return e.advanceIndex()
}

// randomOtherIndex picks a random entry, excluding the current one when the
// queue has more than one track.
func (e *Engine) randomOtherIndex() int {
	n := len(e.sess.Playlist)
	if n <= 1 {
		return 0
	}
	next := rand.Intn(n - 1)
	if next >= e.sess.CurrentIndex {
		next++
	}
	return next
}

// ---- settings ----

// SetVolume accepts 0-100 and unmutes.
func (e *Engine) SetVolume(percent int) {
	e.do(func() {
		if percent < 0 {
			percent = 0
		} else if percent > 100 {
			percent = 100
		}
		e.mu.Lock()
		e.sess.Volume = percent
		e.sess.IsMuted = false
		e.mu.Unlock()
		e.applyVolume()
		e.bus.Publish(EventVolume, map[string]interface{}{"volume": percent, "muted": false})
		e.schedulePersist()
	})
}

func (e *Engine) ToggleMute() {
	e.do(func() {
		e.mu.Lock()
		e.sess.IsMuted = !e.sess.IsMuted
		muted := e.sess.IsMuted
		e.mu.Unlock()
		e.applyVolume()
		e.bus.Publish(EventVolume, map[string]interface{}{"volume": e.sess.Volume, "muted": muted})
		e.schedulePersist()
	})
}

func (e *Engine) applyVolume() {
	if e.active != nil {
		e.active.SetVolume(e.sess.Volume, e.sess.IsMuted)
		return
	}
	e.device.SetVolume(e.sess.Volume, e.sess.IsMuted)
}

func (e *Engine) ToggleShuffle() {
	e.do(func() {
		e.mu.Lock()
		e.sess.IsShuffle = !e.sess.IsShuffle
		e.mu.Unlock()
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

// CycleRepeat steps none -> all -> one -> none.
func (e *Engine) CycleRepeat() {
	e.do(func() {
		e.mu.Lock()
		e.sess.Repeat = e.sess.Repeat.Next()
		e.mu.Unlock()
		e.bus.Publish(EventSession, e.status())
		e.schedulePersist()
	})
}

func (e *Engine) SetFadeEnabled(enabled bool) {
	e.do(func() {
		e.mu.Lock()
		e.sess.FadeEnabled = enabled
		e.mu.Unlock()
		if !enabled && e.audioActive() {
			e.device.ResetFade()
		}
		e.schedulePersist()
	})
}

func (e *Engine) SetFadeDuration(ms int) {
	e.do(func() {
		if ms < 0 {
			ms = 0
		}
		e.mu.Lock()
		e.sess.FadeDurationMs = ms
		e.mu.Unlock()
		e.schedulePersist()
	})
}

// SetNormalizationEnabled flips loudness normalization. The change applies
// to the playing track immediately.
func (e *Engine) SetNormalizationEnabled(enabled bool) {
	e.do(func() {
		e.mu.Lock()
		e.sess.NormalizationEnabled = enabled
		track := e.sess.CurrentTrack()
		e.mu.Unlock()
		if track != nil && !track.IsVideo && e.device.Assembled() {
			e.device.SetNormalization(e.normalizationFactor(track))
		}
		e.schedulePersist()
	})
}

// normalizationFactor returns the gain multiplier for a track. Video and
// disabled normalization always run at unity.
func (e *Engine) normalizationFactor(track *model.Track) float64 {
	if !e.sess.NormalizationEnabled || track == nil || track.IsVideo || track.LoudnessDB == nil {
		return 1.0
	}
	return audio.NormalizationFactor(e.sess.TargetLoudnessDb - *track.LoudnessDB)
}

// ---- equalizer ----

func (e *Engine) SetEQBand(band int, gainDB float64) {
	e.do(func() {
		e.eq.SetBandGain(band, gainDB)
		e.publishEQ()
		e.schedulePersist()
	})
}

func (e *Engine) ApplyEQPreset(name string) {
	e.do(func() {
		if _, ok := e.eq.ApplyPreset(name); !ok {
			logger.Warn("unknown equalizer preset", logger.String("name", name))
			return
		}
		e.publishEQ()
		e.schedulePersist()
	})
}

func (e *Engine) SetEQBands(values []float64) {
	e.do(func() {
		if !e.eq.SetBands(values) {
			return
		}
		e.publishEQ()
		e.schedulePersist()
	})
}

func (e *Engine) publishEQ() {
	e.bus.Publish(EventSession, map[string]interface{}{
		"eqBands":  e.eq.Bands(),
		"eqPreset": e.eq.Preset(),
	})
}

func (e *Engine) applyRestoredEQ(p *pendingRestoration) {
	if len(p.bands) == model.EQBandCount {
		e.eq.SetBands(p.bands)
	}
	if p.preset != "" && p.preset != audio.PresetCustom {
		e.eq.ApplyPreset(p.preset)
	}
}

// ---- restore / snapshot ----

// Restore seeds the session from a persisted snapshot. The track loads
// paused; the saved position and equalizer settings are kept as pending
// markers until their prerequisites exist.
func (e *Engine) Restore(snap *model.PlaybackSnapshot, tracks []*model.Track) {
	e.do(func() {
		e.mu.Lock()
		s := e.sess
		s.Playlist = tracks
		if snap != nil {
			if snap.Volume >= 0 && snap.Volume <= 100 {
				s.Volume = snap.Volume
			}
			s.IsShuffle = snap.IsShuffle
			s.Repeat = model.ParseRepeatMode(snap.RepeatMode)
			s.FadeEnabled = snap.FadeEnabled
			if snap.FadeDurationMs > 0 {
				s.FadeDurationMs = snap.FadeDurationMs
			}
			s.NormalizationEnabled = snap.NormalizationEnabled
			if len(snap.EQBands) == model.EQBandCount {
				s.setPending(&pendingRestoration{
					kind:   pendingEQ,
					bands:  append([]float64(nil), snap.EQBands...),
					preset: snap.EQPreset,
				})
			}
			if snap.SeekPosition > 0 {
				s.setPending(&pendingRestoration{kind: pendingSeek, seek: snap.SeekPosition})
			}
		}
		s.restoreComplete = true
		load := snap != nil && s.validIndex(snap.CurrentIndex)
		var index int
		if load {
			index = snap.CurrentIndex
		}
		e.mu.Unlock()

		if load {
			e.loadTrack(index, false)
		}
		e.bus.Publish(EventSession, e.status())
	})
}

// Snapshot captures the durable session state. Safe to call from any
// goroutine.
func (e *Engine) Snapshot() *model.PlaybackSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.sess
	snap := &model.PlaybackSnapshot{
		CurrentIndex:         s.CurrentIndex,
		SeekPosition:         e.currentPosition(),
		Volume:               s.Volume,
		IsShuffle:            s.IsShuffle,
		RepeatMode:           string(s.Repeat),
		FadeEnabled:          s.FadeEnabled,
		FadeDurationMs:       s.FadeDurationMs,
		NormalizationEnabled: s.NormalizationEnabled,
		EQBands:              e.eq.Bands(),
		EQPreset:             e.eq.Preset(),
	}
	return snap
}

// Playlist returns a copy of the queue. Safe to call from any goroutine.
func (e *Engine) Playlist() []*model.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*model.Track(nil), e.sess.Playlist...)
}

// Equalizer exposes the equalizer for read access. The Equalizer does its
// own locking.
func (e *Engine) Equalizer() *audio.Equalizer {
	return e.eq
}

// IsPlaying is safe to call from any goroutine.
func (e *Engine) IsPlaying() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sess.IsPlaying()
}

// currentPosition reads the playhead, 0 when nothing is loaded. Caller
// holds at least a read lock.
func (e *Engine) currentPosition() float64 {
	if e.active == nil {
		return 0
	}
	return e.active.Position()
}

// Status returns the full session view for the UI. Safe to call from any
// goroutine.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status()
}

// status builds the view without taking the lock. Command-loop callers use
// this directly.
func (e *Engine) status() Status {
	s := e.sess
	return Status{
		Playlist:             append([]*model.Track(nil), s.Playlist...),
		CurrentIndex:         s.CurrentIndex,
		State:                s.State,
		IsPlaying:            s.IsPlaying(),
		IsShuffle:            s.IsShuffle,
		RepeatMode:           s.Repeat,
		Volume:               s.Volume,
		IsMuted:              s.IsMuted,
		Position:             e.currentPosition(),
		Duration:             s.Duration,
		FadeEnabled:          s.FadeEnabled,
		FadeDurationMs:       s.FadeDurationMs,
		NormalizationEnabled: s.NormalizationEnabled,
		TargetLoudnessDb:     s.TargetLoudnessDb,
		RestoreComplete:      s.restoreComplete,
	}
}
