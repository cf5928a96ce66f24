package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"MacanFM/core/audio"
	"MacanFM/model"
)

// recorder keeps a cross-fake ordered log of playback actions.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) indexOf(s string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e == s {
			return i
		}
	}
	return -1
}

type fakeDevice struct {
	rec *recorder

	mu        sync.Mutex
	assembled bool
	fadeOuts  int
	fadeIns   int
	norm      float64
}

func (d *fakeDevice) Assemble() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	first := !d.assembled
	d.assembled = true
	return first, nil
}

func (d *fakeDevice) Assembled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.assembled
}

func (d *fakeDevice) SetNormalization(factor float64) {
	d.mu.Lock()
	d.norm = factor
	d.mu.Unlock()
}

func (d *fakeDevice) FadeOut(time.Duration) <-chan struct{} {
	d.mu.Lock()
	d.fadeOuts++
	d.mu.Unlock()
	d.rec.add("fadeout")
	done := make(chan struct{})
	close(done)
	return done
}

func (d *fakeDevice) FadeIn(time.Duration) {
	d.mu.Lock()
	d.fadeIns++
	d.mu.Unlock()
}

func (d *fakeDevice) ResetFade()          {}
func (d *fakeDevice) SetVolume(int, bool) {}

func (d *fakeDevice) normFactor() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.norm
}

func (d *fakeDevice) fadeOutCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fadeOuts
}

type fakeOutput struct {
	rec *recorder

	mu       sync.Mutex
	loads    []int
	errs     map[int]error
	started  int
	stops    int
	seeks    []float64
	position float64
}

func (o *fakeOutput) Load(_ context.Context, index int, _ string) error {
	o.mu.Lock()
	err := o.errs[index]
	if err == nil {
		o.loads = append(o.loads, index)
	}
	o.mu.Unlock()
	if err != nil {
		return err
	}
	o.rec.add(fmt.Sprintf("load %d", index))
	return nil
}

func (o *fakeOutput) Start() error {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
	return nil
}

func (o *fakeOutput) Pause()  {}
func (o *fakeOutput) Resume() {}

func (o *fakeOutput) Stop() {
	o.mu.Lock()
	o.stops++
	o.mu.Unlock()
	o.rec.add("stop")
}

func (o *fakeOutput) Seek(pos float64) error {
	o.mu.Lock()
	o.seeks = append(o.seeks, pos)
	o.position = pos
	o.mu.Unlock()
	return nil
}

func (o *fakeOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

func (o *fakeOutput) Duration() float64   { return 0 }
func (o *fakeOutput) SetVolume(int, bool) {}

func (o *fakeOutput) setPosition(pos float64) {
	o.mu.Lock()
	o.position = pos
	o.mu.Unlock()
}

func (o *fakeOutput) loadedIndexes() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int(nil), o.loads...)
}

func (o *fakeOutput) seekList() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]float64(nil), o.seeks...)
}

type fakeResolver struct {
	mu     sync.Mutex
	delays map[string]time.Duration
	calls  []string
}

func (r *fakeResolver) Resolve(_ context.Context, track *model.Track) (string, error) {
	r.mu.Lock()
	delay := r.delays[track.Path]
	r.calls = append(r.calls, track.Path)
	r.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return "resolved://" + track.Path, nil
}

func testTracks(n int) []*model.Track {
	out := make([]*model.Track, n)
	for i := range out {
		out[i] = &model.Track{
			Path:  fmt.Sprintf("/music/t%d.mp3", i),
			Title: fmt.Sprintf("Track %d", i),
		}
	}
	return out
}

func newTestEngine(t *testing.T, tracks []*model.Track) (*Engine, *fakeDevice, *fakeOutput, *fakeResolver, *recorder) {
	t.Helper()
	rec := &recorder{}
	dev := &fakeDevice{rec: rec}
	out := &fakeOutput{rec: rec, errs: map[int]error{}}
	res := &fakeResolver{delays: map[string]time.Duration{}}
	sess := NewSession(80, 50, -14)
	sess.Playlist = tracks
	eng := NewEngine(sess, audio.NewEqualizer(), dev, res, NewBus())
	eng.SetOutputs(out, out)
	go eng.Run()
	t.Cleanup(eng.Shutdown)
	return eng, dev, out, res, rec
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPlayTrack(t *testing.T) {
	eng, dev, out, _, _ := newTestEngine(t, testTracks(3))

	eng.PlayTrack(1)
	waitFor(t, "playing state", func() bool {
		st := eng.Status()
		return st.State == StatePlaying && st.CurrentIndex == 1
	})

	if got := out.loadedIndexes(); len(got) != 1 || got[0] != 1 {
		t.Errorf("loaded indexes = %v, want [1]", got)
	}
	if !dev.Assembled() {
		t.Error("device was not assembled for an audio track")
	}
}

func TestPlayTrackOutOfRange(t *testing.T) {
	eng, _, out, _, _ := newTestEngine(t, testTracks(2))
	eng.PlayTrack(7)
	eng.wait()
	if st := eng.Status().State; st != StateIdle {
		t.Errorf("state = %s after out-of-range play, want idle", st)
	}
	if got := out.loadedIndexes(); len(got) != 0 {
		t.Errorf("loaded indexes = %v, want none", got)
	}
}

func TestStaleResolutionDropped(t *testing.T) {
	tracks := testTracks(3)
	eng, _, out, res, _ := newTestEngine(t, tracks)
	res.delays[tracks[0].Path] = 150 * time.Millisecond

	eng.PlayTrack(0)
	eng.wait() // track 0 is now loading, resolution in flight
	eng.PlayTrack(1)

	waitFor(t, "track 1 playing", func() bool {
		st := eng.Status()
		return st.State == StatePlaying && st.CurrentIndex == 1
	})
	// let the slow resolution for track 0 arrive and get dropped
	time.Sleep(250 * time.Millisecond)
	eng.wait()

	if got := out.loadedIndexes(); len(got) != 1 || got[0] != 1 {
		t.Errorf("loaded indexes = %v, want [1] only", got)
	}
	if idx := eng.Status().CurrentIndex; idx != 1 {
		t.Errorf("current index = %d, want 1", idx)
	}
}

func TestFadeOutBeforeSourceSwap(t *testing.T) {
	eng, dev, _, _, rec := newTestEngine(t, testTracks(2))

	eng.PlayTrack(0)
	waitFor(t, "track 0 playing", func() bool { return eng.Status().State == StatePlaying })

	eng.PlayTrack(1)
	waitFor(t, "track 1 playing", func() bool {
		st := eng.Status()
		return st.State == StatePlaying && st.CurrentIndex == 1
	})

	if dev.fadeOutCount() == 0 {
		t.Fatal("no fade out before the track switch")
	}
	fadeIdx := rec.indexOf("fadeout")
	stopIdx := rec.indexOf("stop")
	loadIdx := rec.indexOf("load 1")
	if fadeIdx == -1 || stopIdx == -1 || loadIdx == -1 {
		t.Fatalf("missing events in %v", rec.list())
	}
	if !(fadeIdx < stopIdx && stopIdx < loadIdx) {
		t.Errorf("wrong order: fadeout=%d stop=%d load=%d", fadeIdx, stopIdx, loadIdx)
	}
}

func TestTrackEnded(t *testing.T) {
	t.Run("repeat all wraps at queue end", func(t *testing.T) {
		eng, _, _, _, _ := newTestEngine(t, testTracks(3))
		eng.CycleRepeat() // none -> all
		eng.PlayTrack(2)
		waitFor(t, "track 2 playing", func() bool { return eng.Status().CurrentIndex == 2 && eng.IsPlaying() })

		eng.OnMediaEnded(2)
		waitFor(t, "wrap to track 0", func() bool {
			st := eng.Status()
			return st.CurrentIndex == 0 && st.State == StatePlaying
		})
	})

	t.Run("repeat off completes the queue", func(t *testing.T) {
		eng, _, out, _, _ := newTestEngine(t, testTracks(2))
		eng.PlayTrack(1)
		waitFor(t, "track 1 playing", func() bool { return eng.IsPlaying() })

		eng.OnMediaEnded(1)
		waitFor(t, "ended state", func() bool { return eng.Status().State == StateEnded })
		time.Sleep(50 * time.Millisecond)
		eng.wait()
		if got := out.loadedIndexes(); len(got) != 1 {
			t.Errorf("loaded indexes = %v, want just the original load", got)
		}
	})

	t.Run("repeat one beats shuffle", func(t *testing.T) {
		eng, _, out, _, _ := newTestEngine(t, testTracks(3))
		eng.ToggleShuffle()
		eng.CycleRepeat() // all
		eng.CycleRepeat() // one
		eng.PlayTrack(1)
		waitFor(t, "track 1 playing", func() bool { return eng.IsPlaying() })

		eng.OnMediaEnded(1)
		waitFor(t, "track 1 replayed", func() bool {
			got := out.loadedIndexes()
			return len(got) == 2 && got[1] == 1 && eng.IsPlaying()
		})
	})

	t.Run("stale ended event ignored", func(t *testing.T) {
		eng, _, _, _, _ := newTestEngine(t, testTracks(3))
		eng.PlayTrack(2)
		waitFor(t, "track 2 playing", func() bool { return eng.IsPlaying() })

		eng.OnMediaEnded(0)
		eng.wait()
		if st := eng.Status(); st.State != StatePlaying || st.CurrentIndex != 2 {
			t.Errorf("stale ended event changed state to %s/%d", st.State, st.CurrentIndex)
		}
	})
}

func TestPrevTrack(t *testing.T) {
	t.Run("restarts when past the threshold", func(t *testing.T) {
		eng, _, out, _, _ := newTestEngine(t, testTracks(3))
		eng.PlayTrack(1)
		waitFor(t, "playing", func() bool { return eng.IsPlaying() })
		eng.OnMediaReady(1, 300)
		eng.wait()

		out.setPosition(10)
		eng.PrevTrack()
		eng.wait()

		if seeks := out.seekList(); len(seeks) == 0 || seeks[len(seeks)-1] != 0 {
			t.Errorf("seeks = %v, want restart at 0", seeks)
		}
		if idx := eng.Status().CurrentIndex; idx != 1 {
			t.Errorf("current index = %d, want 1", idx)
		}
	})

	t.Run("moves back early in the track", func(t *testing.T) {
		eng, _, _, _, _ := newTestEngine(t, testTracks(3))
		eng.PlayTrack(1)
		waitFor(t, "playing", func() bool { return eng.IsPlaying() })

		eng.PrevTrack()
		waitFor(t, "track 0 playing", func() bool { return eng.Status().CurrentIndex == 0 })
	})
}

func TestSeekValidation(t *testing.T) {
	eng, _, out, _, _ := newTestEngine(t, testTracks(1))
	eng.PlayTrack(0)
	waitFor(t, "playing", func() bool { return eng.IsPlaying() })
	eng.OnMediaReady(0, 300)
	eng.wait()

	eng.Seek(400)
	eng.Seek(-5)
	eng.Seek(120)
	eng.wait()

	if seeks := out.seekList(); len(seeks) != 1 || seeks[0] != 120 {
		t.Errorf("seeks = %v, want [120] with out-of-range discarded", seeks)
	}
}

func TestRestore(t *testing.T) {
	t.Run("loads paused with deferred seek", func(t *testing.T) {
		eng, _, out, _, _ := newTestEngine(t, nil)
		bands := []float64{1, 2, 3, 4, 5, 5, 4, 3, 2, 1}
		snap := &model.PlaybackSnapshot{
			CurrentIndex: 1,
			SeekPosition: 42,
			Volume:       55,
			RepeatMode:   "all",
			EQBands:      bands,
			EQPreset:     audio.PresetCustom,
		}
		eng.Restore(snap, testTracks(3))

		waitFor(t, "paused restore", func() bool { return eng.Status().State == StatePaused })
		st := eng.Status()
		if st.CurrentIndex != 1 || st.Volume != 55 || st.RepeatMode != model.RepeatAll {
			t.Errorf("restored status = %+v", st)
		}

		// metadata arrives, the saved position applies exactly once
		eng.OnMediaReady(1, 300)
		eng.wait()
		if seeks := out.seekList(); len(seeks) != 1 || seeks[0] != 42 {
			t.Fatalf("seeks = %v, want [42]", seeks)
		}
		eng.OnMediaReady(1, 300)
		eng.wait()
		if seeks := out.seekList(); len(seeks) != 1 {
			t.Errorf("seeks = %v, marker applied more than once", seeks)
		}

		// EQ marker was consumed during graph assembly
		got := eng.Equalizer().Bands()
		for i := range bands {
			if got[i] != bands[i] {
				t.Errorf("band %d = %v, want %v", i, got[i], bands[i])
			}
		}
	})

	t.Run("out of range saved position discarded", func(t *testing.T) {
		eng, _, out, _, _ := newTestEngine(t, nil)
		snap := &model.PlaybackSnapshot{CurrentIndex: 0, SeekPosition: 500}
		eng.Restore(snap, testTracks(1))
		waitFor(t, "paused restore", func() bool { return eng.Status().State == StatePaused })

		eng.OnMediaReady(0, 300)
		eng.wait()
		if seeks := out.seekList(); len(seeks) != 0 {
			t.Errorf("seeks = %v, want none", seeks)
		}
	})

	t.Run("empty snapshot stays idle", func(t *testing.T) {
		eng, _, _, _, _ := newTestEngine(t, nil)
		eng.Restore(nil, nil)
		eng.wait()
		st := eng.Status()
		if st.State != StateIdle || !st.RestoreComplete {
			t.Errorf("status after empty restore = %+v", st)
		}
	})
}

func TestUnsupportedFormatSkips(t *testing.T) {
	eng, _, out, _, _ := newTestEngine(t, testTracks(2))
	out.mu.Lock()
	out.errs[0] = audio.ErrUnsupportedFormat
	out.mu.Unlock()

	eng.PlayTrack(0)
	waitFor(t, "skip to track 1", func() bool {
		st := eng.Status()
		return st.CurrentIndex == 1 && st.State == StatePlaying
	})
	if got := out.loadedIndexes(); len(got) != 1 || got[0] != 1 {
		t.Errorf("loaded indexes = %v, want [1]", got)
	}
}

func TestNormalizationAppliedPerTrack(t *testing.T) {
	tracks := testTracks(2)
	loud := -8.0
	tracks[0].LoudnessDB = &loud

	eng, dev, _, _, _ := newTestEngine(t, tracks)
	eng.PlayTrack(0)
	waitFor(t, "playing", func() bool { return eng.IsPlaying() })

	// target -14 and measured -8 means a 6 dB cut
	want := audio.NormalizationFactor(-6)
	if got := dev.normFactor(); got != want {
		t.Errorf("norm factor = %v, want %v", got, want)
	}

	// a track with no measurement runs at unity
	eng.PlayTrack(1)
	waitFor(t, "track 1 playing", func() bool { return eng.Status().CurrentIndex == 1 && eng.IsPlaying() })
	if got := dev.normFactor(); got != 1.0 {
		t.Errorf("norm factor without measurement = %v, want 1.0", got)
	}
}

func TestVolumeAndModes(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(1))

	eng.SetVolume(150)
	eng.SetVolume(-3)
	eng.wait()
	if v := eng.Status().Volume; v != 0 {
		t.Errorf("volume = %d, want clamp to 0", v)
	}
	eng.SetVolume(65)
	eng.ToggleMute()
	eng.wait()
	st := eng.Status()
	if st.Volume != 65 || !st.IsMuted {
		t.Errorf("status = %+v, want volume 65 muted", st)
	}

	eng.CycleRepeat()
	eng.CycleRepeat()
	eng.CycleRepeat()
	eng.ToggleShuffle()
	eng.wait()
	st = eng.Status()
	if st.RepeatMode != model.RepeatOff {
		t.Errorf("repeat after full cycle = %s, want none", st.RepeatMode)
	}
	if !st.IsShuffle {
		t.Error("shuffle not enabled")
	}
}

func TestRemoveTrackShiftsIndex(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(3))
	eng.PlayTrack(2)
	waitFor(t, "playing", func() bool { return eng.IsPlaying() })

	eng.RemoveTrack(0)
	eng.wait()
	st := eng.Status()
	if st.CurrentIndex != 1 || len(st.Playlist) != 2 {
		t.Errorf("after removal: index %d, %d tracks; want 1, 2", st.CurrentIndex, len(st.Playlist))
	}
	if !eng.IsPlaying() {
		t.Error("removing another entry interrupted playback")
	}
}

func TestMoveTrackFollowsCurrent(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(4))
	eng.PlayTrack(1)
	waitFor(t, "playing", func() bool { return eng.IsPlaying() })

	t.Run("moving the playing track", func(t *testing.T) {
		eng.MoveTrack(1, 3)
		eng.wait()
		st := eng.Status()
		if st.CurrentIndex != 3 {
			t.Errorf("index = %d, want 3", st.CurrentIndex)
		}
		if st.Playlist[3].Path != "/music/t1.mp3" {
			t.Errorf("slot 3 holds %s", st.Playlist[3].Path)
		}
	})

	t.Run("moving another entry across it", func(t *testing.T) {
		eng.MoveTrack(0, 3)
		eng.wait()
		st := eng.Status()
		if st.CurrentIndex != 2 {
			t.Errorf("index = %d, want 2", st.CurrentIndex)
		}
	})

	t.Run("out of range is a no-op", func(t *testing.T) {
		before := eng.Status().Playlist
		eng.MoveTrack(0, 9)
		eng.wait()
		after := eng.Status().Playlist
		for i := range before {
			if before[i].Path != after[i].Path {
				t.Fatalf("queue changed at %d", i)
			}
		}
	})
}

// Snapshot and Status are called from the persistence gateway's write
// goroutine while the command loop is switching tracks; run them
// concurrently so the race detector can check the locking.
func TestSnapshotDuringTrackSwitch(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(4))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				eng.Snapshot()
				eng.Status()
			}
		}
	}()

	for i := 0; i < 50; i++ {
		eng.PlayTrack(i % 4)
	}
	eng.wait()
	close(stop)
	wg.Wait()

	if snap := eng.Snapshot(); snap.CurrentIndex != 1 {
		t.Errorf("final index = %d, want 1", snap.CurrentIndex)
	}
}

func TestStatusPlaylistIsACopy(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(3))
	eng.wait()

	before := eng.Status()
	eng.MoveTrack(0, 2)
	eng.wait()

	if before.Playlist[0].Path != "/music/t0.mp3" {
		t.Errorf("earlier status view changed underfoot: slot 0 now %s", before.Playlist[0].Path)
	}
	if after := eng.Status(); after.Playlist[2].Path != "/music/t0.mp3" {
		t.Errorf("move not visible in fresh status: slot 2 holds %s", after.Playlist[2].Path)
	}
}

// Output callbacks fire on the command goroutine itself, so a command must
// be able to enqueue further commands without ever blocking the loop.
func TestReentrantCommandsDoNotBlock(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(1))

	done := make(chan struct{})
	eng.do(func() {
		for i := 0; i < 256; i++ {
			eng.do(func() {})
		}
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("command loop blocked enqueueing onto itself")
	}
	eng.wait()
}

func TestSnapshotRoundTrip(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t, testTracks(2))
	eng.SetVolume(42)
	eng.ToggleShuffle()
	eng.SetEQBand(2, 4.5)
	eng.wait()

	snap := eng.Snapshot()
	if snap.Volume != 42 || !snap.IsShuffle {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.EQBands[2] != 4.5 || snap.EQPreset != audio.PresetCustom {
		t.Errorf("snapshot eq = %v / %s", snap.EQBands, snap.EQPreset)
	}
}
