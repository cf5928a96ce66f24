package persist

import (
	"context"
	"sync"
	"time"

	"MacanFM/cache"
	"MacanFM/logger"
	"MacanFM/model"
)

const (
	// Rapid-fire changes (volume drag, EQ slider) coalesce into one write.
	defaultDebounce = 800 * time.Millisecond
	// How long to wait before re-arming when a write is already running.
	defaultRetry = 250 * time.Millisecond
	// Write interval while something is playing, so a crash loses at most
	// a few seconds of position.
	periodicInterval = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// SnapshotStore persists a playback snapshot. *cache.SessionStore satisfies
// it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *model.PlaybackSnapshot) error
}

// Gateway debounces snapshot writes and guarantees that at most one write
// is in flight at any time. State changes call Schedule; the actual write
// happens after the debounce window passed with no further changes.
type Gateway struct {
	store    SnapshotStore
	source   func() *model.PlaybackSnapshot
	playlist func() []*model.Track
	debounce time.Duration
	retry    time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	inFlight bool
}

// NewGateway builds a gateway around a snapshot source. playlist may be
// nil when the caller mirrors the queue itself.
func NewGateway(store SnapshotStore, source func() *model.PlaybackSnapshot, playlist func() []*model.Track) *Gateway {
	return &Gateway{
		store:    store,
		source:   source,
		playlist: playlist,
		debounce: defaultDebounce,
		retry:    defaultRetry,
	}
}

// newGatewayWithWindows exists so tests can shrink the timing windows.
func newGatewayWithWindows(store SnapshotStore, source func() *model.PlaybackSnapshot, debounce, retry time.Duration) *Gateway {
	g := NewGateway(store, source, nil)
	g.debounce = debounce
	g.retry = retry
	return g
}

// Schedule arms (or re-arms) the debounce timer. Every call within the
// window pushes the write further out, so a burst of changes produces a
// single write.
func (g *Gateway) Schedule() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armLocked(g.debounce)
}

func (g *Gateway) armLocked(d time.Duration) {
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(d, g.fire)
}

// fire runs when the debounce window expires. If a write is still in
// flight it backs off and retries instead of stacking a second write.
func (g *Gateway) fire() {
	g.mu.Lock()
	if g.inFlight {
		g.armLocked(g.retry)
		g.mu.Unlock()
		return
	}
	g.inFlight = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
	}()

	g.write()
}

func (g *Gateway) write() {
	snap := g.source()
	if snap == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := g.store.SaveSnapshot(ctx, snap); err != nil {
		logger.Warn("snapshot write failed", logger.ErrorField(err))
		return
	}
	if g.playlist != nil {
		if err := SavePlaylist(ctx, g.playlist()); err != nil {
			logger.Warn("playlist write failed", logger.ErrorField(err))
		}
	}
	logger.Debug("snapshot written", logger.Int("index", snap.CurrentIndex))
}

// Flush cancels any pending timer and writes immediately. Used at
// shutdown.
func (g *Gateway) Flush() {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	for g.inFlight {
		// a write is running right now; tiny spin is fine at shutdown
		g.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		g.mu.Lock()
	}
	g.inFlight = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
	}()
	g.write()
}

// StartPeriodic writes the snapshot every few seconds while playback is
// active, until ctx is done. Call in its own goroutine.
func (g *Gateway) StartPeriodic(ctx context.Context, playing func() bool) {
	ticker := time.NewTicker(periodicInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if playing() {
				g.Schedule()
			}
		}
	}
}

// SavePlaylist mirrors the queue into redis alongside the snapshot.
func SavePlaylist(ctx context.Context, tracks []*model.Track) error {
	items := make([]cache.PlaylistItem, 0, len(tracks))
	for i, t := range tracks {
		items = append(items, cache.PlaylistItem{
			Path:     t.Path,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			IsVideo:  t.IsVideo,
			Duration: t.Duration,
			Position: i,
		})
	}
	return cache.SavePlaylist(ctx, items)
}
