package persist

import (
	"context"
	"sync"

	"MacanFM/cache"
	"MacanFM/logger"
	"MacanFM/model"
	"MacanFM/repository"
)

// RestoredSession is what survived a restart: the snapshot plus the queue
// it refers to, re-resolved against the library.
type RestoredSession struct {
	Snapshot *model.PlaybackSnapshot
	Playlist []*model.Track
}

// Restore fetches the persisted snapshot and playlist from redis in
// parallel and resolves each playlist entry against the track library.
// Entries the library no longer knows are dropped and the saved current
// index is shifted to keep pointing at the same track.
func Restore(ctx context.Context, store *cache.SessionStore, repo repository.TrackRepository) (*RestoredSession, error) {
	var (
		wg       sync.WaitGroup
		snap     *model.PlaybackSnapshot
		snapErr  error
		items    []cache.PlaylistItem
		itemsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		snap, snapErr = store.LoadSnapshot(ctx)
	}()
	go func() {
		defer wg.Done()
		items, itemsErr = cache.GetPlaylist(ctx)
	}()
	wg.Wait()
	if snapErr != nil {
		return nil, snapErr
	}
	if itemsErr != nil {
		return nil, itemsErr
	}
	if snap == nil && len(items) == 0 {
		return nil, nil // nothing to restore
	}

	tracks := make([]*model.Track, 0, len(items))
	dropped := 0
	for i, item := range items {
		track, err := repo.GetTrackByPath(item.Path)
		if err != nil {
			logger.Warn("restore lookup failed",
				logger.String("path", item.Path), logger.ErrorField(err))
			track = nil
		}
		if track == nil {
			logger.Info("dropping vanished playlist entry", logger.String("path", item.Path))
			if snap != nil {
				if i < snap.CurrentIndex {
					dropped++
				} else if i == snap.CurrentIndex {
					// the playing track itself is gone, forget the position
					snap.CurrentIndex = -1
					snap.SeekPosition = 0
				}
			}
			continue
		}
		tracks = append(tracks, track)
	}
	if snap != nil && snap.CurrentIndex >= 0 {
		snap.CurrentIndex -= dropped
		if snap.CurrentIndex >= len(tracks) {
			snap.CurrentIndex = -1
			snap.SeekPosition = 0
		}
	}
	return &RestoredSession{Snapshot: snap, Playlist: tracks}, nil
}
