package analyze

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"MacanFM/logger"
	"MacanFM/repository"
)

// Worker measures loudness for library tracks that have none yet, so
// normalization has data the next time each track plays.
type Worker struct {
	repo     repository.TrackRepository
	interval time.Duration
}

func NewWorker(repo repository.TrackRepository) *Worker {
	return &Worker{repo: repo, interval: 5 * time.Minute}
}

// Start runs an analysis sweep immediately and then on each interval until
// ctx is done. Call in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.sweep(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	tracks, err := w.repo.GetAllTracks()
	if err != nil {
		logger.Warn("loudness sweep failed to list tracks", logger.ErrorField(err))
		return
	}
	measured := 0
	for _, t := range tracks {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if t.LoudnessDB != nil || t.IsVideo {
			continue
		}
		// 目前只支持分析 wav 文件
		if strings.ToLower(filepath.Ext(t.Path)) != ".wav" {
			continue
		}
		db, merr := MeasureWAV(t.Path)
		if merr != nil {
			logger.Debug("loudness measurement skipped",
				logger.String("path", t.Path), logger.ErrorField(merr))
			continue
		}
		if uerr := w.repo.UpdateTrackLoudness(t.Path, db); uerr != nil {
			logger.Warn("failed to store loudness",
				logger.String("path", t.Path), logger.ErrorField(uerr))
			continue
		}
		measured++
	}
	if measured > 0 {
		logger.Info("响度分析完成", logger.Int("measured", measured))
	}
}
