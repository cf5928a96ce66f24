package library

import (
	"context"
	"fmt"
	"os"

	"MacanFM/logger"
	"MacanFM/model"
	"MacanFM/repository"
	"MacanFM/storage"
)

// TrackResolver turns a library track into something the outputs can open.
// Local files short-circuit to a file:// URL; everything else gets a
// presigned object-storage URL, cached on the track record.
type TrackResolver struct {
	repo repository.TrackRepository
}

func NewTrackResolver(repo repository.TrackRepository) *TrackResolver {
	return &TrackResolver{repo: repo}
}

func (r *TrackResolver) Resolve(ctx context.Context, track *model.Track) (string, error) {
	if track == nil {
		return "", fmt.Errorf("no track to resolve")
	}
	if _, err := os.Stat(track.Path); err == nil {
		return "file://" + track.Path, nil
	}
	url, err := storage.PresignStreamURL(ctx, track.Path)
	if err != nil {
		// 签发失败时退回上次缓存的地址，可能仍在有效期内
		if track.StreamURL != "" {
			logger.Warn("presign failed, using cached stream url",
				logger.String("path", track.Path), logger.ErrorField(err))
			return track.StreamURL, nil
		}
		return "", fmt.Errorf("failed to resolve stream url for %s: %w", track.Path, err)
	}
	// 缓存签名地址，方便排查问题，过期后会重新签发
	if uerr := r.repo.UpdateTrackStreamURL(track.Path, url); uerr != nil {
		logger.Warn("failed to cache stream url", logger.String("path", track.Path), logger.ErrorField(uerr))
	}
	track.StreamURL = url
	return url, nil
}
