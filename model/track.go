package model

import (
	"path/filepath"
	"strings"
	"time"
)

// videoExtensions are the container formats routed to the video output path.
var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true,
	".webm": true, ".mov": true, ".wmv": true,
}

// Track represents one entry in the media library. A track is identified by
// its Path; everything except Duration, CoverArtPath, StreamURL and
// LoudnessDB is fixed at scan time. Those four are back-filled asynchronously
// and cached on the row.
type Track struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"` // Stable identity key
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	Ext          string    `json:"ext"`
	IsVideo      bool      `json:"isVideo"`
	Duration     float64   `json:"duration"`     // Seconds; 0 until metadata is known
	StreamURL    string    `json:"streamUrl"`    // Resolved per session, cached as fallback
	CoverArtPath string    `json:"coverArtPath"` // Object key in storage, empty if none
	LoudnessDB   *float64  `json:"loudnessDb"`   // Measured loudness in dBFS; nil = not analyzed
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsVideoPath reports whether a file path belongs on the video output path.
func IsVideoPath(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// TrackFromPath builds the scan-time portion of a Track from a file path.
func TrackFromPath(path string) *Track {
	ext := strings.ToLower(filepath.Ext(path))
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return &Track{
		Path:    path,
		Title:   title,
		Ext:     strings.ToUpper(strings.TrimPrefix(ext, ".")),
		IsVideo: videoExtensions[ext],
	}
}
