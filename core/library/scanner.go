package library

import (
	"os"
	"path/filepath"
	"strings"

	"MacanFM/logger"
	"MacanFM/model"
	"MacanFM/repository"
)

// supportedExtensions lists what the player can open, audio through the
// local chain and video through the UI.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
}

// Scanner walks the media directory and registers every supported file in
// the track library.
type Scanner struct {
	repo     repository.TrackRepository
	mediaDir string
}

func NewScanner(repo repository.TrackRepository, mediaDir string) *Scanner {
	return &Scanner{repo: repo, mediaDir: mediaDir}
}

// Scan walks the media directory once. Already known tracks are left
// untouched. Returns how many new tracks were registered.
func (s *Scanner) Scan() (int, error) {
	added := 0
	err := filepath.Walk(s.mediaDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Warn("scan skipping path", logger.String("path", path), logger.ErrorField(err))
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != s.mediaDir {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Register(path) {
			added++
		}
		return nil
	})
	if err != nil {
		return added, err
	}
	logger.Info("媒体库扫描完成",
		logger.String("dir", s.mediaDir), logger.Int("added", added))
	return added, nil
}

// Register adds a single file to the library if it is a supported media
// type and not yet known. Returns true when a new track was created.
func (s *Scanner) Register(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return false
	}
	existing, err := s.repo.GetTrackByPath(path)
	if err != nil {
		logger.Warn("library lookup failed", logger.String("path", path), logger.ErrorField(err))
		return false
	}
	if existing != nil {
		return false
	}
	track := model.TrackFromPath(path)
	if _, err := s.repo.CreateTrack(track); err != nil {
		logger.Error("failed to register track", logger.String("path", path), logger.ErrorField(err))
		return false
	}
	logger.Debug("registered track", logger.String("path", path))
	return true
}
