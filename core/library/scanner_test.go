package library

import (
	"os"
	"path/filepath"
	"testing"

	"MacanFM/model"
)

type memRepo struct {
	tracks map[string]*model.Track
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{tracks: make(map[string]*model.Track)}
}

func (r *memRepo) CreateTrack(track *model.Track) (int64, error) {
	r.nextID++
	track.ID = r.nextID
	r.tracks[track.Path] = track
	return track.ID, nil
}

func (r *memRepo) GetTrackByID(id int64) (*model.Track, error) {
	for _, t := range r.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetTrackByPath(path string) (*model.Track, error) {
	return r.tracks[path], nil
}

func (r *memRepo) GetAllTracks() ([]*model.Track, error) {
	out := make([]*model.Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		out = append(out, t)
	}
	return out, nil
}

func (r *memRepo) UpdateTrackDuration(path string, duration float64) error {
	if t := r.tracks[path]; t != nil {
		t.Duration = duration
	}
	return nil
}

func (r *memRepo) UpdateTrackCoverArtPath(path, coverPath string) error {
	if t := r.tracks[path]; t != nil {
		t.CoverArtPath = coverPath
	}
	return nil
}

func (r *memRepo) UpdateTrackLoudness(path string, loudnessDB float64) error {
	if t := r.tracks[path]; t != nil {
		t.LoudnessDB = &loudnessDB
	}
	return nil
}

func (r *memRepo) UpdateTrackStreamURL(path, streamURL string) error {
	if t := r.tracks[path]; t != nil {
		t.StreamURL = streamURL
	}
	return nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "sub", "b.flac"))
	touch(t, filepath.Join(dir, "clip.mp4"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".cache", "c.mp3"))

	repo := newMemRepo()
	scanner := NewScanner(repo, dir)

	added, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	if _, ok := repo.tracks[filepath.Join(dir, "notes.txt")]; ok {
		t.Error("non-media file was registered")
	}
	if _, ok := repo.tracks[filepath.Join(dir, ".cache", "c.mp3")]; ok {
		t.Error("dot-directory content was registered")
	}
	video := repo.tracks[filepath.Join(dir, "clip.mp4")]
	if video == nil || !video.IsVideo {
		t.Error("video file not flagged as video")
	}

	// rescan finds nothing new
	added, err = scanner.Scan()
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if added != 0 {
		t.Errorf("rescan added = %d, want 0", added)
	}
}

func TestRegisterUnsupported(t *testing.T) {
	repo := newMemRepo()
	scanner := NewScanner(repo, t.TempDir())
	if scanner.Register("/music/readme.pdf") {
		t.Error("Register accepted a pdf")
	}
}
