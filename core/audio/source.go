package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// ErrUnsupportedFormat marks a container the audio path cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

var httpClient = &http.Client{Timeout: 60 * time.Second}

// fetchToTemp downloads a stream URL into a temp file so the decoder gets a
// seekable source.
func fetchToTemp(ctx context.Context, url, tempDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build stream request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stream fetch returned status %d", resp.StatusCode)
	}

	dir, err := os.MkdirTemp(tempDir, "macanfm-stream-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	name := filepath.Base(strings.SplitN(filepath.Base(url), "?", 2)[0])
	localPath := filepath.Join(dir, name)
	f, err := os.Create(localPath)
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to download stream: %w", err)
	}
	return localPath, nil
}

// OpenStream resolves a stream URL or local path into a decoded stream. The
// cleanup function releases the decoder and any temp download.
func OpenStream(ctx context.Context, url, tempDir string) (beep.StreamSeekCloser, beep.Format, func(), error) {
	localPath := strings.TrimPrefix(url, "file://")
	var tempRoot string

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		fetched, err := fetchToTemp(ctx, url, tempDir)
		if err != nil {
			return nil, beep.Format{}, nil, err
		}
		localPath = fetched
		tempRoot = filepath.Dir(fetched)
	}

	f, err := os.Open(localPath)
	if err != nil {
		if tempRoot != "" {
			os.RemoveAll(tempRoot)
		}
		return nil, beep.Format{}, nil, fmt.Errorf("failed to open media file: %w", err)
	}

	var stream beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		stream, format, err = vorbis.Decode(f)
	default:
		f.Close()
		if tempRoot != "" {
			os.RemoveAll(tempRoot)
		}
		return nil, beep.Format{}, nil, ErrUnsupportedFormat
	}
	if err != nil {
		f.Close()
		if tempRoot != "" {
			os.RemoveAll(tempRoot)
		}
		return nil, beep.Format{}, nil, fmt.Errorf("failed to decode media: %w", err)
	}

	cleanup := func() {
		stream.Close()
		if tempRoot != "" {
			os.RemoveAll(tempRoot)
		}
	}
	return stream, format, cleanup, nil
}
