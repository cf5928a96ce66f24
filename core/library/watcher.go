package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"MacanFM/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the library in sync with the media directory while the
// player runs. New files show up without a rescan.
type Watcher struct {
	scanner  *Scanner
	mediaDir string
	fw       *fsnotify.Watcher
}

func NewWatcher(scanner *Scanner, mediaDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{scanner: scanner, mediaDir: mediaDir, fw: fw}, nil
}

// Start watches the media directory tree until ctx is done. Call in its
// own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fw.Close()

	if err := w.addRecursive(w.mediaDir); err != nil {
		logger.Error("failed to watch media directory", logger.ErrorField(err))
		return
	}
	logger.Info("开始监听媒体目录", logger.String("dir", w.mediaDir))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				w.handleCreate(event.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("media watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) handleCreate(path string) {
	if isDir(path) {
		if !strings.HasPrefix(filepath.Base(path), ".") {
			if err := w.fw.Add(path); err != nil {
				logger.Warn("failed to watch new directory", logger.String("path", path), logger.ErrorField(err))
			}
		}
		return
	}
	// 文件可能还在写入，稍等片刻再注册
	time.Sleep(500 * time.Millisecond)
	w.scanner.Register(path)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
