package sync

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"dashboard-sync-service/internal/logger"
)

// FileWatcher turns filesystem writes to source files into FileEvents. The
// parent directories are watched so files replaced by rename are still seen.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	paths     map[string]string // absolute path -> source name
	eventChan chan FileEvent
	done      chan struct{}
}

func NewFileWatcher(sources []Source) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   w,
		paths:     make(map[string]string, len(sources)),
		eventChan: make(chan FileEvent, 64),
		done:      make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, src := range sources {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("resolve %s: %w", src.Path, err)
		}
		fw.paths[abs] = src.Name()
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return fw, nil
}

func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.eventChan
}

func (fw *FileWatcher) Start() {
	logger.Log.Info("Starting file watcher", zap.Int("files", len(fw.paths)))
	go fw.run()
}

func (fw *FileWatcher) run() {
	defer close(fw.eventChan)
	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			source, ok := fw.paths[abs]
			if !ok {
				continue
			}
			select {
			case fw.eventChan <- FileEvent{Source: source, Path: abs, At: time.Now()}:
			case <-fw.done:
				return
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("File watcher error", zap.Error(err))
		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) Stop() {
	close(fw.done)
	fw.watcher.Close()
	logger.Log.Info("Stopped file watcher")
}
