package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the workspace for IOP file changes outside the editor
// and keeps the table current: writes and creations reindex the file,
// removals and renames drop it.
type Watcher struct {
	ix       *Indexer
	root     string
	ext      string
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a recursive watcher rooted at the workspace.
func NewWatcher(ix *Indexer, root, ext string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		ix:       ix,
		root:     root,
		ext:      ext,
		watcher:  fsw,
		log:      log,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins processing events until ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := make(map[string]fsnotify.Op)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.log.Warn("cannot watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !strings.HasSuffix(event.Name, w.ext) {
				continue
			}
			pending[event.Name] |= event.Op
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C

		case <-timerCh:
			batch := pending
			pending = make(map[string]fsnotify.Op)
			timerCh = nil
			w.flush(batch)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) flush(batch map[string]fsnotify.Op) {
	for path, op := range batch {
		switch {
		case op&(fsnotify.Remove|fsnotify.Rename) != 0:
			w.ix.RemoveFile(path)
			w.log.Debug("removed from index", zap.String("path", path))
		case op&(fsnotify.Write|fsnotify.Create) != 0:
			if err := w.ix.ReindexPath(path); err != nil {
				// Deleted between the event and the flush.
				w.log.Debug("reindex skipped", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.log.Warn("cannot watch directory", zap.String("dir", path), zap.Error(err))
			}
		}
		return nil
	})
}
