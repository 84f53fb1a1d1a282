package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirs are never watched. Builds write below the state directory.
var skipDirs = map[string]bool{
	domain.StateDirName: true,
	".git":              true,
	"node_modules":      true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher on fsnotify. Directories created below a
// watched root are added as they appear.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent
	once      sync.Once
}

// NewWatcher creates a Watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: w,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start watches every directory below roots and begins delivering events.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	for _, root := range roots {
		for dir := range walkDirs(root) {
			if err := w.fsWatcher.Add(dir); err != nil {
				return domain.WrapError(err, domain.ErrStoreReadFailed, "path", dir)
			}
		}
	}
	w.once.Do(func() { go w.processEvents(ctx) })
	return nil
}

// Stop releases the underlying watches. Events closes once pending events are drained.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns the stream of changes. It ends when the watcher stops.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func walkDirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are not watched.
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			op, ok := convertOp(event.Op)
			if !ok {
				continue
			}
			select {
			case w.events <- ports.WatchEvent{Path: event.Name, Operation: op}:
			case <-ctx.Done():
				return
			}

			if op == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDirs[info.Name()] {
					for dir := range walkDirs(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher: " + err.Error())
		}
	}
}

func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}
