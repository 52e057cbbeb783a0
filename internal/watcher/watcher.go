// Package watcher observes the events source file and signals debounced
// change notifications. It is an external caller of the cache manager's
// Rebuild, never part of the core: the core exposes no timers of its own.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures the file watcher.
type Options struct {
	// DebounceWindow is how long to wait after the last write before
	// signalling a change. Editors and sync tools write in bursts.
	// Default: 500ms.
	DebounceWindow time.Duration

	// BufferSize is the change channel buffer. Default: 16.
	BufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 500 * time.Millisecond,
		BufferSize:     16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.BufferSize == 0 {
		o.BufferSize = defaults.BufferSize
	}
	return o
}

// FileWatcher watches one file for writes and emits a debounced signal per
// burst of changes.
type FileWatcher struct {
	path      string
	opts      Options
	fsw       *fsnotify.Watcher
	debouncer *Debouncer

	changes chan struct{}
	errs    chan error

	stopOnce sync.Once
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a watcher for the given file path.
func New(path string, opts Options) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	opts = opts.WithDefaults()
	return &FileWatcher{
		path:      path,
		opts:      opts,
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		changes:   make(chan struct{}, opts.BufferSize),
		errs:      make(chan error, 4),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself: atomic save patterns (write temp, rename over) replace the
// inode and would silently detach a direct file watch.
func (w *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fsw.Add(dir); err != nil {
		return err
	}

	w.started = true
	go w.run(ctx)

	slog.Info("watcher_started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.opts.DebounceWindow))
	return nil
}

func (w *FileWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.isTarget(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debouncer.Touch()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				slog.Warn("watcher_error_dropped", slog.String("error", err.Error()))
			}
		case <-w.debouncer.Fired():
			select {
			case w.changes <- struct{}{}:
			default:
				// A pending change signal already covers this burst.
			}
		}
	}
}

func (w *FileWatcher) isTarget(name string) bool {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return false
	}
	got, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return got == target
}

// Changes returns the debounced change-signal channel. One signal covers an
// entire burst of writes.
func (w *FileWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors returns non-fatal watcher errors. The watcher keeps running.
func (w *FileWatcher) Errors() <-chan error {
	return w.errs
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.debouncer.Stop()
		err = w.fsw.Close()
		if w.started {
			<-w.doneCh
		}
	})
	return err
}
