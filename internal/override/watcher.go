package override

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before the
// watcher reloads.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls a reload function whenever the override file changes on
// disk. Bursts of events (editors often write, chmod and rename in quick
// succession) collapse into a single reload.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(context.Context) error
	fs       *fsnotify.Watcher
	logger   Logger
}

// NewWatcher starts watching the directory that holds path. The directory
// must exist. Events are not processed until Run is called.
func NewWatcher(path string, debounce time.Duration, onChange func(context.Context) error) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	// Watch the directory, not the file: atomic saves replace the inode.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		fs:       fw,
		logger:   noopLogger{},
	}, nil
}

// SetLogger sets the logger for the watcher.
func (w *Watcher) SetLogger(logger Logger) {
	w.logger = logger
}

// Run processes file events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close() //nolint:errcheck // Shutdown

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.matches(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug("override file changed", "path", w.path)
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("reloading overrides", "path", w.path, "error", err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("override watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
