package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/logger"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   string // "create", "write", "remove"
}

// DefaultDebounce is the default quiet period before changes are delivered.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a set of files and delivers batched change events. The
// parent directories are watched rather than the files themselves, so a
// file replaced by rename (as most editors save) keeps being tracked.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	onChange func(events []Event)
	logger   *zap.SugaredLogger
	ready    chan struct{}
}

// New creates a new file watcher. onChange runs on the watching goroutine,
// so batches are delivered one at a time.
func New(files []string, debounce time.Duration, log *zap.SugaredLogger, onChange func(events []Event)) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		debounce: debounce,
		onChange: onChange,
		logger:   log,
		ready:    make(chan struct{}),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "resolving %s", f), errors.ErrInput)
		}
		w.files[abs] = true
	}
	return w, nil
}

// Ready is closed once the watches are registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Watch blocks until ctx is done, delivering debounced batches of events
// for the watched files.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer fw.Close()

	dirs := map[string]bool{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return errors.Mark(errors.Wrapf(err, "watching %s", dir), errors.ErrInput)
		}
	}
	close(w.ready)

	var (
		pending []Event
		timer   *time.Timer
		fire    <-chan time.Time
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

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			e, relevant := w.translate(ev)
			if !relevant {
				continue
			}
			w.logger.Debugw("File change detected", "file", e.Path, "op", e.Op)
			pending = coalesce(pending, e)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := pending
			pending = nil
			if len(batch) > 0 {
				w.onChange(batch)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("File watcher error", "error", err)
		}
	}
}

// translate maps an fsnotify event on a watched file to an Event.
func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	path := filepath.Clean(ev.Name)
	if !w.files[path] {
		return Event{}, false
	}
	switch {
	case ev.Has(fsnotify.Create):
		return Event{Path: path, Op: "create"}, true
	case ev.Has(fsnotify.Write):
		return Event{Path: path, Op: "write"}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Event{Path: path, Op: "remove"}, true
	default:
		return Event{}, false
	}
}

// coalesce adds e to pending, keeping one entry per path with the most
// recent operation.
func coalesce(pending []Event, e Event) []Event {
	for i := range pending {
		if pending[i].Path == e.Path {
			pending[i].Op = e.Op
			return pending
		}
	}
	return append(pending, e)
}
