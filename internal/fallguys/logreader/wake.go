package logreader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Waker watches the log directory and signals when one of the watched log
// files is written, created or replaced. The polling ticker stays the source of
// truth; the waker only shortens the delay between a write and the next poll.
type Waker struct {
	fsw    *fsnotify.Watcher
	names  map[string]struct{}
	c      chan struct{}
	done   chan struct{}
	logger *zap.Logger
	once   sync.Once
}

// NewWaker starts watching directory for changes to the named files.
// The directory is watched rather than the files so that a log recreated by the
// client is still observed.
func NewWaker(directory string, names []string, logger *zap.Logger) (*Waker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if err := fsw.Add(directory); err != nil {
		_ = fsw.Close() //nolint:errcheck // Ignore error on cleanup
		return nil, fmt.Errorf("watch log directory %s: %w", directory, err)
	}

	w := &Waker{
		fsw:    fsw,
		names:  make(map[string]struct{}, len(names)),
		c:      make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	for _, name := range names {
		w.names[strings.ToLower(filepath.Base(name))] = struct{}{}
	}

	go w.run()

	return w, nil
}

// C returns the channel that receives a value whenever a watched file changes.
// Signals are coalesced: at most one is pending at a time.
func (w *Waker) C() <-chan struct{} {
	return w.c
}

// Close stops watching and waits for the event loop to exit.
func (w *Waker) Close() error {
	var err error
	w.once.Do(func() {
		err = w.fsw.Close()
		<-w.done
	})
	return err
}

func (w *Waker) run() {
	defer close(w.done)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if _, watched := w.names[strings.ToLower(filepath.Base(ev.Name))]; !watched {
				continue
			}
			select {
			case w.c <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
