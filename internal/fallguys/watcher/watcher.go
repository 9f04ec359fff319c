// Package watcher runs the log tailer and the round parser together and
// publishes their output as events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/logreader"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
	"github.com/ramonehamilton/FallGuys-Companion/internal/metrics"
)

// ErrStopping is returned by Start while the loops of an earlier Stop are still exiting.
var ErrStopping = errors.New("watcher is still stopping")

// Config holds configuration for a Watcher.
type Config struct {
	// Interval is the polling interval of both loops.
	// Default: 500ms
	Interval time.Duration

	// UseFileEvents wakes the tailer on filesystem notifications.
	UseFileEvents bool

	// Dispatcher receives every event. Required.
	Dispatcher *events.EventDispatcher

	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Status is a point-in-time view of the watcher.
type Status struct {
	Running       bool      `json:"running"`
	Stopping      bool      `json:"stopping,omitempty"`
	Directory     string    `json:"directory,omitempty"`
	ActivePath    string    `json:"activePath,omitempty"`
	Offset        int64     `json:"offset"`
	ReadingLive   bool      `json:"readingLive"`
	SessionDate   time.Time `json:"sessionDate"`
	InShow        bool      `json:"inShow"`
	EndedShow     bool      `json:"endedShow"`
	LastPing      int       `json:"lastPing"`
	CurrentRounds int       `json:"currentRounds"`
}

// Watcher owns a Tailer and a Parser sharing one LineBuffer.
type Watcher struct {
	interval      time.Duration
	useFileEvents bool
	dispatcher    *events.EventDispatcher
	metrics       *metrics.Collector
	logger        *zap.Logger
	buffer        *logreader.LineBuffer

	mu         sync.Mutex
	running    bool
	stopped    chan struct{} // Non-nil while a stop is in progress
	directory  string
	cancel     context.CancelFunc
	tailerDone chan struct{}
	parserDone chan struct{}
	tailer     *logreader.Tailer
	parser     *rounds.Parser
	publisher  *publisher
}

// New creates a stopped Watcher.
func New(config Config) (*Watcher, error) {
	if config.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	interval := config.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		interval:      interval,
		useFileEvents: config.UseFileEvents,
		dispatcher:    config.Dispatcher,
		metrics:       config.Metrics,
		logger:        logger.Named("watcher"),
		buffer:        logreader.NewLineBuffer(),
	}, nil
}

// Start begins following the logs in directory. fileName is the live log's
// name, Player.log when empty. Calling Start on a running watcher does nothing.
// Start returns ErrStopping until the loops of a timed out Stop have exited.
func (w *Watcher) Start(directory, fileName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if w.stopped != nil {
		return ErrStopping
	}

	pub := newPublisher(w.dispatcher)

	tailer, err := logreader.NewTailer(&logreader.TailerConfig{
		Directory:     directory,
		FileName:      fileName,
		Interval:      w.interval,
		UseFileEvents: w.useFileEvents,
		Buffer:        w.buffer,
		Handler:       tailerEvents{pub},
		Metrics:       w.metrics,
		Logger:        w.logger,
	})
	if err != nil {
		return fmt.Errorf("create tailer: %w", err)
	}

	parser, err := rounds.NewParser(&rounds.ParserConfig{
		Buffer:   w.buffer,
		Interval: w.interval,
		Handler:  parserEvents{pub},
		Metrics:  w.metrics,
		Logger:   w.logger,
	})
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pub.ctx = ctx

	w.tailer = tailer
	w.parser = parser
	w.publisher = pub
	w.directory = directory
	w.cancel = cancel
	w.tailerDone = make(chan struct{})
	w.parserDone = make(chan struct{})
	w.running = true

	go func(done chan struct{}) {
		defer close(done)
		tailer.Run(ctx)
	}(w.tailerDone)

	go func(done chan struct{}) {
		defer close(done)
		parser.Run(ctx)
	}(w.parserDone)

	w.logger.Info("watcher started",
		zap.String("directory", directory),
		zap.String("path", tailer.ActivePath()))

	return nil
}

// Stop signals both loops to exit and blocks until they have, then discards
// any buffered lines and parse state. If ctx ends first Stop returns
// ctx.Err(); the watcher then reports Stopping until the loops are gone, and
// a later Stop waits for the same shutdown.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.cancel()
		w.running = false
		w.stopped = make(chan struct{})
		go w.finishStop(w.tailerDone, w.parserDone, w.stopped)
	}
	stopped := w.stopped
	w.mu.Unlock()

	if stopped == nil {
		return nil
	}

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for watcher loops: %w", ctx.Err())
	}
}

// finishStop waits for both loops and scrubs the state they shared.
func (w *Watcher) finishStop(tailerDone, parserDone, stopped chan struct{}) {
	<-tailerDone
	<-parserDone

	w.mu.Lock()
	w.buffer.Clear()
	w.parser.Reset()
	w.tailer = nil
	w.parser = nil
	w.publisher = nil
	w.stopped = nil
	directory := w.directory
	w.mu.Unlock()

	close(stopped)
	w.logger.Info("watcher stopped", zap.String("directory", directory))
}

// Running reports whether the watcher has been started and not stopped.
// It is false as soon as Stop has been called.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// CurrentRounds returns a copy of the rounds of the show in progress.
func (w *Watcher) CurrentRounds() []rounds.RoundInfo {
	w.mu.Lock()
	parser := w.parser
	w.mu.Unlock()

	if parser == nil {
		return nil
	}
	return parser.Snapshot()
}

// Status returns the watcher's current status.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := Status{Running: w.running, Stopping: w.stopped != nil}
	if !w.running {
		return status
	}

	status.Directory = w.directory
	status.ActivePath = w.tailer.ActivePath()
	status.Offset = w.tailer.Offset()
	status.ReadingLive = w.tailer.Completed()
	w.publisher.fill(&status)
	return status
}
