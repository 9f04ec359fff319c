package rounds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/logreader"
	"github.com/ramonehamilton/FallGuys-Companion/internal/metrics"
)

// Handler receives the parser's output. Round slices passed to a Handler are
// copies owned by the receiver.
type Handler interface {
	// RoundsCompleted is called with the rounds of every show resolved during a tick.
	RoundsCompleted(rounds []RoundInfo)
	// RoundsCurrent is called every tick with the rounds of the current show.
	RoundsCurrent(rounds []RoundInfo)
	// PingUpdated is called when a tick read a round trip time.
	PingUpdated(ping int)
	// ShowChanged is called when a line starts, leaves or ends a show.
	ShowChanged(change ShowChange)
	// Error is called for every line that could not be applied.
	Error(err error)
}

// ParserConfig holds configuration for a Parser.
type ParserConfig struct {
	// Buffer is drained every tick. Required.
	Buffer *logreader.LineBuffer

	// Interval between ticks.
	// Default: 500ms
	Interval time.Duration

	Handler Handler
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Parser drains a LineBuffer and drives a GameState with the lines.
type Parser struct {
	buffer   *logreader.LineBuffer
	interval time.Duration
	handler  Handler
	metrics  *metrics.Collector
	logger   *zap.Logger

	mu    sync.Mutex
	state GameState
}

// NewParser creates a new Parser with the given configuration.
func NewParser(config *ParserConfig) (*Parser, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Buffer == nil {
		return nil, fmt.Errorf("buffer cannot be nil")
	}

	interval := config.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	handler := config.Handler
	if handler == nil {
		handler = nopHandler{}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Parser{
		buffer:   config.Buffer,
		interval: interval,
		handler:  handler,
		metrics:  config.Metrics,
		logger:   logger.Named("parser"),
	}, nil
}

// Run ticks until ctx is cancelled.
func (p *Parser) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Tick()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick processes every line currently in the buffer and publishes the results.
func (p *Parser) Tick() {
	started := time.Now()
	lines := p.buffer.Drain()

	p.mu.Lock()
	var (
		completed    []RoundInfo
		shows        []ShowChange
		errs         []error
		pingCaptured bool
	)
	for _, line := range lines {
		step, err := p.state.Apply(line)
		if err != nil {
			p.metrics.RecordParseError()
			p.logger.Warn("line rejected", zap.String("trigger", step.Trigger), zap.Error(err))
			errs = append(errs, fmt.Errorf("parse line %q: %w", line.Text, err))
			continue
		}
		if step.Trigger == "" {
			continue
		}

		p.metrics.RecordTransition(step.Trigger)
		if step.Completed != nil {
			completed = append(completed, step.Completed...)
			p.metrics.RecordShow(len(step.Completed))
			p.logger.Info("show completed", zap.Int("rounds", len(step.Completed)))
		}
		if step.Show != ShowUnchanged {
			shows = append(shows, step.Show)
		}
		if step.PingCaptured {
			pingCaptured = true
		}
	}
	current := p.state.Snapshot()
	ping := p.state.Ping
	p.mu.Unlock()

	for _, err := range errs {
		p.handler.Error(err)
	}
	for _, change := range shows {
		p.handler.ShowChanged(change)
	}
	if len(completed) > 0 {
		p.handler.RoundsCompleted(completed)
	}
	p.handler.RoundsCurrent(current)
	if pingCaptured {
		p.metrics.SetPing(ping)
		p.handler.PingUpdated(ping)
	}

	p.metrics.RecordTick(len(lines), time.Since(started))
}

// Snapshot returns a copy of the rounds of the current show.
func (p *Parser) Snapshot() []RoundInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Snapshot()
}

// Reset discards all parse state.
func (p *Parser) Reset() {
	p.mu.Lock()
	p.state.Reset()
	p.mu.Unlock()
}

type nopHandler struct{}

func (nopHandler) RoundsCompleted([]RoundInfo) {}
func (nopHandler) RoundsCurrent([]RoundInfo)   {}
func (nopHandler) PingUpdated(int)             {}
func (nopHandler) ShowChanged(ShowChange)      {}
func (nopHandler) Error(error)                 {}
