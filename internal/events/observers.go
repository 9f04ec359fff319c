package events

import (
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LoggingObserver logs all events for debugging purposes.
// Errors and completed shows are logged at info level, everything else at debug.
type LoggingObserver struct {
	name    string
	verbose bool
	logger  *zap.Logger
}

// NewLoggingObserver creates a new observer that logs events.
func NewLoggingObserver(logger *zap.Logger, verbose bool) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
		logger:  logger.Named("events"),
	}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	fields := []zap.Field{zap.String("event", event.Type)}
	if o.verbose {
		fields = append(fields, zap.Any("data", event.Data))
	}

	switch event.Type {
	case TypeWatcherError:
		if data, ok := GetTypedData[WatcherErrorEvent](event); ok {
			fields = append(fields, zap.String("source", data.Source), zap.String("error", data.Error))
		}
		o.logger.Info("watcher error", fields...)
	case TypeRoundsCompleted:
		if data, ok := GetTypedData[RoundsCompletedEvent](event); ok {
			fields = append(fields, zap.Int("rounds", len(data.Rounds)))
		}
		o.logger.Info("rounds completed", fields...)
	case TypeSessionDate, TypeShowStarted, TypeShowEnded:
		o.logger.Info("event", fields...)
	default:
		o.logger.Debug("event", fields...)
	}
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}

// RateLimitedObserver forwards events to another observer, dropping events of
// the limited types that arrive faster than the limiter allows. Events of
// other types always pass through.
type RateLimitedObserver struct {
	next    Observer
	limited map[string]struct{}
	limiter *rate.Limiter
	dropped atomic.Int64
}

// NewRateLimitedObserver wraps next so that the given event types are
// delivered at most at limit per second, with bursts of burst events.
func NewRateLimitedObserver(next Observer, limit rate.Limit, burst int, eventTypes ...string) *RateLimitedObserver {
	limited := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		limited[t] = struct{}{}
	}
	return &RateLimitedObserver{
		next:    next,
		limited: limited,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// OnEvent forwards the event unless it is limited and over budget.
func (o *RateLimitedObserver) OnEvent(event Event) error {
	if _, ok := o.limited[event.Type]; ok && !o.limiter.Allow() {
		o.dropped.Add(1)
		return nil
	}
	return o.next.OnEvent(event)
}

// GetName returns the wrapped observer's name.
func (o *RateLimitedObserver) GetName() string {
	return "RateLimited(" + o.next.GetName() + ")"
}

// ShouldHandle defers to the wrapped observer.
func (o *RateLimitedObserver) ShouldHandle(eventType string) bool {
	return o.next.ShouldHandle(eventType)
}

// Dropped returns the number of events dropped so far.
func (o *RateLimitedObserver) Dropped() int64 {
	return o.dropped.Load()
}

// FuncObserver adapts a function to the Observer interface.
type FuncObserver struct {
	name  string
	types map[string]struct{}
	fn    func(Event) error
}

// NewFuncObserver creates an observer calling fn for the given event types,
// or for every event when no types are given.
func NewFuncObserver(name string, fn func(Event) error, eventTypes ...string) *FuncObserver {
	var types map[string]struct{}
	if len(eventTypes) > 0 {
		types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			types[t] = struct{}{}
		}
	}
	return &FuncObserver{name: name, types: types, fn: fn}
}

// OnEvent calls the wrapped function.
func (o *FuncObserver) OnEvent(event Event) error {
	return o.fn(event)
}

// GetName returns the observer's name.
func (o *FuncObserver) GetName() string {
	return o.name
}

// ShouldHandle reports whether eventType is one the observer was created for.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if o.types == nil {
		return true
	}
	_, ok := o.types[eventType]
	return ok
}
