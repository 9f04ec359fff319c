// Package daemon runs the log watcher as a long-lived service with show
// history, websocket broadcast and metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/logreader"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/watcher"
	"github.com/ramonehamilton/FallGuys-Companion/internal/metrics"
	"github.com/ramonehamilton/FallGuys-Companion/internal/storage"
	"github.com/ramonehamilton/FallGuys-Companion/internal/storage/models"
	"github.com/ramonehamilton/FallGuys-Companion/internal/version"
)

// staleAfter marks the log monitor as degraded when no event arrived for this long.
const staleAfter = 5 * time.Minute

// Service represents the daemon service that runs continuously.
type Service struct {
	config       *Config
	logger       *zap.Logger
	metrics      *metrics.Collector
	dispatcher   *events.EventDispatcher
	watcher      *watcher.Watcher
	storage      *storage.Service
	persistence  *storage.PersistenceObserver
	wsServer     *WebSocketServer
	errorLimiter *events.RateLimitedObserver
	startTime    time.Time

	// Health tracking
	healthMu    sync.RWMutex
	lastEvent   time.Time
	totalEvents int64
	totalErrors int64
	dbError     string
}

// New creates a daemon service. Storage is opened (and migrated) here so that
// a broken database fails fast.
func New(config *Config, logger *zap.Logger) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config:     config,
		logger:     logger.Named("daemon"),
		metrics:    metrics.NewCollector(),
		dispatcher: events.NewEventDispatcher(logger),
	}

	s.dispatcher.Register(events.NewLoggingObserver(logger, config.VerboseEvents))
	s.dispatcher.Register(events.NewFuncObserver("HealthTracker", s.track))

	if config.StorageEnabled {
		path := config.DBPath
		if path == "" {
			var err error
			if path, err = storage.DefaultPath(); err != nil {
				return nil, err
			}
		}
		db, err := storage.Open(storage.DefaultConfig(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		s.storage = storage.NewService(db)
		s.persistence = storage.NewPersistenceObserver(s.storage, logger)
		s.dispatcher.Register(s.persistence)
		s.logger.Info("show history enabled", zap.String("db", path))
	}

	s.wsServer = NewWebSocketServer(config.Port, config.CORSConfig, logger)
	s.wsServer.SetStatusProvider(s)
	if config.EnableMetrics {
		s.wsServer.SetMetricsHandler(s.metrics.Handler())
	}

	errorRate, errorBurst := rate.Limit(config.ErrorRate), config.ErrorBurst
	if errorRate <= 0 {
		errorRate = 1
	}
	if errorBurst <= 0 {
		errorBurst = 5
	}
	s.errorLimiter = events.NewRateLimitedObserver(NewBroadcastObserver(s.wsServer), errorRate, errorBurst, events.TypeWatcherError)
	s.dispatcher.Register(s.errorLimiter)

	w, err := watcher.New(watcher.Config{
		Interval:      config.PollInterval,
		UseFileEvents: config.UseFSNotify,
		Dispatcher:    s.dispatcher,
		Metrics:       s.metrics,
		Logger:        logger,
	})
	if err != nil {
		s.closeStorage()
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = w

	return s, nil
}

// Start starts the websocket server and the watcher.
func (s *Service) Start() error {
	s.startTime = time.Now()

	directory := s.config.LogDirectory
	if directory == "" {
		detected, err := logreader.DefaultLogDirectory()
		if err != nil {
			return fmt.Errorf("failed to detect log directory: %w", err)
		}
		directory = detected
		s.logger.Info("auto-detected log directory", zap.String("directory", directory))
	}

	if err := s.wsServer.Start(); err != nil {
		return err
	}

	if err := s.watcher.Start(directory, s.config.LogFileName); err != nil {
		_ = s.wsServer.Stop(context.Background()) //nolint:errcheck // Ignore error on cleanup
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	s.wsServer.Broadcast(Event{
		Type: "daemon:status",
		Data: map[string]any{
			"status":    "running",
			"addr":      s.wsServer.Addr(),
			"directory": directory,
		},
	})

	s.logger.Info("daemon started", zap.String("addr", s.wsServer.Addr()), zap.String("directory", directory))
	return nil
}

// Stop stops the watcher, the websocket server and closes storage.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("stopping daemon")

	var errs []error
	if err := s.watcher.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop watcher: %w", err))
	}
	if err := s.wsServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop websocket server: %w", err))
	}
	if err := s.closeStorage(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Service) closeStorage() error {
	if s.storage == nil {
		return nil
	}
	err := s.storage.Close()
	s.storage = nil
	return err
}

// Dispatcher returns the dispatcher every watcher event goes through, so
// callers can register additional observers.
func (s *Service) Dispatcher() *events.EventDispatcher {
	return s.dispatcher
}

// Addr returns the websocket server address once started.
func (s *Service) Addr() string {
	return s.wsServer.Addr()
}

// track updates the health counters for every event.
func (s *Service) track(event events.Event) error {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	s.totalEvents++
	s.lastEvent = event.Time
	if event.Type == events.TypeWatcherError {
		s.totalErrors++
	}
	return nil
}

// StatusResponse is served on /status and sent for get_status requests.
type StatusResponse struct {
	Version         string         `json:"version"`
	Watcher         watcher.Status `json:"watcher"`
	Clients         int            `json:"clients"`
	History         *models.Totals `json:"history,omitempty"`
	DroppedErrors   int64          `json:"droppedErrors"`
	RecentShows     []*models.Show `json:"recentShows,omitempty"`
	UptimeSeconds   float64        `json:"uptime"`
	StorageDisabled bool           `json:"storageDisabled,omitempty"`
}

// GetStatus returns the current watcher status and history totals.
func (s *Service) GetStatus() *StatusResponse {
	status := &StatusResponse{
		Version:       version.GetVersion(),
		Watcher:       s.watcher.Status(),
		Clients:       s.wsServer.ClientCount(),
		DroppedErrors: s.errorLimiter.Dropped(),
		UptimeSeconds: s.GetUptime(),
	}

	if s.storage == nil {
		status.StorageDisabled = true
		return status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	totals, err := s.storage.GetTotals(ctx)
	if err != nil {
		s.recordDBError(err)
		return status
	}
	status.History = totals

	recent, err := s.storage.GetRecentShows(ctx, 5)
	if err != nil {
		s.recordDBError(err)
		return status
	}
	status.RecentShows = recent
	return status
}

func (s *Service) recordDBError(err error) {
	s.logger.Warn("history query failed", zap.Error(err))
	s.healthMu.Lock()
	s.dbError = err.Error()
	s.healthMu.Unlock()
}

// GetUptime returns the service uptime in seconds.
func (s *Service) GetUptime() float64 {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime).Seconds()
}

// HealthStatus represents the health status of the daemon.
type HealthStatus struct {
	Status     string           `json:"status"`
	Version    string           `json:"version"`
	Uptime     float64          `json:"uptime"`
	Database   DatabaseHealth   `json:"database"`
	LogMonitor LogMonitorHealth `json:"logMonitor"`
	WebSocket  WebSocketHealth  `json:"websocket"`
	Metrics    HealthMetrics    `json:"metrics"`
}

// DatabaseHealth represents database health status.
type DatabaseHealth struct {
	Status    string `json:"status"`
	LastWrite string `json:"lastWrite,omitempty"`
	Error     string `json:"error,omitempty"`
}

// LogMonitorHealth represents log monitor health status.
type LogMonitorHealth struct {
	Status     string `json:"status"`
	LastEvent  string `json:"lastEvent,omitempty"`
	Path       string `json:"path,omitempty"`
	FileExists bool   `json:"fileExists"`
	Error      string `json:"error,omitempty"`
}

// WebSocketHealth represents WebSocket server health status.
type WebSocketHealth struct {
	Status           string `json:"status"`
	ConnectedClients int    `json:"connectedClients"`
}

// HealthMetrics represents daemon event counters.
type HealthMetrics struct {
	TotalEvents int64 `json:"totalEvents"`
	TotalErrors int64 `json:"totalErrors"`
}

// GetHealth returns the current health status of the daemon.
func (s *Service) GetHealth() *HealthStatus {
	watcherStatus := s.watcher.Status()

	var lastWrite time.Time
	if s.persistence != nil {
		lastWrite = s.persistence.LastWrite()
	}

	var (
		fileExists bool
		fileErr    error
	)
	if watcherStatus.Running {
		fileExists, fileErr = logreader.LogExists(watcherStatus.ActivePath)
	}

	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	status := &HealthStatus{
		Status:  "healthy",
		Version: version.GetVersion(),
		Uptime:  s.GetUptime(),
		Database: DatabaseHealth{
			Status: "ok",
			Error:  s.dbError,
		},
		LogMonitor: LogMonitorHealth{
			Status:     "ok",
			Path:       watcherStatus.ActivePath,
			FileExists: fileExists,
		},
		WebSocket: WebSocketHealth{
			Status:           "ok",
			ConnectedClients: s.wsServer.ClientCount(),
		},
		Metrics: HealthMetrics{
			TotalEvents: s.totalEvents,
			TotalErrors: s.totalErrors,
		},
	}

	switch {
	case s.storage == nil:
		status.Database.Status = "disabled"
	case s.dbError != "":
		status.Database.Status = "error"
		status.Status = "degraded"
	}
	if !lastWrite.IsZero() {
		status.Database.LastWrite = lastWrite.Format(time.RFC3339)
	}
	if !s.lastEvent.IsZero() {
		status.LogMonitor.LastEvent = s.lastEvent.Format(time.RFC3339)
	}

	if !watcherStatus.Running {
		status.LogMonitor.Status = "stopped"
		status.Status = "unhealthy"
		return status
	}

	// The tailer keeps polling a missing file until the client creates it.
	switch {
	case fileErr != nil:
		status.LogMonitor.Status = "error"
		status.LogMonitor.Error = fileErr.Error()
		status.Status = "degraded"
	case !fileExists:
		status.LogMonitor.Status = "waiting"
	}

	// rounds:current arrives every tick, so a silent watcher is stuck.
	if !s.lastEvent.IsZero() && time.Since(s.lastEvent) > staleAfter {
		status.LogMonitor.Status = "warning"
		status.Status = "degraded"
	}

	if s.totalEvents > 0 && float64(s.totalErrors)/float64(s.totalEvents) > 0.1 {
		status.Status = "degraded"
	}

	return status
}
