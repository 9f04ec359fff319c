package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
)

// saveTimeout bounds a single batch write so a locked database cannot stall the parser.
const saveTimeout = 10 * time.Second

// PersistenceObserver stores every rounds:completed batch.
type PersistenceObserver struct {
	service *Service
	logger  *zap.Logger

	mu        sync.Mutex
	lastWrite time.Time
}

// NewPersistenceObserver creates an observer that saves completed rounds through service.
func NewPersistenceObserver(service *Service, logger *zap.Logger) *PersistenceObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceObserver{service: service, logger: logger.Named("storage")}
}

// OnEvent saves the rounds carried by a rounds:completed event.
func (o *PersistenceObserver) OnEvent(event events.Event) error {
	data, ok := events.GetTypedData[events.RoundsCompletedEvent](event)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data, event.Type)
	}

	parent := event.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, saveTimeout)
	defer cancel()

	result, err := o.service.SaveCompletedRounds(ctx, data.Rounds)
	if err != nil {
		o.logger.Error("failed to save completed rounds", zap.Int("rounds", len(data.Rounds)), zap.Error(err))
		return err
	}
	if result.UndatedRounds > 0 {
		o.logger.Warn("skipped rounds without a session date",
			zap.Int("rounds", result.UndatedRounds))
	}
	if result.Created > 0 {
		o.mu.Lock()
		o.lastWrite = time.Now()
		o.mu.Unlock()
	}
	o.logger.Info("saved completed rounds",
		zap.Int("rounds", len(data.Rounds)),
		zap.Int("new_shows", result.Created),
		zap.Int("duplicate_shows", result.Duplicates))
	return nil
}

// LastWrite returns when a show was last stored, or the zero time if none was.
func (o *PersistenceObserver) LastWrite() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastWrite
}

// GetName returns the observer name.
func (o *PersistenceObserver) GetName() string {
	return "PersistenceObserver"
}

// ShouldHandle returns true for rounds:completed events only.
func (o *PersistenceObserver) ShouldHandle(eventType string) bool {
	return eventType == events.TypeRoundsCompleted
}
