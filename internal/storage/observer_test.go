package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

func TestPersistenceObserver(t *testing.T) {
	service := setupTestService(t)
	observer := NewPersistenceObserver(service, nil)

	assert.Equal(t, "PersistenceObserver", observer.GetName())
	assert.True(t, observer.ShouldHandle(events.TypeRoundsCompleted))
	assert.False(t, observer.ShouldHandle(events.TypeRoundsCurrent))

	dispatcher := events.NewEventDispatcher(nil)
	dispatcher.Register(observer)

	dispatcher.Dispatch(events.NewTypedEvent(events.TypeRoundsCompleted, events.RoundsCompletedEvent{
		Rounds: []rounds.RoundInfo{{Name: "round_door_dash", Round: 1}},
	}, context.Background()))
	assert.True(t, observer.LastWrite().IsZero(), "undated rounds are not a write")

	dispatcher.Dispatch(events.NewTypedEvent(events.TypeRoundsCompleted, events.RoundsCompletedEvent{
		Rounds: completedShow(showStart, "round_door_dash"),
	}, context.Background()))

	totals, err := service.GetTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Shows)
	assert.False(t, observer.LastWrite().IsZero())
}

func TestPersistenceObserver_FailedSaveIsNotAWrite(t *testing.T) {
	service := setupTestService(t)
	observer := NewPersistenceObserver(service, nil)
	require.NoError(t, service.Close())

	err := observer.OnEvent(events.NewTypedEvent(events.TypeRoundsCompleted, events.RoundsCompletedEvent{
		Rounds: completedShow(showStart, "round_door_dash"),
	}, context.Background()))

	assert.Error(t, err)
	assert.True(t, observer.LastWrite().IsZero())
}

func TestPersistenceObserver_WrongPayload(t *testing.T) {
	observer := NewPersistenceObserver(setupTestService(t), nil)

	err := observer.OnEvent(events.Event{Type: events.TypeRoundsCompleted, Data: "nope"})
	assert.Error(t, err)
}
