package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

func TestNewTypedEvent(t *testing.T) {
	event := NewTypedEvent(TypePingUpdated, PingEvent{Ping: 42}, context.Background())

	assert.Equal(t, TypePingUpdated, event.Type)
	assert.False(t, event.Time.IsZero())
	assert.NotNil(t, event.Context)

	typed, ok := event.Data.(PingEvent)
	require.True(t, ok)
	assert.Equal(t, 42, typed.Ping)
}

func TestNewTypedEvent_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated on purpose
	event := NewTypedEvent(TypePingUpdated, PingEvent{Ping: 1}, nil)
	assert.NotNil(t, event.Context)
}

func TestGetTypedData(t *testing.T) {
	event := NewTypedEvent(TypeSessionDate, SessionDateEvent{
		Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}, context.Background())

	data, ok := GetTypedData[SessionDateEvent](event)
	require.True(t, ok)
	assert.Equal(t, 2024, data.Date.Year())

	_, ok = GetTypedData[PingEvent](event)
	assert.False(t, ok, "wrong type")

	_, ok = GetTypedData[PingEvent](Event{Type: "test"})
	assert.False(t, ok, "nil data")
}

func TestRoundsCompletedEvent_JSON(t *testing.T) {
	position := 3
	event := RoundsCompletedEvent{Rounds: []rounds.RoundInfo{{
		Name:      "round_door_dash",
		Round:     1,
		Position:  &position,
		Qualified: true,
	}}}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	list, ok := decoded["rounds"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	round := list[0].(map[string]any)
	assert.Equal(t, "round_door_dash", round["name"])
	assert.Equal(t, float64(3), round["position"])
	assert.NotContains(t, round, "finish")
}
