package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

// setupTestService creates a service over a migrated temporary database file.
func setupTestService(t *testing.T) *Service {
	t.Helper()

	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)

	service := NewService(db)
	t.Cleanup(func() {
		_ = service.Close()
	})
	return service
}

var showStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func completedShow(start time.Time, names ...string) []rounds.RoundInfo {
	out := make([]rounds.RoundInfo, len(names))
	for i, name := range names {
		roundStart := start.Add(time.Duration(i) * 3 * time.Minute)
		out[i] = rounds.RoundInfo{
			Name:      name,
			Round:     i + 1,
			Start:     roundStart,
			End:       roundStart.Add(2 * time.Minute),
			ShowStart: start,
			ShowEnd:   start.Add(time.Duration(len(names)) * 3 * time.Minute),
			Players:   40 - i*10,
			Qualified: true,
			Kudos:     10,
		}
	}
	last := &out[len(out)-1]
	last.Crown = true
	position := 1
	last.Position = &position
	finish := last.End.Add(-10 * time.Second)
	last.Finish = &finish
	return out
}

func TestService_SaveCompletedRounds(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	result, err := service.SaveCompletedRounds(ctx, completedShow(showStart, "round_door_dash", "round_hexagon"))
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Created: 1}, result)

	shows, err := service.GetRecentShows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, shows, 1)

	show := shows[0]
	assert.True(t, showStart.Equal(show.StartTime))
	assert.Equal(t, 2, show.RoundsPlayed)
	assert.True(t, show.Crown)
	assert.Equal(t, 20, show.Kudos)

	stored, err := service.GetShowRounds(ctx, show.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "round_door_dash", stored[0].Name)
	assert.Nil(t, stored[0].Position)
	assert.Nil(t, stored[0].FinishTime)
	require.NotNil(t, stored[0].EndTime)

	assert.True(t, stored[1].Crown)
	require.NotNil(t, stored[1].Position)
	assert.Equal(t, 1, *stored[1].Position)
	require.NotNil(t, stored[1].FinishTime)
}

func TestService_SaveCompletedRoundsIsIdempotent(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	batch := completedShow(showStart, "round_door_dash", "round_hexagon")

	_, err := service.SaveCompletedRounds(ctx, batch)
	require.NoError(t, err)

	result, err := service.SaveCompletedRounds(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Duplicates: 1}, result)

	totals, err := service.GetTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Shows)
	assert.Equal(t, 2, totals.Rounds)
}

func TestService_SaveCompletedRoundsGroupsShows(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	later := showStart.Add(time.Hour)
	batch := append(completedShow(later, "round_tiptoe"), completedShow(showStart, "round_door_dash", "round_hexagon")...)

	result, err := service.SaveCompletedRounds(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	shows, err := service.GetRecentShows(ctx, 10)
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.True(t, later.Equal(shows[0].StartTime), "newest first")

	totals, err := service.GetTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Shows)
	assert.Equal(t, 3, totals.Rounds)
	assert.Equal(t, 2, totals.Crowns)
	assert.Equal(t, 30, totals.Kudos)
}

func TestService_SaveCompletedRoundsEmpty(t *testing.T) {
	service := setupTestService(t)

	result, err := service.SaveCompletedRounds(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result)
}

func TestService_SaveCompletedRoundsSkipsUndatedShows(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	result, err := service.SaveCompletedRounds(ctx, []rounds.RoundInfo{{Name: "Tiptoe", Round: 1, Crown: true}})
	require.NoError(t, err)
	assert.Equal(t, SaveResult{UndatedRounds: 1}, result)

	result, err = service.SaveCompletedRounds(ctx, []rounds.RoundInfo{{Name: "Hexagon", Round: 1}})
	require.NoError(t, err)
	assert.Equal(t, SaveResult{UndatedRounds: 1}, result)

	batch := append(completedShow(showStart, "round_door_dash"), rounds.RoundInfo{Name: "round_hexagon", Round: 1})
	result, err = service.SaveCompletedRounds(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Created: 1, UndatedRounds: 1}, result, "dated shows in the batch are still stored")

	totals, err := service.GetTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Shows)
	assert.Equal(t, 1, totals.Rounds)
}

func TestGroupByShow(t *testing.T) {
	later := showStart.Add(time.Hour)
	batch := append(completedShow(later, "a"), completedShow(showStart, "b", "c")...)

	groups := groupByShow(batch)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Equal(t, "b", groups[0][0].Name)
	assert.Len(t, groups[1], 1)
}
