package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countShows(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM shows`).Scan(&n))
	return n
}

func insertShow(tx *sql.Tx, id string, start time.Time) error {
	_, err := tx.Exec(`INSERT INTO shows (id, start_time, end_time, rounds_played) VALUES (?, ?, ?, 1)`, id, start, start)
	return err
}

func TestWithTransaction(t *testing.T) {
	service := setupTestService(t)
	db := service.db
	ctx := context.Background()

	require.NoError(t, db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertShow(tx, "a", showStart)
	}))
	assert.Equal(t, 1, countShows(t, db))

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		require.NoError(t, insertShow(tx, "b", showStart.Add(time.Hour)))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countShows(t, db), "rolled back")

	assert.Panics(t, func() {
		_ = db.WithTransaction(ctx, func(tx *sql.Tx) error {
			require.NoError(t, insertShow(tx, "c", showStart.Add(2*time.Hour)))
			panic("boom")
		})
	})
	assert.Equal(t, 1, countShows(t, db), "rolled back on panic")
}
