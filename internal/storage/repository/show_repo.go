// Package repository provides data access for stored shows.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/FallGuys-Companion/internal/storage/models"
)

// DBTX is implemented by both *sql.DB and *sql.Tx so repositories can run inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ShowRepository handles database operations for shows and their rounds.
type ShowRepository interface {
	// SaveShow inserts a show and its rounds. A show whose start time is already
	// stored is left untouched and reported as not created.
	SaveShow(ctx context.Context, show *models.Show, rounds []*models.Round) (created bool, err error)

	// GetByStartTime retrieves the show that started at start, or nil.
	GetByStartTime(ctx context.Context, start time.Time) (*models.Show, error)

	// GetRecentShows retrieves the most recent shows, newest first.
	GetRecentShows(ctx context.Context, limit int) ([]*models.Show, error)

	// GetRoundsForShow retrieves the rounds of a show in round order.
	GetRoundsForShow(ctx context.Context, showID string) ([]*models.Round, error)

	// GetTotals sums every stored show.
	GetTotals(ctx context.Context) (*models.Totals, error)
}

type showRepository struct {
	db DBTX
}

// NewShowRepository creates a new show repository.
func NewShowRepository(db DBTX) ShowRepository {
	return &showRepository{db: db}
}

// SaveShow inserts a show and its rounds. The show ID is generated when empty.
func (r *showRepository) SaveShow(ctx context.Context, show *models.Show, rounds []*models.Round) (bool, error) {
	if show.ID == "" {
		show.ID = uuid.NewString()
	}
	if show.CreatedAt.IsZero() {
		show.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO shows (
			id, start_time, end_time, rounds_played, crown, kudos, in_party, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		show.ID,
		show.StartTime.UTC(),
		show.EndTime.UTC(),
		show.RoundsPlayed,
		show.Crown,
		show.Kudos,
		show.InParty,
		show.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create show: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	for _, round := range rounds {
		round.ShowID = show.ID
		if err := r.createRound(ctx, round); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *showRepository) createRound(ctx context.Context, round *models.Round) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO rounds (
			show_id, round_number, name, start_time, end_time, finish_time,
			players, position, score, qualified, tier, kudos, crown, game_duration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		round.ShowID,
		round.RoundNumber,
		round.Name,
		round.StartTime.UTC(),
		nullTime(round.EndTime),
		nullTime(round.FinishTime),
		round.Players,
		nullInt(round.Position),
		round.Score,
		round.Qualified,
		round.Tier,
		round.Kudos,
		round.Crown,
		round.GameDuration,
	)
	if err != nil {
		return fmt.Errorf("failed to create round %d: %w", round.RoundNumber, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	round.ID = int(id)
	return nil
}

const showColumns = `id, start_time, end_time, rounds_played, crown, kudos, in_party, created_at`

// GetByStartTime retrieves the show that started at start.
func (r *showRepository) GetByStartTime(ctx context.Context, start time.Time) (*models.Show, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE start_time = ?`, start.UTC())

	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return show, nil
}

// GetRecentShows retrieves the most recent shows.
func (r *showRepository) GetRecentShows(ctx context.Context, limit int) ([]*models.Show, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+showColumns+` FROM shows ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query shows: %w", err)
	}
	defer func() {
		_ = rows.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	var shows []*models.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan show: %w", err)
		}
		shows = append(shows, show)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shows: %w", err)
	}
	return shows, nil
}

// GetRoundsForShow retrieves the rounds of a show.
func (r *showRepository) GetRoundsForShow(ctx context.Context, showID string) ([]*models.Round, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, show_id, round_number, name, start_time, end_time, finish_time,
			players, position, score, qualified, tier, kudos, crown, game_duration
		FROM rounds
		WHERE show_id = ?
		ORDER BY round_number ASC
	`, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer func() {
		_ = rows.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	var rounds []*models.Round
	for rows.Next() {
		var (
			round    models.Round
			end      sql.NullTime
			finish   sql.NullTime
			position sql.NullInt64
		)
		err := rows.Scan(
			&round.ID,
			&round.ShowID,
			&round.RoundNumber,
			&round.Name,
			&round.StartTime,
			&end,
			&finish,
			&round.Players,
			&position,
			&round.Score,
			&round.Qualified,
			&round.Tier,
			&round.Kudos,
			&round.Crown,
			&round.GameDuration,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		if end.Valid {
			round.EndTime = &end.Time
		}
		if finish.Valid {
			round.FinishTime = &finish.Time
		}
		if position.Valid {
			p := int(position.Int64)
			round.Position = &p
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}

// GetTotals sums every stored show.
func (r *showRepository) GetTotals(ctx context.Context) (*models.Totals, error) {
	var totals models.Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(rounds_played), 0),
			COALESCE(SUM(crown), 0),
			COALESCE(SUM(kudos), 0)
		FROM shows
	`).Scan(&totals.Shows, &totals.Rounds, &totals.Crowns, &totals.Kudos)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}
	return &totals, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanShow(s scanner) (*models.Show, error) {
	var show models.Show
	err := s.Scan(
		&show.ID,
		&show.StartTime,
		&show.EndTime,
		&show.RoundsPlayed,
		&show.Crown,
		&show.Kudos,
		&show.InParty,
		&show.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
