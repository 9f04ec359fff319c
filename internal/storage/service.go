package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
	"github.com/ramonehamilton/FallGuys-Companion/internal/storage/models"
	"github.com/ramonehamilton/FallGuys-Companion/internal/storage/repository"
)

// Service provides high-level operations for storing and retrieving show history.
type Service struct {
	db    *DB
	shows repository.ShowRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:    db,
		shows: repository.NewShowRepository(db.Conn()),
	}
}

// SaveResult reports what SaveCompletedRounds did with a batch.
type SaveResult struct {
	Created       int // Shows newly stored
	Duplicates    int // Shows already stored
	UndatedRounds int // Rounds not stored because their show start is unknown
}

// SaveCompletedRounds stores the rounds published for finished shows.
// Rounds are grouped into shows by their show start time. Shows already stored
// are skipped, so re-reading a log never duplicates history.
// A show start is only known once the log's session date was read; shows
// without one cannot be told apart and are left out of history.
func (s *Service) SaveCompletedRounds(ctx context.Context, completed []rounds.RoundInfo) (SaveResult, error) {
	var result SaveResult
	if len(completed) == 0 {
		return result, nil
	}

	var dated [][]rounds.RoundInfo
	for _, group := range groupByShow(completed) {
		if group[0].ShowStart.IsZero() {
			result.UndatedRounds += len(group)
			continue
		}
		dated = append(dated, group)
	}
	if len(dated) == 0 {
		return result, nil
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		repo := repository.NewShowRepository(tx)
		for _, group := range dated {
			show, roundRows := toModels(group)
			ok, err := repo.SaveShow(ctx, show, roundRows)
			if err != nil {
				return fmt.Errorf("failed to save show starting %s: %w", show.StartTime.Format(time.RFC3339), err)
			}
			if ok {
				result.Created++
			} else {
				result.Duplicates++
			}
		}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	return result, nil
}

// GetRecentShows returns the most recent stored shows, newest first.
func (s *Service) GetRecentShows(ctx context.Context, limit int) ([]*models.Show, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.shows.GetRecentShows(ctx, limit)
}

// GetShowRounds returns the rounds of a stored show.
func (s *Service) GetShowRounds(ctx context.Context, showID string) ([]*models.Round, error) {
	return s.shows.GetRoundsForShow(ctx, showID)
}

// GetTotals sums every stored show.
func (s *Service) GetTotals(ctx context.Context) (*models.Totals, error) {
	return s.shows.GetTotals(ctx)
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// groupByShow splits a completed batch into shows ordered by start time.
func groupByShow(completed []rounds.RoundInfo) [][]rounds.RoundInfo {
	index := make(map[time.Time]int)
	var groups [][]rounds.RoundInfo
	for _, r := range completed {
		key := r.ShowStart.UTC()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a][0].ShowStart.Before(groups[b][0].ShowStart)
	})
	return groups
}

func toModels(group []rounds.RoundInfo) (*models.Show, []*models.Round) {
	show := &models.Show{
		StartTime:    group[0].ShowStart,
		EndTime:      group[0].ShowEnd,
		RoundsPlayed: len(group),
		InParty:      group[0].InParty,
	}

	rows := make([]*models.Round, 0, len(group))
	for _, r := range group {
		if r.Crown {
			show.Crown = true
		}
		show.Kudos += r.Kudos

		row := &models.Round{
			RoundNumber:  r.Round,
			Name:         r.Name,
			StartTime:    r.Start,
			Players:      r.Players,
			Score:        r.Score,
			Qualified:    r.Qualified,
			Tier:         r.Tier,
			Kudos:        r.Kudos,
			Crown:        r.Crown,
			GameDuration: r.GameDuration,
		}
		if !r.End.IsZero() {
			end := r.End
			row.EndTime = &end
		}
		if r.Finish != nil {
			finish := *r.Finish
			row.FinishTime = &finish
		}
		if r.Position != nil {
			position := *r.Position
			row.Position = &position
		}
		rows = append(rows, row)
	}
	return show, rows
}
