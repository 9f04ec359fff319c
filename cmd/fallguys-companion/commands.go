package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/ramonehamilton/FallGuys-Companion/internal/config"
	"github.com/ramonehamilton/FallGuys-Companion/internal/storage"
)

func resolveDBPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.Storage.DBPath != "" {
		return cfg.Storage.DBPath, nil
	}
	return storage.DefaultPath()
}

func runHistoryCommand(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	dbPath := fs.String("db-path", "", "History database path")
	limit := fs.Int("limit", 10, "Number of shows to print")
	rounds := fs.Bool("rounds", false, "Print the rounds of each show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := resolveDBPath(*dbPath)
	if err != nil {
		return err
	}

	db, err := storage.Open(storage.DefaultConfig(path))
	if err != nil {
		return err
	}
	service := storage.NewService(db)
	defer func() {
		_ = service.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	totals, err := service.GetTotals(ctx)
	if err != nil {
		return err
	}
	shows, err := service.GetRecentShows(ctx, *limit)
	if err != nil {
		return err
	}

	fmt.Printf("Shows: %d  Rounds: %d  Crowns: %d  Kudos: %d\n\n", totals.Shows, totals.Rounds, totals.Crowns, totals.Kudos)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tROUNDS\tCROWN\tKUDOS\tPARTY")
	for _, show := range shows {
		crown := ""
		if show.Crown {
			crown = "yes"
		}
		party := ""
		if show.InParty {
			party = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n", show.StartTime.Local().Format("2006-01-02 15:04"), show.RoundsPlayed, crown, show.Kudos, party)

		if !*rounds {
			continue
		}
		list, err := service.GetShowRounds(ctx, show.ID)
		if err != nil {
			return err
		}
		for _, r := range list {
			position := "-"
			if r.Position != nil {
				position = fmt.Sprint(*r.Position)
			}
			fmt.Fprintf(w, "  %d. %s\tpos %s\t%v\t%d\t\n", r.RoundNumber, r.Name, position, r.Qualified, r.Kudos)
		}
	}
	return w.Flush()
}

func runMigrateCommand(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db-path", "", "History database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fallguys-companion migrate [-db-path path] up|down|version")
	}

	path, err := resolveDBPath(*dbPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	mgr, err := storage.NewMigrationManager(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = mgr.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	switch fs.Arg(0) {
	case "up":
		if err := mgr.Up(); err != nil {
			return err
		}
	case "down":
		if err := mgr.Down(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate command %q", fs.Arg(0))
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		return err
	}
	fmt.Printf("Schema version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func runConfigCommand(args []string) error {
	if len(args) != 1 || args[0] != "init" {
		return fmt.Errorf("usage: fallguys-companion config init")
	}

	path, err := config.Path()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := config.DefaultConfig().SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
