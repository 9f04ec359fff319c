package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/FallGuys-Companion/internal/config"
	"github.com/ramonehamilton/FallGuys-Companion/internal/daemon"
	"github.com/ramonehamilton/FallGuys-Companion/internal/logging"
	"github.com/ramonehamilton/FallGuys-Companion/internal/tui"
	"github.com/ramonehamilton/FallGuys-Companion/internal/version"
)

// shutdownTimeout bounds how long Stop may wait for the loops and the database.
const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "history":
			exit(runHistoryCommand(os.Args[2:]))
		case "migrate":
			exit(runMigrateCommand(os.Args[2:]))
		case "config":
			exit(runConfigCommand(os.Args[2:]))
		case "version", "-version", "--version":
			fmt.Println("fallguys-companion", version.GetVersion())
			return
		case "help", "-h", "-help", "--help":
			printUsage()
			return
		}
	}
	exit(runWatchCommand(os.Args[1:]))
}

func exit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Fall Guys Companion - live round tracking from the Fall Guys client log")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fallguys-companion [flags]          - Watch the log (websocket, metrics, history)")
	fmt.Println("  fallguys-companion history [flags]  - Print recently stored shows")
	fmt.Println("  fallguys-companion migrate <cmd>    - Manage the history database (up/down/version)")
	fmt.Println("  fallguys-companion config init      - Write the default configuration file")
	fmt.Println("  fallguys-companion version          - Print the version")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fallguys-companion -tui")
	fmt.Println("  fallguys-companion -log-dir /path/to/FallGuys_client -port 9010 -d")
}

// watchFlags are the command-line overrides for the configuration file.
type watchFlags struct {
	configPath   string
	logDir       string
	logFile      string
	pollInterval time.Duration
	useFsnotify  bool
	port         int
	dbPath       string
	noStorage    bool
	metrics      bool
	debug        bool
	debugShort   bool
	logFormat    string
	logOutput    string
	tui          bool
}

func parseWatchFlags(args []string) (*watchFlags, map[string]bool, error) {
	f := &watchFlags{}
	fs := flag.NewFlagSet("fallguys-companion", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to config.toml (default ~/.fallguys-companion/config.toml)")
	fs.StringVar(&f.logDir, "log-dir", "", "Fall Guys log directory (auto-detected if not specified)")
	fs.StringVar(&f.logFile, "log-file", "Player.log", "Live log file name")
	fs.DurationVar(&f.pollInterval, "log-poll-interval", 500*time.Millisecond, "Interval for polling the log file")
	fs.BoolVar(&f.useFsnotify, "log-use-fsnotify", true, "Wake on file system events (fsnotify)")
	fs.IntVar(&f.port, "port", 9010, "Websocket and status server port")
	fs.StringVar(&f.dbPath, "db-path", "", "History database path")
	fs.BoolVar(&f.noStorage, "no-storage", false, "Do not store completed shows")
	fs.BoolVar(&f.metrics, "metrics", true, "Serve Prometheus metrics on /metrics")
	fs.BoolVar(&f.debug, "debug-mode", false, "Enable verbose debug logging")
	fs.BoolVar(&f.debugShort, "d", false, "Enable debug logging (shorthand for -debug-mode)")
	fs.StringVar(&f.logFormat, "log-format", "console", "Log output format: console or json")
	fs.StringVar(&f.logOutput, "log-output", "", "Write logs to this file instead of stderr")
	fs.BoolVar(&f.tui, "tui", false, "Show the live round table in the terminal")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	visited := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		visited[fl.Name] = true
	})
	return f, visited, nil
}

// loadConfig reads the configuration file and applies the flags the user set explicitly.
func loadConfig(f *watchFlags, visited map[string]bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if visited["log-dir"] {
		cfg.Log.Directory = f.logDir
	}
	if visited["log-file"] {
		cfg.Log.FileName = f.logFile
	}
	if visited["log-poll-interval"] {
		cfg.Log.PollInterval = f.pollInterval.String()
	}
	if visited["log-use-fsnotify"] {
		cfg.Log.UseFsnotify = f.useFsnotify
	}
	if visited["port"] {
		cfg.Server.Port = f.port
	}
	if visited["metrics"] {
		cfg.Server.EnableMetrics = f.metrics
	}
	if visited["db-path"] {
		cfg.Storage.DBPath = f.dbPath
	}
	if visited["no-storage"] {
		cfg.Storage.Enabled = !f.noStorage
	}
	if visited["debug-mode"] || visited["d"] {
		cfg.App.DebugMode = f.debug || f.debugShort
	}
	if visited["log-format"] {
		cfg.App.LogFormat = f.logFormat
	}
	if visited["tui"] {
		cfg.App.TUI = f.tui
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// daemonConfig maps the file configuration onto the daemon's.
func daemonConfig(cfg *config.Config) (*daemon.Config, error) {
	interval, err := cfg.GetLogPollInterval()
	if err != nil {
		return nil, err
	}

	dc := daemon.DefaultConfig()
	dc.Port = cfg.Server.Port
	dc.LogDirectory = cfg.Log.Directory
	dc.LogFileName = cfg.Log.FileName
	dc.PollInterval = interval
	dc.UseFSNotify = cfg.Log.UseFsnotify
	dc.StorageEnabled = cfg.Storage.Enabled
	dc.DBPath = cfg.Storage.DBPath
	dc.EnableMetrics = cfg.Server.EnableMetrics
	dc.VerboseEvents = cfg.App.DebugMode
	dc.CORSConfig = daemon.CORSConfigFromEnv()
	return dc, nil
}

func runWatchCommand(args []string) error {
	f, visited, err := parseWatchFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage()
			return nil
		}
		return err
	}

	cfg, err := loadConfig(f, visited)
	if err != nil {
		return err
	}

	logOptions := logging.Options{Debug: cfg.App.DebugMode, Format: cfg.App.LogFormat}
	if f.logOutput != "" {
		logOptions.OutputPaths = []string{f.logOutput}
	} else if cfg.App.TUI {
		// The TUI owns the terminal.
		logOptions.OutputPaths = []string{os.DevNull}
	}
	logger, err := logging.New(logOptions)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() //nolint:errcheck // Sync fails on terminals
	}()

	dc, err := daemonConfig(cfg)
	if err != nil {
		return err
	}

	service, err := daemon.New(dc, logger)
	if err != nil {
		return err
	}
	if err := service.Start(); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = service.Stop(stopCtx) //nolint:errcheck // Start error takes precedence
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.TUI {
		if err := tui.Run(ctx, "", service.Dispatcher()); err != nil {
			logger.Error("tui stopped", zap.Error(err))
		}
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return service.Stop(stopCtx)
}
