package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Handle version flag
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Printf("todo %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}

	configPath := config.DefaultPath()
	if len(args) >= 2 && args[0] == "--config" {
		configPath = args[1]
		args = args[2:]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// The TUI owns the terminal, so it always logs to a file
	interactive := len(args) == 0
	if interactive && cfg.Log.File == "" {
		cfg.Log.File = config.DefaultLogFile()
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return 1
	}
	zap.ReplaceGlobals(logger)
	defer func() {
		_ = logger.Sync()
	}()

	storage, closeStorage, err := openStorage(cfg)
	if err != nil {
		logger.Error("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error initializing storage: %v\n", err)
		return 1
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	s := store.New(store.Limit(storage, cfg.Storage.MaxBytes), store.WithLogger(logger))
	s.Load()

	if !interactive {
		if err := runCommand(s, args, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	// Create and run the application
	app := ui.NewApp(s, storage, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		return 1
	}
	return 0
}

// openStorage returns the configured backend and a func that releases it
func openStorage(cfg *config.Config) (store.Storage, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return store.NewMemoryStorage(), func() error { return nil }, nil

	case config.DriverRedis:
		r, err := db.NewRedis(db.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil

	default:
		path := cfg.Storage.Path
		if path == "" {
			var err error
			if path, err = db.DefaultPath(); err != nil {
				return nil, nil, err
			}
		}
		database, err := db.New(path)
		if err != nil {
			return nil, nil, err
		}
		return database, database.Close, nil
	}
}
