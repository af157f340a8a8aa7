package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/conorfennell/flashdeck/internal/api"
	"github.com/conorfennell/flashdeck/internal/cache"
	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/storage"
)

const usageText = `Usage: flashdeck [flags] [command] [args]

Commands:
  serve              Run the web UI (default)
  list               List flashcard sets on the backend
  export <set-id>    Write a set to a JSON file
  delete <set-id>    Delete a set from the backend
  history [set-id]   Show completed quizzes, newest first

Flags:
`

func main() {
	flags := pflag.NewFlagSet("flashdeck", pflag.ExitOnError)
	config.RegisterFlags(flags)
	output := flags.StringP("output", "o", "", "File written by export (defaults to {title}-flashcards.json)")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	// A .env file in the working directory may carry FLASHDECK_ settings.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		pterm.Warning.Printf("Failed to read .env: %v\n", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		pterm.Error.Printf("Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, flags.Args(), *output)
	stop()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, output string) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve(ctx, cfg)
	case "list":
		return listSets(ctx, cfg)
	case "export":
		if len(args) != 1 {
			return fmt.Errorf("usage: flashdeck export <set-id>")
		}
		return exportSet(ctx, cfg, args[0], output)
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: flashdeck delete <set-id>")
		}
		return deleteSet(ctx, cfg, args[0])
	case "history":
		setID := ""
		if len(args) > 0 {
			setID = args[0]
		}
		return showHistory(cfg, setID)
	}
	return fmt.Errorf("unknown command %q (try --help)", cmd)
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func newClient(cfg *config.Config) (*api.Client, error) {
	return api.New(api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
}

// openStore opens the SQLite file when one is configured. The cache is nil
// when caching is disabled; db is nil when no path is set.
func openStore(cfg *config.Config) (*storage.DB, *cache.Cache, error) {
	var db *storage.DB
	if cfg.DB.Path != "" {
		var err error
		db, err = storage.Open(cfg.DB.Path)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Database opened", "path", cfg.DB.Path)
	}
	if !cfg.Cache.Enabled {
		return db, nil, nil
	}
	if db == nil {
		return nil, cache.New(nil), nil
	}
	return db, cache.New(db), nil
}
