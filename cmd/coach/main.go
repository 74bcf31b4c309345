// Package main is the entry point of the coach server. Besides serving the
// HTTP API it can run database migrations and import a vocabulary workbook.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluentwork/coach/internal/config"
	"github.com/fluentwork/coach/internal/platform/logger"
)

// options are the command line flags.
type options struct {
	migrate    string
	importPath string
	importUser string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("coach", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.migrate, "migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	fs.StringVar(&opts.importPath, "import", "", "import vocabulary from an .xlsx workbook and exit")
	fs.StringVar(&opts.importUser, "user", "", "learner id the -import vocabulary belongs to")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.migrate != "" && opts.importPath != "" {
		return options{}, errors.New("-migrate and -import cannot be combined")
	}
	if opts.importPath != "" && opts.importUser == "" {
		return options{}, errors.New("-import requires -user")
	}
	return opts, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("coach exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("storage_mode", cfg.Storage.Mode),
		slog.Bool("oracle_enabled", cfg.LLM.GeminiAPIKey != ""))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.migrate != "" {
		return runMigrations(ctx, cfg, opts.migrate, log)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if opts.importPath != "" {
		return app.importCatalog(ctx, opts.importUser, opts.importPath)
	}
	return app.Run(ctx)
}
