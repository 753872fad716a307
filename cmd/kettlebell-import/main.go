package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/kettlebell/internal/config"
	"github.com/claude/kettlebell/internal/storage"
	"github.com/claude/kettlebell/internal/transfer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kettlebell-import -config config.yaml [-dry-run] <file.json|dir>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	// Run migrations
	if err := storage.RunMigrations(cfg.Database.Driver, cfg.Database.MigrateURL()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect database
	loc, err := cfg.Workout.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN(), loc)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Run import
	imp := transfer.New(db, log, nil, *dryRun)
	stats, err := imp.ImportPath(ctx, path)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		db.Close()
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *transfer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"workouts_received", stats.WorkoutsReceived,
		"workouts_inserted", stats.WorkoutsInserted,
	)
}
