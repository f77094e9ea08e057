package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/freelift/internal/config"
	"github.com/meltforce/freelift/internal/importer"
	"github.com/meltforce/freelift/internal/ingest/alpha"
	"github.com/meltforce/freelift/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "directory of Alpha Progression CSV exports (required)")
	dryRun := flag.Bool("dry-run", false, "parse and count without writing to the database")
	stateDir := flag.String("state-dir", ".", "directory for the import state database")
	userID := flag.Int("user", 1, "user ID to import for")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: freelift-import -config config.yaml -path /path/to/exports [-dry-run] [-state-dir dir] [-user id]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written")
		imp := importer.New(nil, nil, log, true)
		stats, err := imp.Import(ctx, *exportPath, *userID)
		printStats(log, stats)
		if err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	user, err := db.GetUser(ctx, *userID)
	if err != nil {
		log.Error("unknown user", "user_id", *userID, "error", err)
		os.Exit(1)
	}
	log.Info("importing as", "user_id", user.ID, "login", user.Login)

	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "dir", *stateDir, "error", err)
		os.Exit(1)
	}
	defer state.Close()

	imp := importer.New(alpha.NewProvider(db, log), state, log, false)
	stats, err := imp.Import(ctx, *exportPath, *userID)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_received", stats.SessionsReceived,
		"sets_received", stats.SetsReceived,
		"sets_inserted", stats.SetsInserted,
		"warmups_skipped", stats.WarmupsSkipped,
	)
}
