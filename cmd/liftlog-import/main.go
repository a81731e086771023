package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/liftlog/liftlog/internal/auth"
	"github.com/liftlog/liftlog/internal/config"
	"github.com/liftlog/liftlog/internal/importer"
	"github.com/liftlog/liftlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("path", "", "path to an Alpha Progression CSV export (required)")
	email := flag.String("email", "", "email of the account to import into (required)")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *csvPath == "" || *email == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -email you@example.com -path export.csv [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("cannot open export", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	user, err := db.GetUserByEmail(ctx, auth.NormalizeEmail(*email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Error("no account with that email; sign up first", "email", *email)
		} else {
			log.Error("looking up user", "error", err)
		}
		os.Exit(1)
	}

	imp := importer.New(db, log, *dryRun)
	result, err := imp.Import(ctx, user.ID, f)
	if err != nil {
		log.Error("import failed", "error", err)
		printResult(log, result)
		os.Exit(1)
	}

	printResult(log, result)
	log.Info("import complete")
}

func printResult(log *slog.Logger, result *importer.Result) {
	if result == nil {
		return
	}
	log.Info("import result",
		"sessions_received", result.SessionsReceived,
		"workouts_inserted", result.WorkoutsInserted,
		"sets_inserted", result.SetsInserted,
		"sessions_skipped", result.SessionsSkipped,
		"warmups_skipped", result.WarmupsSkipped,
	)
}
