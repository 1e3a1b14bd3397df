// Command ironlog-import loads an Alpha Progression CSV export into IronLog,
// either straight into the database or through a running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/client"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/history"
	"github.com/meltforce/ironlog/internal/ingest"
	"github.com/meltforce/ironlog/internal/ingest/alpha"
	"github.com/meltforce/ironlog/internal/logging"
	"github.com/meltforce/ironlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (direct database import)")
	serverURL := flag.String("server", "", "import through this IronLog server instead of the database")
	apiKey := flag.String("api-key", os.Getenv("IRONLOG_API_KEY"), "API key for -server")
	csvPath := flag.String("file", "", "path to the Alpha Progression CSV export (required)")
	userID := flag.Int("user", 1, "user id for direct database import")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing")
	flag.Parse()

	log, _ := logging.Setup(logging.Params{Level: "info", Stdout: true})

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: ironlog-import -file export.csv [-config config.yaml | -server URL] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()
	var (
		result *ingest.Result
		err    error
	)
	switch {
	case *dryRun:
		result, err = parseOnly(*csvPath)
	case *serverURL != "":
		result, err = viaServer(ctx, *serverURL, *apiKey, *csvPath)
	default:
		result, err = direct(ctx, *configPath, *csvPath, *userID, log)
	}
	if err != nil {
		log.Error("import failed", "error", err)
		printResult(log, result)
		os.Exit(1)
	}

	printResult(log, result)
	log.Info("import complete")
}

func parseOnly(path string) (*ingest.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sessions, err := alpha.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	r := &ingest.Result{WorkoutsReceived: len(sessions)}
	for _, s := range sessions {
		w := alpha.ToWorkout(0, s, nil)
		for _, ex := range w.Exercises {
			r.SetsReceived += len(ex.Sets)
		}
		r.Volume += w.Volume
	}
	r.Message = "dry run: nothing written"
	return r, nil
}

func viaServer(ctx context.Context, url, apiKey, path string) (*ingest.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return client.New(url, client.WithAPIKey(apiKey)).ImportAlpha(ctx, data)
}

func direct(ctx context.Context, configPath, path string, userID int, log *slog.Logger) (*ingest.Result, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		return nil, err
	}
	log.Info("migrations applied")

	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()
	log.Info("database connected")

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hist := history.New(db, nil, nil, log)
	return alpha.NewProvider(hist, catalog.New(db, log), log).Ingest(ctx, f, userID)
}

func printResult(log *slog.Logger, r *ingest.Result) {
	if r == nil {
		return
	}
	log.Info("import stats",
		"workouts_received", r.WorkoutsReceived,
		"workouts_imported", r.WorkoutsImported,
		"workouts_failed", r.WorkoutsFailed,
		"sets_received", r.SetsReceived,
		"sets_imported", r.SetsImported,
		"volume", r.Volume,
	)
	for _, e := range r.Errors {
		log.Warn("session failed", "error", e)
	}
	if r.Message != "" {
		log.Info(r.Message)
	}
}
