// Command importer loads legacy recipe rows from a CSV file into the catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cookmate/internal/config"
	"cookmate/internal/db"
	"cookmate/internal/platform/logger"
	"cookmate/internal/recipe"
)

func main() {
	file := flag.String("file", "", "CSV file of legacy recipe rows")
	configPath := flag.String("config", os.Getenv("COOKMATE_CONFIG"), "config file (json or yaml)")
	dryRun := flag.Bool("dry-run", false, "parse and report without inserting")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file recipes.csv [-config config.json] [-dry-run]")
		os.Exit(2)
	}

	cfg, err := config.Read(*configPath)
	if err == nil {
		err = checkConfig(cfg, *dryRun)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *file, *dryRun); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

// checkConfig validates only what the importer uses. A dry run never opens
// the database.
func checkConfig(cfg *config.Config, dryRun bool) error {
	if !dryRun && strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recipes, bad, err := readRows(f)
	if err != nil {
		return err
	}
	for _, b := range bad {
		log.Warn("skipping row", "line", b.Line, "error", b.Err)
	}
	log.Info("parsed csv", "file", path, "recipes", len(recipes), "skipped", len(bad))
	if dryRun {
		return nil
	}

	database, err := db.Open(ctx, db.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime.Duration,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, database); err != nil {
			return err
		}
	}

	n, err := insertAll(ctx, recipe.NewPostgresStore(database), recipes)
	log.Info("import finished", "inserted", n, "skipped", len(bad))
	return err
}

type inserter interface {
	Insert(ctx context.Context, r *recipe.Recipe) error
}

// insertAll stops at the first failed insert and reports how many went in.
func insertAll(ctx context.Context, store inserter, recipes []*recipe.Recipe) (int, error) {
	for i, r := range recipes {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := store.Insert(ctx, r); err != nil {
			return i, fmt.Errorf("insert %q: %w", r.Title, err)
		}
	}
	return len(recipes), nil
}
