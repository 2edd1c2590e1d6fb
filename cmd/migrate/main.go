package main

import (
	"LandLedger/internal/observability"
	"LandLedger/internal/persistence"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

func main() {
	driver := flag.String("driver", envOr("LAND_STORE_DRIVER", "postgres"), "store backend: postgres or sqlite")
	dsn := flag.String("dsn", "", "data source name (default: LAND_POSTGRES_DSN or LAND_SQLITE_PATH)")
	dir := flag.String("dir", os.Getenv("LAND_MIGRATIONS_DIR"), "migrations directory (default: embedded)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <up|down|status>")
		fmt.Fprintln(os.Stderr, "  up     - apply all pending migrations")
		fmt.Fprintln(os.Stderr, "  down   - roll back the last migration")
		fmt.Fprintln(os.Stderr, "  status - list applied migrations")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.NewLogger("migrate")

	dialect, err := persistence.ParseDialect(*driver)
	if err != nil {
		logger.Fatal().Err(err).Msg("store driver")
	}

	if *dsn == "" {
		switch dialect {
		case persistence.SQLite:
			*dsn = envOr("LAND_SQLITE_PATH", "landledger.db")
		default:
			*dsn = envOr("LAND_POSTGRES_DSN", "postgres://localhost:5432/landledger?sslmode=disable")
		}
	}

	db, err := persistence.Open(dialect, *dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	var files fs.FS = dialect.Migrations()
	if *dir != "" {
		files = os.DirFS(*dir)
	}

	ctx := context.Background()
	migrator := persistence.NewMigrator(db, dialect, files, logger)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migrate up")
		}
		logger.Info().Msg("all migrations applied")

	case "down":
		if err := migrator.Down(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migrate down")
		}
		logger.Info().Msg("last migration rolled back")

	case "status":
		applied, err := migrator.AppliedVersions(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("read applied versions")
		}
		versions := make([]string, 0, len(applied))
		for v := range applied {
			versions = append(versions, v)
		}
		sort.Strings(versions)
		for _, v := range versions {
			fmt.Println(v)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (use 'up', 'down' or 'status')\n", cmd)
		os.Exit(2)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
