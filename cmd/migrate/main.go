package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/refferq/refferq/infrastructure/adapter/postgres"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type migrationFile struct {
	version int
	name    string
	path    string
	kind    string // up or down
}

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	dir := flag.String("dir", "migrations", "directory holding NNN_name.up.sql / NNN_name.down.sql files")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.NewStructuredLogger(logger.LoggerConfig{Level: "info", Format: "text", ServiceName: "refferq-migrate"})
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fatal(ctx, log, "DATABASE_URL environment variable is required", nil, nil)
	}
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	db, err := postgres.Open(ctx, driver, dsn)
	if err != nil {
		fatal(ctx, log, "Failed to connect database", err, nil)
	}
	defer db.Close()

	if err := ensureSchemaMigrations(ctx, db); err != nil {
		fatal(ctx, log, "Failed to ensure schema_migrations", err, nil)
	}

	files, err := loadMigrationFiles(*dir)
	if err != nil {
		fatal(ctx, log, "Failed to load migrations", err, map[string]interface{}{"dir": *dir})
	}

	switch strings.ToLower(*mode) {
	case "up":
		err = applyUp(ctx, db, files, log)
	case "down":
		err = applyDown(ctx, db, files, log)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		fatal(ctx, log, "Migration failed", err, map[string]interface{}{"mode": *mode})
	}
	log.Info(ctx, "Migration completed", map[string]interface{}{"mode": *mode})
}

func ensureSchemaMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func loadMigrationFiles(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".sql") {
			continue
		}

		kind := "up"
		if strings.HasSuffix(lower, ".down.sql") {
			kind = "down"
		}

		ver, migName, err := parseVersionAndName(name)
		if err != nil {
			continue
		}

		files = append(files, migrationFile{
			version: ver,
			name:    migName,
			path:    filepath.Join(dir, name),
			kind:    kind,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// parseVersionAndName expects 001_create_users.up.sql.
func parseVersionAndName(filename string) (int, string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return 0, "", errors.New("invalid filename")
	}
	ver, err := strconv.Atoi(parts[0])
	if err != nil || ver <= 0 {
		return 0, "", errors.New("invalid version")
	}
	name := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(parts[1], ".sql"), ".up"), ".down")
	return ver, name, nil
}

func alreadyApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)", version).Scan(&exists)
	return exists, err
}

// runFile executes the script and its bookkeeping in one transaction.
func runFile(ctx context.Context, db *sql.DB, f migrationFile, bookkeeping string, args ...interface{}) error {
	script, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", f.path, err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func applyUp(ctx context.Context, db *sql.DB, files []migrationFile, log logger.Logger) error {
	for _, f := range files {
		if f.kind != "up" {
			continue
		}
		applied, err := alreadyApplied(ctx, db, f.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		log.Info(ctx, "Applying migration", map[string]interface{}{"version": f.version, "name": f.name})
		err = runFile(ctx, db, f,
			"INSERT INTO schema_migrations(version, name, applied_at) VALUES($1,$2,$3)",
			f.version, f.name, time.Now())
		if err != nil {
			return err
		}
	}
	return nil
}

func applyDown(ctx context.Context, db *sql.DB, files []migrationFile, log logger.Logger) error {
	var downs []migrationFile
	for _, f := range files {
		if f.kind == "down" {
			downs = append(downs, f)
		}
	}
	sort.Slice(downs, func(i, j int) bool { return downs[i].version > downs[j].version })

	for _, f := range downs {
		applied, err := alreadyApplied(ctx, db, f.version)
		if err != nil {
			return err
		}
		if !applied {
			continue
		}

		log.Info(ctx, "Reverting migration", map[string]interface{}{"version": f.version, "name": f.name})
		if err := runFile(ctx, db, f, "DELETE FROM schema_migrations WHERE version=$1", f.version); err != nil {
			return err
		}
	}
	return nil
}

func fatal(ctx context.Context, log logger.Logger, message string, err error, fields map[string]interface{}) {
	log.Error(ctx, message, err, fields)
	os.Exit(1)
}
