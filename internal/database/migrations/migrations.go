package migrations

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

// Options configures the migration runner.
type Options struct {
	// MigrationsDir is the directory containing migration files.
	MigrationsDir string
	// AutoMigrate determines whether to run migrations automatically on startup.
	AutoMigrate bool
}

func DefaultOptions() Options {
	return Options{
		MigrationsDir: "./migrations",
		AutoMigrate:   true,
	}
}

// Runner applies the box office schema migrations.
type Runner struct {
	bunDB    *bun.DB
	options  Options
	migrator *migrate.Migrate
}

func NewRunner(bunDB *bun.DB, opts Options) *Runner {
	return &Runner{
		bunDB:   bunDB,
		options: opts,
	}
}

// Initialize prepares the migration system.
func (r *Runner) Initialize() error {
	driver, err := postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	if _, err := os.Stat(r.options.MigrationsDir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.options.MigrationsDir)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.options.MigrationsDir),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

// MigrateUp runs all pending migrations.
func (r *Runner) MigrateUp() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateDown rolls back all migrations.
func (r *Runner) MigrateDown() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}

	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func (r *Runner) Version() (uint, error) {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return 0, err
		}
	}

	version, _, err := r.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, nil
}

// Close frees resources associated with the migrator.
func (r *Runner) Close() error {
	if r.migrator != nil {
		sourceErr, databaseErr := r.migrator.Close()
		if sourceErr != nil {
			return fmt.Errorf("error closing migrator source: %w", sourceErr)
		}
		if databaseErr != nil {
			return fmt.Errorf("error closing migrator database: %w", databaseErr)
		}
	}
	return nil
}
