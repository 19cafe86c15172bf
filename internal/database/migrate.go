package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"

	// Reads the numbered *.up.sql / *.down.sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationsTable records the applied schema version.
const MigrationsTable = "schema_migrations"

// ErrDirtySchema is returned when a previous migration failed halfway. The
// schema must be repaired by hand and the version forced before the API
// will start again.
var ErrDirtySchema = errors.New("schema is dirty")

// RunMigrations applies every pending migration under migrationsPath and
// returns the resulting schema version.
func RunMigrations(db *sql.DB, migrationsPath string) (uint, error) {
	driver, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return 0, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		return 0, fmt.Errorf("creating migrator: %w", err)
	}

	if version, dirty, err := m.Version(); err == nil && dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("running migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	slog.Info("schema up to date", slog.Uint64("version", uint64(version)))
	return version, nil
}
