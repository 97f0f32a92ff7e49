package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// One directory of numbered migrations per driver.
//
//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// RunMigrations brings the orders schema of the database behind dsn up to
// date. driverName is "sqlite" or "mysql"; dsn is what sql.Open takes for
// that driver.
//
// The migrator closes the handle it is given, so it always gets its own.
func RunMigrations(driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open %s for migration: %w", driverName, err)
	}
	defer db.Close()

	var target database.Driver
	switch driverName {
	case "sqlite":
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	case "mysql":
		target, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("%s migration driver: %w", driverName, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", driverName, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, target)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fmt.Errorf("apply %s migrations: %w", driverName, err)
	}

	if version, dirty, verr := m.Version(); verr == nil {
		slog.Info("Schema migrated", "driver", driverName, "version", version, "dirty", dirty)
	}
	return nil
}
