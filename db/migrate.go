package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// withMigrator runs fn against the schema of the file at path. golang-migrate
// closes the connection it is given, so each call opens its own.
func withMigrator(path string, fn func(*migrate.Migrate) error) error {
	conn, err := NewSQLiteConnection(DefaultConnectionConfig(path))
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{DatabaseName: "main"})
	if err != nil {
		conn.Close()
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()

	err = fn(m)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// MigrateUp brings the schema at path to the latest version.
func MigrateUp(path string) error {
	err := withMigrator(path, func(m *migrate.Migrate) error { return m.Up() })
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	return nil
}

// MigrateDown rolls back steps migrations, or all of them when steps < 0.
func MigrateDown(path string, steps int) error {
	err := withMigrator(path, func(m *migrate.Migrate) error {
		if steps < 0 {
			return m.Down()
		}
		return m.Steps(-steps)
	})
	if err != nil {
		return fmt.Errorf("failed to roll back %s: %w", path, err)
	}
	return nil
}

// MigrationVersion reports the applied schema version; 0 for a fresh file.
func MigrationVersion(path string) (version uint, dirty bool, err error) {
	err = withMigrator(path, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}
