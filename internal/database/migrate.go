package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	pkglogger "github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// Migrate applies all pending up migrations found in the root of migrations
// and returns the resulting schema version. driverName is "mysql" or
// "sqlite3".
//
// The migrator is not closed: closing it would also close db.
func Migrate(db *sql.DB, driverName string, migrations fs.FS) (uint, error) {
	var (
		driver database.Driver
		err    error
	)
	switch driverName {
	case "mysql":
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return 0, fmt.Errorf("unsupported migration driver %q", driverName)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return version, fmt.Errorf("schema version %d is dirty", version)
	}

	pkglogger.Info("Database schema at version %d", version)
	return version, nil
}
