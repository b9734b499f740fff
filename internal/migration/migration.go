package migration

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var MigrationsFS embed.FS

// Manager handles database migrations
type Manager struct {
	migrator *migrate.Migrate
	db       *sql.DB
}

// NewManagerWithDB creates a new migration manager using an existing database connection
func NewManagerWithDB(db *sql.DB) (*Manager, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(MigrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Manager{
		migrator: migrator,
		db:       db,
	}, nil
}

// Up runs all pending migrations
func (m *Manager) Up() error {
	log.Println("Running database migrations...")

	err := m.migrator.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("No new migrations to run")
	} else {
		log.Println("Migrations completed successfully")
	}

	return nil
}

// Down rolls back the last migration
func (m *Manager) Down() error {
	log.Println("Rolling back last migration...")

	err := m.migrator.Steps(-1)
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("No migrations to rollback")
	} else {
		log.Println("Migration rollback completed successfully")
	}

	return nil
}

// Force sets the migration version without running migrations
func (m *Manager) Force(version int) error {
	log.Printf("Forcing migration version to %d...", version)

	if err := m.migrator.Force(version); err != nil {
		return fmt.Errorf("failed to force migration version: %w", err)
	}

	log.Printf("Migration version forced to %d", version)
	return nil
}

// Version returns the current migration version
func (m *Manager) Version() (uint, bool, error) {
	version, dirty, err := m.migrator.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}
