package testutil

import (
	"database/sql"

	"github.com/erlanggapranata/uploader/internal/migration"
)

// RunTestMigrations brings a test database up to the latest schema using
// the embedded migration set.
func RunTestMigrations(db *sql.DB) error {
	manager, err := migration.NewManagerWithDB(db)
	if err != nil {
		return err
	}

	return manager.Up()
}
