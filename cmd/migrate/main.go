package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/erlanggapranata/uploader/internal/migration"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/uploader.db", "Database path")
		action  = flag.String("action", "up", "Migration action: up, down, force, version")
		version = flag.Int("version", 0, "Version to force to")
	)
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	manager, err := migration.NewManagerWithDB(db)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}

	switch *action {
	case "up":
		if err := manager.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}

	case "down":
		if err := manager.Down(); err != nil {
			log.Fatalf("Migration rollback failed: %v", err)
		}

	case "force":
		if err := manager.Force(*version); err != nil {
			log.Fatalf("Force failed: %v", err)
		}

	case "version":
		v, dirty, err := manager.Version()
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.Printf("Current version: %d (dirty: %v)", v, dirty)

	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}
