// MeterDB is the local archive of smart meter readings, written by
// meter_logger. Other services may read it, ideally through the hourly and
// daily aggregates rather than the raw rows.
package meterdb

import (
	"database/sql"
	"embed"
	"log"
	"os"
	"sync"

	"github.com/NotCoffee418/dbmigrator"

	"github.com/p1bridge/dsmr_bridge/pkg/pathing"

	_ "modernc.org/sqlite"
)

var (
	db   *sql.DB
	once sync.Once
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// InitializeDatabase must be called manually on startup
func InitializeDatabase() {
	// Create DB before migrations
	db := GetDB()
	if _, err := db.Exec("SELECT 1;"); err != nil {
		log.Printf("Warning: Could not create DB: %v", err)
	}
	ApplyMigrations(db)
}

// ApplyMigrations brings the schema up to date.
func ApplyMigrations(db *sql.DB) {
	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)
}

// Open opens the sqlite database at path, creating parent directories as
// needed.
func Open(path string) (*sql.DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err = handle.Ping(); err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}

func GetDB() *sql.DB {
	once.Do(func() {
		if err := os.MkdirAll(pathing.GetDataDir(), 0755); err != nil {
			log.Fatal(err)
		}
		var err error
		db, err = Open(pathing.GetMeterDbPath())
		if err != nil {
			log.Fatal(err)
		}
	})
	return db
}
