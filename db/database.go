package db

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/crossposter/mastodon-comments/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Database represents the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (or creates) the interactions database under dataDir.
func NewDatabase(dataDir string, logger *log.Logger) (*Database, error) {
	dbPath := filepath.Join(dataDir, "interactions.db")

	// Check if the database exists and has the old schema
	needsMigration, err := checkOldSchema(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check database schema: %w", err)
	}

	// Configure GORM logger
	logConfig := gormlogger.Config{
		LogLevel: gormlogger.Warn, // Log only warnings and errors
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.New(
			logger,
			logConfig,
		),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// If we need to migrate from the old schema
	if needsMigration {
		if err := migrateOldSchema(db); err != nil {
			return nil, fmt.Errorf("failed to migrate old schema: %w", err)
		}
	} else {
		// Run normal migrations for new database
		if err := db.AutoMigrate(&models.ImportedInteraction{}); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &Database{DB: db}, nil
}

// checkOldSchema checks for the old schema, which keyed rows by source URL
// alone. Favorites and boosts from one account on different posts collide
// under that key, so those tables get rebuilt with the composite index.
func checkOldSchema(dbPath string) (bool, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// If the database doesn't exist, no migration needed
		return false, nil
	}
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                         WHERE type='table' AND name='imported_interactions'
                         AND sql LIKE '%source TEXT PRIMARY KEY%'`).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// migrateOldSchema migrates from the old schema to the new GORM schema
func migrateOldSchema(db *gorm.DB) error {
	// Create a temporary table with the new schema
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS imported_interactions_new (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source TEXT NOT NULL,
        post_id INTEGER NOT NULL,
        ip TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL DEFAULT '',
        created_at DATETIME
    )`).Error; err != nil {
		return err
	}

	// Format current time in RFC3339 format which GORM uses
	now := time.Now().Format(time.RFC3339)

	// Copy data from the old table, filling in timestamps the old schema
	// didn't track
	if err := db.Exec(`INSERT INTO imported_interactions_new (source, post_id, ip, status, created_at)
                      SELECT source, post_id, ip, status, ?
                      FROM imported_interactions`, now).Error; err != nil {
		return err
	}

	// Drop the old table
	if err := db.Exec(`DROP TABLE imported_interactions`).Error; err != nil {
		return err
	}

	// Rename the new table to the original name
	if err := db.Exec(`ALTER TABLE imported_interactions_new RENAME TO imported_interactions`).Error; err != nil {
		return err
	}

	// Create the composite unique index
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_interactions_source_post ON imported_interactions(source, post_id)`).Error; err != nil {
		return err
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
