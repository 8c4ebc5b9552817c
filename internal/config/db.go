package config

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
)

// InitDB opens the configured database and migrates it when enabled.
// It exits the process when the database cannot be used.
func InitDB(cfg Config) *gorm.DB {
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}

	db, err := OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			log.Fatal("migration failed:", err)
		}
	}
	return db
}

// OpenDB opens a gorm connection for driver "postgres" or "sqlite".
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates the schema of every model.
func Migrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrating %T: %w", m, err)
		}
	}
	return nil
}
