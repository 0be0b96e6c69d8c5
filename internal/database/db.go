package historydb

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global SQLite database instance
var DB *gorm.DB

// InitDB initializes the SQLite history database
func InitDB(dbPath string) error {
	var err error

	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %v", err)
		}
	}

	// Configure GORM to be less verbose
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}

	DB, err = gorm.Open(sqlite.Open(dbPath), config)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}

	err = DB.AutoMigrate(&MessageRecord{})
	if err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}

	log.Println("History database initialized successfully")
	return nil
}
