package storage

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvEntry is the single-table schema backing GormStore.
type kvEntry struct {
	Key   string `gorm:"primaryKey;type:varchar(64)"`
	Value string
}

func (kvEntry) TableName() string { return "kv_entries" }

// GormStore is a GORM-backed implementation of Store. Each key maps to
// one row; Set is an upsert, so the discipline stays last-write-wins.
// Backend failures are logged and swallowed per the Store contract.
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore opens a GORM store using the given driver ("sqlite" or
// "postgres") and DSN, migrating the kv table.
func OpenGormStore(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStore wraps an existing GORM handle (used by tests).
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get returns the value for key, treating any backend error as absent.
func (s *GormStore) Get(key string) (string, bool) {
	var entry kvEntry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("kv store read failed for %q: %v", key, err)
		}
		return "", false
	}
	return entry.Value, true
}

// Set upserts the value for key; failures are logged only.
func (s *GormStore) Set(key, value string) {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&kvEntry{Key: key, Value: value}).Error
	if err != nil {
		log.Printf("kv store write failed for %q: %v", key, err)
	}
}

// Remove deletes key; failures are logged only.
func (s *GormStore) Remove(key string) {
	if err := s.db.Delete(&kvEntry{}, "key = ?", key).Error; err != nil {
		log.Printf("kv store delete failed for %q: %v", key, err)
	}
}
