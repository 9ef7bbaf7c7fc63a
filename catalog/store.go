//go:build !js

package catalog

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the catalog database.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Activity{}); err != nil {
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts a, or replaces the row with the same source hash.
func (s *Store) Record(a *Activity) error {
	var existing Activity
	err := s.db.Where("source_sha256 = ?", a.SourceSHA256).First(&existing).Error
	switch {
	case err == nil:
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return s.db.Save(a).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		return s.db.Create(a).Error
	default:
		return err
	}
}

// Exists reports whether a log with the given SHA-256 was already exported.
func (s *Store) Exists(sha string) (bool, error) {
	var count int64
	if err := s.db.Model(&Activity{}).Where("source_sha256 = ?", sha).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Recent returns the most recently recorded activities, newest first.
func (s *Store) Recent(limit int) ([]Activity, error) {
	var activities []Activity
	result := s.db.Order("created_at desc").Limit(limit).Find(&activities)
	return activities, result.Error
}

// TotalDistanceKm sums distance across all recorded activities.
func (s *Store) TotalDistanceKm() (float64, error) {
	// SUM over an empty table is NULL.
	var total *float64
	if err := s.db.Model(&Activity{}).Select("sum(distance_km)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
