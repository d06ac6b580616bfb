package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one row of the durable key/value table
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:255"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (KVEntry) TableName() string {
	return "kv_entries"
}

// GormStore persists values in a SQL table through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on top of an open gorm connection.
// The kv_entries table must exist; see Models.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models lists the gorm models backing the store, for AutoMigrate
func Models() []interface{} {
	return []interface{}{&KVEntry{}}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&KVEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
