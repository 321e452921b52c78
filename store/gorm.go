package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one key-value row in the sqlite backend.
type Entry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

type gormKV struct {
	db *gorm.DB
}

func NewGormKV(db *gorm.DB) KV {
	return &gormKV{db}
}

func (kv *gormKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	tx := kv.db.WithContext(ctx).Where("key = ?", key).First(&entry)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (kv *gormKV) Set(ctx context.Context, key string, value []byte) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	tx := kv.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry)
	return tx.Error
}

func (kv *gormKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	tx := kv.db.WithContext(ctx).
		Model(&Entry{}).
		Where("key LIKE ?", prefix+"%").
		Order("key").
		Pluck("key", &keys)
	return keys, tx.Error
}
