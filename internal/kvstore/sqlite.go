package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	defaultSQLitePath = "~/.local/share/emarket/store.db"
	memoryDSN         = ":memory:"
)

type kvEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

// SQLite stores entries in a single kv_entries table through gorm.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) the database at path. ":memory:" opens
// a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if dsn != memoryDSN {
		resolved, err := resolvePath(path, defaultSQLitePath)
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		dsn = resolved
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == memoryDSN {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var e kvEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	return s.upsert(s.db.WithContext(ctx), []kvEntry{{Key: key, Value: value}})
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&kvEntry{}).Error
}

func (s *SQLite) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var rows []kvEntry
	if err := s.db.WithContext(ctx).Where("entry_key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *SQLite) MultiSet(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]kvEntry, 0, len(entries))
	for k, v := range entries {
		rows = append(rows, kvEntry{Key: k, Value: v})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.upsert(tx, rows)
	})
}

func (s *SQLite) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&kvEntry{}).Error
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLite) upsert(tx *gorm.DB, rows []kvEntry) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&rows).Error
}
