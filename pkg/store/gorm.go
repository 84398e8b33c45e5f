package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore is the MySQL-backed Store implementation
type GormStore struct {
	db *gorm.DB
}

// Open connects to the database behind dsn and migrates the comment table.
// The migration covers legacy rows: root and parent default to 0.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate comment table: %w", err)
	}

	return &GormStore{db: db}, nil
}

// Get returns the comment with the given id, or ErrNotFound
func (s *GormStore) Get(ctx context.Context, rpid int64) (Comment, error) {
	var c Comment
	err := s.db.WithContext(ctx).First(&c, "rpid = ?", rpid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

// QueryTopLevelSince returns persisted top-level comments of oid with ctime
// at or after since
func (s *GormStore) QueryTopLevelSince(ctx context.Context, oid int64, since time.Time) ([]Comment, error) {
	var comments []Comment
	err := s.db.WithContext(ctx).
		Where("oid = ? AND root = 0 AND ctime >= ?", oid, since).
		Find(&comments).Error
	return comments, err
}

// QuerySubReplies returns persisted sub-replies of a thread head
func (s *GormStore) QuerySubReplies(ctx context.Context, root int64) ([]Comment, error) {
	var comments []Comment
	err := s.db.WithContext(ctx).
		Where("root = ?", root).
		Find(&comments).Error
	return comments, err
}

// RecentFirst returns one dashboard page of comments, newest first
func (s *GormStore) RecentFirst(ctx context.Context, page, perPage int) ([]Comment, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Comment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []Comment
	err := s.db.WithContext(ctx).
		Order("ctime DESC, rpid DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&comments).Error
	return comments, total, err
}

// BulkInsert inserts new comment records
func (s *GormStore) BulkInsert(ctx context.Context, comments []Comment) error {
	if len(comments) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(comments, 100).Error
}

// UpdateStatus sets the lifecycle status of one comment
func (s *GormStore) UpdateStatus(ctx context.Context, rpid int64, status Status) error {
	tx := s.db.WithContext(ctx).
		Model(&Comment{}).
		Where("rpid = ?", rpid).
		Update("guardian_status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// MySQL also reports zero rows for same-value updates, so confirm
		// the record is really missing before surfacing ErrNotFound
		if _, err := s.Get(ctx, rpid); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InTx runs fn inside one database transaction
func (s *GormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
