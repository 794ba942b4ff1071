// Package repository provides keyed gorm storage for the resource tables.
package repository

import (
	"context"
	"errors"
	"fmt"
	"wallet_ledger/internal/domain"

	"gorm.io/gorm"
)

// Scope narrows a query, e.g. to one owner
type Scope = func(*gorm.DB) *gorm.DB

// Store is plain keyed storage for one model type
type Store[T any] struct {
	db       *gorm.DB
	notFound string // Detail returned when a lookup misses, e.g. "Item not found"
}

// NewStore creates a store over db
func NewStore[T any](db *gorm.DB, notFound string) *Store[T] {
	return &Store[T]{db: db, notFound: notFound}
}

// Get loads the row with the given primary key
func (s *Store[T]) Get(ctx context.Context, id uint) (*T, error) {
	var v T
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(s.notFound)
		}
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	return &v, nil
}

// Create inserts v and fills its primary key
func (s *Store[T]) Create(ctx context.Context, v *T) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

// Save writes every column of v
func (s *Store[T]) Save(ctx context.Context, v *T) error {
	res := s.db.WithContext(ctx).Model(v).Select("*").Updates(v)
	if err := translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		// Deleted since it was read; never re-insert it
		return domain.NotFound(s.notFound)
	}
	return nil
}

// Delete removes the row with the given primary key
func (s *Store[T]) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if err := translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(s.notFound)
	}
	return nil
}

// Count returns the number of rows matching the scopes
func (s *Store[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Page returns one page of rows ordered by id together with the total row count
func (s *Store[T]) Page(ctx context.Context, page, size int, scopes ...Scope) ([]T, int64, error) {
	total, err := s.Count(ctx, scopes...)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]T, 0, size)
	err = s.db.WithContext(ctx).
		Scopes(scopes...).
		Order("id").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("page %d: %w", page, err)
	}
	return rows, total, nil
}

// OwnedBy scopes a query to rows whose user_id is userID
func OwnedBy(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// Where scopes a query with an arbitrary condition
func Where(query string, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Conflict("Resource already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.Conflict("Resource is still referenced")
	default:
		return err
	}
}
