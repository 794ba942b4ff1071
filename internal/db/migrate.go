package db

import (
	"wallet_ledger/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Models lists every persisted table in dependency order
func Models() []any {
	return []any{&domain.User{}, &domain.Merchant{}, &domain.Item{}, &domain.Wallet{}, &domain.Transaction{}}
}

// Migrate performs automatic migration for the database schema
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	return gdb.AutoMigrate(Models()...)
}
