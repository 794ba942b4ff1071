// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"wallet_ledger/internal/db"
	"wallet_ledger/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every table migrated.
// The pool is limited to one connection so concurrent tests serialize on it.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	return open(t, dsn, 1)
}

// NewFileDB opens a file-backed sqlite database in WAL mode that several
// connections use at once. Write transactions take the database lock at BEGIN
// and wait on each other through the busy timeout.
func NewFileDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate"
	return open(t, dsn, conns)
}

func open(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb), "migrate")
	return gdb
}

// CreateUser inserts a user with the given username and roles
func CreateUser(t *testing.T, gdb *gorm.DB, username, roles string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "First",
		LastName:  "Last",
		Password:  "unused",
		Roles:     roles,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateWallet inserts a wallet for userID with an opening balance
func CreateWallet(t *testing.T, gdb *gorm.DB, userID uint, balance float64) *domain.Wallet {
	t.Helper()
	w := &domain.Wallet{UserID: userID, Balance: balance}
	require.NoError(t, gdb.Create(w).Error)
	return w
}
