package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"wallet_ledger/internal/domain"

	"gorm.io/gorm"
)

// UserStore adds login lookups to the user table
type UserStore struct {
	*Store[domain.User]
	db *gorm.DB
}

// NewUserStore creates a user store over db
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{Store: NewStore[domain.User](db, "User not found"), db: db}
}

// FindByLogin loads a user by username, falling back to email
func (s *UserStore) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var u domain.User
	err := s.db.WithContext(ctx).Where("username = ?", login).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).Where("email = ?", login).First(&u).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// CheckAvailable fails with Conflict when username or email belongs to a user other than exceptID
func (s *UserStore) CheckAvailable(ctx context.Context, username, email string, exceptID uint) error {
	var taken domain.User
	err := s.db.WithContext(ctx).
		Where("(username = ? OR email = ?) AND id <> ?", username, email, exceptID).
		First(&taken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if taken.Username == username {
		return domain.Conflict("This username already exists.")
	}
	return domain.Conflict("This email already exists.")
}

// TouchLogin stamps the last successful login
func (s *UserStore) TouchLogin(ctx context.Context, u *domain.User, at time.Time) error {
	u.LastLoginDate = &at
	return s.db.WithContext(ctx).Model(u).UpdateColumn("last_login_date", at).Error
}

// OwnsResources reports whether the user still owns wallets, merchants or items
func (s *UserStore) OwnsResources(ctx context.Context, userID uint) (bool, error) {
	for _, model := range []any{&domain.Wallet{}, &domain.Merchant{}, &domain.Item{}} {
		var n int64
		if err := s.db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&n).Error; err != nil {
			return false, fmt.Errorf("count owned: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}
