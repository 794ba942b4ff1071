package api

import (
	"strings"                       // Normalization
	"wallet_ledger/internal/domain" // Domain models
)

// TokenRequest is the OAuth2 password form; username may also be an email
type TokenRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token to exchange
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token" binding:"required"`
}

// CreateUserRequest is the registration body
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=191"`
	Username  string `json:"username" binding:"required,max=191"`
	FirstName string `json:"first_name" binding:"max=191"`
	LastName  string `json:"last_name" binding:"max=191"`
	Password  string `json:"password" binding:"required,min=6,max=72"` // bcrypt reads at most 72 bytes
}

func (r CreateUserRequest) toUser(hash string) *domain.User {
	return &domain.User{
		Email:     normalizeLogin(r.Email),
		Username:  normalizeLogin(r.Username),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Password:  hash,
		Roles:     "user",
	}
}

// UpdateUserRequest changes only the fields that are present
type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=191"`
	Username  *string `json:"username" binding:"omitempty,min=1,max=191"`
	FirstName *string `json:"first_name" binding:"omitempty,max=191"`
	LastName  *string `json:"last_name" binding:"omitempty,max=191"`
	Roles     *string `json:"roles" binding:"omitempty,max=191"` // Administrators only
}

func (r UpdateUserRequest) applyTo(u *domain.User) {
	if r.Email != nil {
		u.Email = normalizeLogin(*r.Email)
	}
	if r.Username != nil {
		u.Username = normalizeLogin(*r.Username)
	}
	if r.FirstName != nil {
		u.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		u.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Roles != nil {
		u.Roles = strings.Join((&domain.User{Roles: *r.Roles}).RoleSet(), ",")
	}
}

// ChangePasswordRequest replaces a password; current_password is required when changing your own
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// CreateWalletRequest optionally carries an opening balance
type CreateWalletRequest struct {
	Balance float64 `json:"balance" binding:"gte=0"`
}

// OverrideBalanceRequest is the administrative balance overwrite
type OverrideBalanceRequest struct {
	Balance *float64 `json:"balance" binding:"required,gte=0"`
}

// CreateTransactionRequest posts a new ledger entry
type CreateTransactionRequest struct {
	WalletID    uint                   `json:"wallet_id" binding:"required"`
	Amount      float64                `json:"amount" binding:"gt=0"`
	Type        domain.TransactionType `json:"type" binding:"required,oneof=credit debit"`
	Description *string                `json:"description" binding:"omitempty,max=255"`
}

// UpdateTransactionRequest corrects an entry; wallet_id may be repeated but not changed
type UpdateTransactionRequest struct {
	WalletID    *uint                  `json:"wallet_id"`
	Amount      float64                `json:"amount" binding:"gt=0"`
	Type        domain.TransactionType `json:"type" binding:"required,oneof=credit debit"`
	Description *string                `json:"description" binding:"omitempty,max=255"`
}

// MerchantRequest is the create and full-update body of a merchant
type MerchantRequest struct {
	Name        string  `json:"name" binding:"required,max=191"`
	Description *string `json:"description" binding:"omitempty,max=1024"`
	TaxID       *string `json:"tax_id" binding:"omitempty,max=64"`
}

func (r MerchantRequest) toMerchant(userID uint) *domain.Merchant {
	m := &domain.Merchant{UserID: userID}
	r.applyTo(m)
	return m
}

func (r MerchantRequest) applyTo(m *domain.Merchant) {
	m.Name = strings.TrimSpace(r.Name)
	m.Description = r.Description
	m.TaxID = r.TaxID
}

// ItemRequest is the create and full-update body of an item
type ItemRequest struct {
	MerchantID  uint     `json:"merchant_id" binding:"required"`
	Name        string   `json:"name" binding:"required,max=191"`
	Description *string  `json:"description" binding:"omitempty,max=1024"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Tax         *float64 `json:"tax" binding:"omitempty,gte=0"`
}

func (r ItemRequest) toItem(userID uint) *domain.Item {
	it := &domain.Item{UserID: userID}
	r.applyTo(it)
	return it
}

func (r ItemRequest) applyTo(it *domain.Item) {
	it.MerchantID = r.MerchantID
	it.Name = strings.TrimSpace(r.Name)
	it.Description = r.Description
	it.Price = domain.DefaultItemPrice
	if r.Price != nil {
		it.Price = *r.Price
	}
	it.Tax = r.Tax
}

func normalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
