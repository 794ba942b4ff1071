package domain

import "time"

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	Credit TransactionType = "credit" // Increases the balance
	Debit  TransactionType = "debit"  // Decreases the balance
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == Credit || t == Debit
}

// Transaction Model
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`            // Primary key
	WalletID    uint            `gorm:"index;not null" json:"wallet_id"` // Foreign key to Wallet
	Amount      float64         `gorm:"not null" json:"amount"`          // Amount of the transaction
	Type        TransactionType `gorm:"size:16;not null" json:"type"`    // credit or debit
	Description *string         `gorm:"size:255" json:"description"`     // Optional audit note
	CreatedAt   time.Time       `json:"created_at"`                      // Creation timestamp
	UpdatedAt   time.Time       `json:"updated_at"`                      // Last correction timestamp
}
