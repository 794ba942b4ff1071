package domain

import "time"

// Wallet Model
type Wallet struct {
	ID           uint          `gorm:"primaryKey" json:"id"`                                    // Primary key
	UserID       uint          `gorm:"index;not null" json:"user_id"`                           // Foreign key to User
	Balance      float64       `gorm:"not null;default:0" json:"balance"`                       // Wallet balance
	Version      int64         `gorm:"not null;default:0" json:"-"`                             // Bumped on every balance write
	CreatedAt    time.Time     `json:"created_at"`                                              // Creation timestamp
	UpdatedAt    time.Time     `json:"updated_at"`                                              // Last update timestamp
	Transactions []Transaction `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Ledger entries
}
