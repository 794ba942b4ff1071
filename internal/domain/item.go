package domain

// DefaultItemPrice is used when an item is created without a price
const DefaultItemPrice = 0.12

// Item Model
type Item struct {
	ID          uint     `gorm:"primaryKey" json:"id"`              // Primary key
	UserID      uint     `gorm:"index;not null" json:"user_id"`     // Foreign key to User
	MerchantID  uint     `gorm:"index;not null" json:"merchant_id"` // Foreign key to Merchant
	Name        string   `gorm:"size:191;not null" json:"name"`     // Display name
	Description *string  `gorm:"size:1024" json:"description"`      // Optional description
	Price       float64  `gorm:"not null" json:"price"`             // Unit price
	Tax         *float64 `json:"tax"`                               // Optional tax
}
