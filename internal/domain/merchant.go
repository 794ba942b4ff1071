package domain

// Merchant Model
type Merchant struct {
	ID          uint    `gorm:"primaryKey" json:"id"`                                    // Primary key
	UserID      uint    `gorm:"index;not null" json:"user_id"`                           // Foreign key to User
	Name        string  `gorm:"size:191;not null" json:"name"`                           // Display name
	Description *string `gorm:"size:1024" json:"description"`                            // Optional description
	TaxID       *string `gorm:"size:64" json:"tax_id"`                                   // Optional tax id
	Items       []Item  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Items sold
}
