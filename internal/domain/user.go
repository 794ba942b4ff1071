package domain

import (
	"strings" // Role parsing
	"time"    // Timestamps
)

// RoleAdmin is the role granting administrative endpoints
const RoleAdmin = "admin"

// User Model
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`                                    // Primary key
	Email         string     `gorm:"size:191;uniqueIndex;not null" json:"email"`              // Unique email
	Username      string     `gorm:"size:191;uniqueIndex;not null" json:"username"`           // Unique username
	FirstName     string     `gorm:"size:191" json:"first_name"`                              // First name
	LastName      string     `gorm:"size:191" json:"last_name"`                               // Last name
	Password      string     `gorm:"not null" json:"-"`                                       // Hashed password
	Roles         string     `gorm:"size:191;not null;default:user" json:"roles"`             // Comma separated roles
	RegisterDate  time.Time  `gorm:"autoCreateTime" json:"register_date"`                     // Registration timestamp
	UpdatedDate   time.Time  `gorm:"autoUpdateTime" json:"updated_date"`                      // Last profile update
	LastLoginDate *time.Time `json:"last_login_date"`                                         // Last successful login
	Wallets       []Wallet   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Owned wallets
	Merchants     []Merchant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Owned merchants
	Items         []Item     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Owned items
}

// RoleSet splits the stored roles into a slice
func (u *User) RoleSet() []string {
	var roles []string
	for _, r := range strings.Split(u.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
