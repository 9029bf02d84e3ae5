package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is a single money movement owned by a user. Despite the name it
// records both income and expense kinds. Deleted records are kept out of
// every query but stay in the table.
type Expense struct {
	Base
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Kind        Kind            `gorm:"size:50;not null" json:"kind"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	UserID      *string         `gorm:"type:uuid;index" json:"user_id,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}
