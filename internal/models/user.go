package models

import "time"

// User represents an account holder. Email is the login identifier; an
// account stays inactive until its registration code is confirmed.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	Fullname            string     `gorm:"size:128" json:"fullname"`
	IsActive            bool       `gorm:"not null;default:false" json:"is_active"`
	IsStaff             bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser         bool       `gorm:"not null;default:false" json:"is_superuser"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	Expenses            []Expense  `gorm:"foreignKey:UserID" json:"expenses,omitempty"`
}
