package models

// Category groups expenses under a named, iconified kind. Categories are
// global and managed by staff.
type Category struct {
	Base
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Kind Kind   `gorm:"size:50;not null;index" json:"kind"`
	Icon string `gorm:"size:255" json:"icon"`
}
