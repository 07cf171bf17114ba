package models

// Category represents a top-level grouping of spending subcategories.
type Category struct {
	Base
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

// Subcategory is the unit transactions and budget allocations are tagged with.
type Subcategory struct {
	Base
	CategoryID uint   `gorm:"not null;index" json:"category_id"`
	Name       string `gorm:"not null" json:"name"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
