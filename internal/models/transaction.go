package models

import "time"

// Transaction represents a single ledger entry. Amount is signed minor units
// (cents): negative for expenses, positive for income. Transactions are not
// owned by a budget period; they relate to one only by falling inside its
// date range.
type Transaction struct {
	Base
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	SubcategoryID uint      `gorm:"not null;index" json:"subcategory_id"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	Description   string    `gorm:"size:200" json:"description"`
	Comment       string    `json:"comment,omitempty"`
	Date          time.Time `gorm:"not null;index" json:"date"`

	Subcategory Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory"`
}
