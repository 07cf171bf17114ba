package models

import "time"

// Base contains common columns for all tables.
//
// Budgeting entities are hard-deleted: a removed period must take its budget,
// income sources, and allocations with it rather than leaving shadow rows, so
// there is no soft-delete column here.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
