package models

import "time"

// PeriodType represents the kind of window a budget period covers.
type PeriodType string

const (
	PeriodTypeMonthly   PeriodType = "monthly"
	PeriodTypeQuarterly PeriodType = "quarterly"
	PeriodTypeYearly    PeriodType = "yearly"
	PeriodTypeCustom    PeriodType = "custom"
)

// Valid reports whether t is one of the known period types.
func (t PeriodType) Valid() bool {
	switch t {
	case PeriodTypeMonthly, PeriodTypeQuarterly, PeriodTypeYearly, PeriodTypeCustom:
		return true
	}
	return false
}

// BudgetPeriod is a named, typed, date-bounded window within which one
// budget's figures apply. At most one period per (user, period type) is
// active at a time, and same-type periods of one user never overlap.
type BudgetPeriod struct {
	Base
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	PeriodType PeriodType `gorm:"size:20;not null" json:"period_type"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    time.Time  `gorm:"not null" json:"end_date"`
	IsActive   bool       `gorm:"default:false" json:"is_active"`

	Budget *Budget `gorm:"foreignKey:PeriodID" json:"budget,omitempty"`
}
