package models

// RecurringIncomeSource is an owner-level template used to seed new budgets'
// income sources. Templates are tagged with a period type and only active
// templates matching a new period's type are copied in. Period operations
// never delete templates.
type RecurringIncomeSource struct {
	Base
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	Amount     int64      `gorm:"type:bigint;not null" json:"amount"`
	PeriodType PeriodType `gorm:"size:20;not null;default:monthly" json:"period_type"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
}

// RecurringBudgetAllocation is the allocation counterpart of
// RecurringIncomeSource.
type RecurringBudgetAllocation struct {
	Base
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	SubcategoryID   uint       `gorm:"not null" json:"subcategory_id"`
	AllocatedAmount int64      `gorm:"type:bigint;default:0" json:"allocated_amount"`
	PeriodType      PeriodType `gorm:"size:20;not null;default:monthly" json:"period_type"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`

	Subcategory Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory"`
}
