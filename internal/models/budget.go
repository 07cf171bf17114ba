package models

// Budget is the income/allocation ledger paired 1:1 with a BudgetPeriod.
// TotalIncome caches the sum of the budget's income sources and is always
// recomputed from the full set after a mutation, never adjusted by delta.
// All monetary values are minor units (cents).
type Budget struct {
	Base
	PeriodID              uint  `gorm:"not null;uniqueIndex" json:"period_id"`
	UserID                uint  `gorm:"not null;index" json:"user_id"`
	TotalIncome           int64 `gorm:"type:bigint;default:0" json:"total_income"`
	BalanceBroughtForward int64 `gorm:"type:bigint;default:0" json:"balance_brought_forward"`

	IncomeSources []IncomeSource     `gorm:"foreignKey:BudgetID" json:"income_sources,omitempty"`
	Allocations   []BudgetAllocation `gorm:"foreignKey:BudgetID" json:"allocations,omitempty"`
}

// Available returns the ceiling against which allocations are validated.
func (b *Budget) Available() int64 {
	return b.TotalIncome + b.BalanceBroughtForward
}

// BudgetAllocation assigns a planned spending amount to one subcategory
// within a budget. RecurringAllocationID points back at the template the
// row was populated from, when it was.
type BudgetAllocation struct {
	Base
	BudgetID              uint  `gorm:"not null;index" json:"budget_id"`
	SubcategoryID         uint  `gorm:"not null;index" json:"subcategory_id"`
	AllocatedAmount       int64 `gorm:"type:bigint;default:0" json:"allocated_amount"`
	RecurringAllocationID *uint `json:"recurring_allocation_id,omitempty"`

	Subcategory Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory"`
}
