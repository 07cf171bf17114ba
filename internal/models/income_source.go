package models

// IncomeSource is a concrete amount of income recorded against one budget.
// RecurringSourceID points back at the template the row was populated from,
// when it was.
type IncomeSource struct {
	Base
	BudgetID          uint   `gorm:"not null;index" json:"budget_id"`
	Name              string `gorm:"size:100;not null" json:"name"`
	Amount            int64  `gorm:"type:bigint;not null" json:"amount"`
	RecurringSourceID *uint  `json:"recurring_source_id,omitempty"`
}
