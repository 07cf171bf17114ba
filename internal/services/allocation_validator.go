package services

import (
	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
)

// ValidateAllocations checks a requested bulk allocation replacement against
// the budget's available funds (income total plus balance brought forward).
// It is pure: no queries, no side effects. The over-allocation error carries
// the requested and available totals in minor units.
func ValidateAllocations(budget *models.Budget, entries []AllocationEntry) error {
	var requested int64
	for _, entry := range entries {
		requested += entry.AllocatedAmount
	}

	available := budget.Available()
	if requested > available {
		return apperrors.NewOverAllocationError(requested, available)
	}
	return nil
}
