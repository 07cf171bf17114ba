package services

import (
	"sort"

	"gorm.io/gorm"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
)

// analyticsService provides read-only analytics over the active budget and
// the duplicate-allocation cleanup utility.
type analyticsService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB, budgets BudgetServicer) AnalyticsServicer {
	return &analyticsService{db: db, budgets: budgets}
}

// subcategorySpend is a row of the per-subcategory expense aggregation.
type subcategorySpend struct {
	SubcategoryID uint
	Spent         int64
}

// CheckOverspending compares each subcategory's allocation against actual
// expense spend inside the active period's date range. A subcategory enters
// the report when it has an allocation or at least one in-range transaction;
// it is overspent when spend exceeds allocation. Spend counts only
// expense-signed (negative) amounts, as absolute values.
func (s *analyticsService) CheckOverspending(userID uint) (*OverspendReport, error) {
	budget, period, err := s.budgets.GetActiveBudget(userID)
	if err != nil {
		return nil, err
	}

	var allocations []models.BudgetAllocation
	if err := s.db.Where("budget_id = ?", budget.ID).Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	allocatedBySubcategory := make(map[uint]int64, len(allocations))
	for _, alloc := range allocations {
		allocatedBySubcategory[alloc.SubcategoryID] += alloc.AllocatedAmount
	}

	var spends []subcategorySpend
	if err := s.db.Model(&models.Transaction{}).
		Select("subcategory_id, COALESCE(SUM(-amount), 0) AS spent").
		Where("user_id = ? AND amount < 0 AND date >= ? AND date <= ?",
			userID, period.StartDate, period.EndDate).
		Group("subcategory_id").
		Scan(&spends).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	spentBySubcategory := make(map[uint]int64, len(spends))
	for _, row := range spends {
		spentBySubcategory[row.SubcategoryID] = row.Spent
	}

	// Union of subcategories with an allocation or in-range spend.
	subcategoryIDs := make(map[uint]struct{}, len(allocatedBySubcategory)+len(spentBySubcategory))
	for id := range allocatedBySubcategory {
		subcategoryIDs[id] = struct{}{}
	}
	for id := range spentBySubcategory {
		subcategoryIDs[id] = struct{}{}
	}

	ids := make([]uint, 0, len(subcategoryIDs))
	for id := range subcategoryIDs {
		ids = append(ids, id)
	}
	var subcategories []models.Subcategory
	if len(ids) > 0 {
		if err := s.db.Preload("Category").Where("id IN ?", ids).Find(&subcategories).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	nameBySubcategory := make(map[uint]models.Subcategory, len(subcategories))
	for _, sub := range subcategories {
		nameBySubcategory[sub.ID] = sub
	}

	entries := make([]OverspendEntry, 0)
	for id := range subcategoryIDs {
		allocated := allocatedBySubcategory[id]
		spent := spentBySubcategory[id]
		if spent <= allocated {
			continue
		}

		overspent := spent - allocated
		// A subcategory with spend but no allocation is fully overspent;
		// 100 stands in for the undefined percentage.
		percentage := float64(100)
		if allocated > 0 {
			percentage = float64(overspent) / float64(allocated) * 100
		}

		entry := OverspendEntry{
			SubcategoryID:       id,
			AllocatedAmount:     allocated,
			TotalSpent:          spent,
			OverspentAmount:     overspent,
			OverspentPercentage: percentage,
		}
		if sub, ok := nameBySubcategory[id]; ok {
			entry.SubcategoryName = sub.Name
			entry.CategoryName = sub.Category.Name
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OverspentAmount > entries[j].OverspentAmount
	})

	return &OverspendReport{
		Overspending:    entries,
		Count:           len(entries),
		HasOverspending: len(entries) > 0,
	}, nil
}

// CheckBalance reports whether available funds cover the total allocated.
// Advisory only: an unbalanced budget is reported, never rejected here.
func (s *analyticsService) CheckBalance(userID uint) (*BalanceReport, error) {
	budget, _, err := s.budgets.GetActiveBudget(userID)
	if err != nil {
		return nil, err
	}

	var totalAllocated int64
	if err := s.db.Model(&models.BudgetAllocation{}).
		Where("budget_id = ?", budget.ID).
		Select("COALESCE(SUM(allocated_amount), 0)").
		Scan(&totalAllocated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	available := budget.Available()
	balance := available - totalAllocated
	deficit := int64(0)
	if balance < 0 {
		deficit = -balance
	}

	return &BalanceReport{
		Available:      available,
		TotalAllocated: totalAllocated,
		Balance:        balance,
		Deficit:        deficit,
		IsBalanced:     balance >= 0,
	}, nil
}

// CleanupDuplicateAllocations removes all but the first allocation per
// subcategory from the active budget, in stored order, and returns how many
// rows were removed. Running it on a clean budget removes zero.
func (s *analyticsService) CleanupDuplicateAllocations(userID uint) (int, error) {
	budget, _, err := s.budgets.GetActiveBudget(userID)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var allocations []models.BudgetAllocation
		if err := tx.Where("budget_id = ?", budget.ID).Order("id ASC").Find(&allocations).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		seen := make(map[uint]struct{}, len(allocations))
		var duplicateIDs []uint
		for _, alloc := range allocations {
			if _, ok := seen[alloc.SubcategoryID]; ok {
				duplicateIDs = append(duplicateIDs, alloc.ID)
				continue
			}
			seen[alloc.SubcategoryID] = struct{}{}
		}

		if len(duplicateIDs) == 0 {
			return nil
		}
		if err := tx.Where("id IN ?", duplicateIDs).Delete(&models.BudgetAllocation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		removed = len(duplicateIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
