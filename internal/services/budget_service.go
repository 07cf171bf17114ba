package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
)

// budgetService handles the active budget's bookkeeping: income sources,
// bulk allocation replacement, and the cached income total.
type budgetService struct {
	db      *gorm.DB
	periods PeriodServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, periods PeriodServicer) BudgetServicer {
	return &budgetService{db: db, periods: periods}
}

// activeBudget resolves the user's active period and its budget. When the
// user has active periods of several types, the most recently created one
// provides "the" budget view.
func (s *budgetService) activeBudget(tx *gorm.DB, userID uint) (*models.Budget, *models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	err := tx.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrPeriodNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budget models.Budget
	err = tx.Where("period_id = ? AND user_id = ?", period.ID, userID).First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrBudgetNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, &period, nil
}

// GetActiveBudget resolves the active period and budget without mutating
// anything. Used by analytics.
func (s *budgetService) GetActiveBudget(userID uint) (*models.Budget, *models.BudgetPeriod, error) {
	return s.activeBudget(s.db, userID)
}

// GetSnapshot returns the full state of the active budget with derived
// totals. TotalIncome is the live sum over income sources, not the cached
// column, so a stale cache can never skew the snapshot.
func (s *budgetService) GetSnapshot(userID uint) (*BudgetSnapshot, error) {
	budget, period, err := s.activeBudget(s.db, userID)
	if err != nil {
		return nil, err
	}

	var sources []models.IncomeSource
	if err := s.db.Where("budget_id = ?", budget.ID).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var allocations []models.BudgetAllocation
	if err := s.db.Where("budget_id = ?", budget.ID).
		Preload("Subcategory").
		Preload("Subcategory.Category").
		Order("id ASC").
		Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var totalIncome int64
	for _, src := range sources {
		totalIncome += src.Amount
	}
	var totalAllocated int64
	for _, alloc := range allocations {
		totalAllocated += alloc.AllocatedAmount
	}

	available := totalIncome + budget.BalanceBroughtForward

	return &BudgetSnapshot{
		BudgetID: budget.ID,
		Period: PeriodInfo{
			ID:         period.ID,
			Name:       period.Name,
			PeriodType: period.PeriodType,
			StartDate:  period.StartDate,
			EndDate:    period.EndDate,
		},
		IncomeSources:         sources,
		Allocations:           allocations,
		TotalIncome:           totalIncome,
		BalanceBroughtForward: budget.BalanceBroughtForward,
		Available:             available,
		TotalAllocated:        totalAllocated,
		Balance:               available - totalAllocated,
	}, nil
}

// UpdateBudgetFields overrides the stored scalar fields directly. This is a
// manual correction path, not the canonical income path; AddIncomeSource and
// friends keep the cached total honest on their own.
func (s *budgetService) UpdateBudgetFields(userID uint, totalIncome, balanceBroughtForward *int64) (*models.Budget, error) {
	budget, _, err := s.activeBudget(s.db, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if totalIncome != nil {
		updates["total_income"] = *totalIncome
	}
	if balanceBroughtForward != nil {
		updates["balance_brought_forward"] = *balanceBroughtForward
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return budget, nil
}

// AddIncomeSource inserts an income source under the active budget and
// recomputes the income total from the full set. When the user has no
// active period yet, a default monthly period covering the current month is
// created first so a fresh account can record income immediately.
func (s *budgetService) AddIncomeSource(userID uint, name string, amount int64) (*models.IncomeSource, error) {
	var source *models.IncomeSource
	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, _, err := s.activeBudget(tx, userID)
		if errors.Is(err, apperrors.ErrPeriodNotFound) {
			period, createErr := s.createDefaultPeriod(tx, userID)
			if createErr != nil {
				return createErr
			}
			budget = period.Budget
		} else if err != nil {
			return err
		}

		source = &models.IncomeSource{
			BudgetID: budget.ID,
			Name:     name,
			Amount:   amount,
		}
		if err := tx.Create(source).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return s.recomputeTotalIncome(tx, budget.ID)
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

// createDefaultPeriod creates an active monthly period spanning the current
// calendar month, with its paired budget.
func (s *budgetService) createDefaultPeriod(tx *gorm.DB, userID uint) (*models.BudgetPeriod, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return s.periods.CreatePeriodTx(tx, userID, start.Format("January 2006"), models.PeriodTypeMonthly, start, end)
}

// UpdateIncomeSource mutates an income source of the active budget, then
// recomputes the income total from the full set, never by delta.
func (s *budgetService) UpdateIncomeSource(userID, sourceID uint, name *string, amount *int64) (*models.IncomeSource, error) {
	var source models.IncomeSource
	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, _, err := s.activeBudget(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Where("id = ? AND budget_id = ?", sourceID, budget.ID).First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrIncomeSourceNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		updates := make(map[string]interface{})
		if name != nil {
			updates["name"] = *name
		}
		if amount != nil {
			updates["amount"] = *amount
		}
		if len(updates) > 0 {
			if err := tx.Model(&source).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return s.recomputeTotalIncome(tx, budget.ID)
	})
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// DeleteIncomeSource removes an income source of the active budget and
// recomputes the income total.
func (s *budgetService) DeleteIncomeSource(userID, sourceID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		budget, _, err := s.activeBudget(tx, userID)
		if err != nil {
			return err
		}

		var source models.IncomeSource
		if err := tx.Where("id = ? AND budget_id = ?", sourceID, budget.ID).First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrIncomeSourceNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Delete(&source).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return s.recomputeTotalIncome(tx, budget.ID)
	})
}

// RecalculateTotalIncome recomputes the cached income total from the live
// income sources and returns it. Idempotent: absent underlying changes, a
// second call yields the same total.
func (s *budgetService) RecalculateTotalIncome(userID uint) (int64, error) {
	var total int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, _, err := s.activeBudget(tx, userID)
		if err != nil {
			return err
		}
		if err := s.recomputeTotalIncome(tx, budget.ID); err != nil {
			return err
		}
		return tx.Model(&models.Budget{}).
			Where("id = ?", budget.ID).
			Select("total_income").
			Scan(&total).Error
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// recomputeTotalIncome writes the live sum over the budget's income sources
// into the cached column.
func (s *budgetService) recomputeTotalIncome(tx *gorm.DB, budgetID uint) error {
	var total int64
	if err := tx.Model(&models.IncomeSource{}).
		Where("budget_id = ?", budgetID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Budget{}).
		Where("id = ?", budgetID).
		Update("total_income", total).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SetAllocations atomically replaces the active budget's allocation set with
// the given entries. The replacement is validated against available funds
// first; on rejection no rows are touched. Entries with a non-positive
// amount are silently dropped, and only the first entry per subcategory is
// kept, so the stored set never holds two rows for one subcategory.
func (s *budgetService) SetAllocations(userID uint, entries []AllocationEntry) error {
	effective := make([]AllocationEntry, 0, len(entries))
	seen := make(map[uint]struct{}, len(entries))
	for _, entry := range entries {
		if entry.AllocatedAmount <= 0 {
			continue
		}
		if _, ok := seen[entry.SubcategoryID]; ok {
			continue
		}
		seen[entry.SubcategoryID] = struct{}{}
		effective = append(effective, entry)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		budget, _, err := s.activeBudget(tx, userID)
		if err != nil {
			return err
		}

		if err := ValidateAllocations(budget, effective); err != nil {
			return err
		}

		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetAllocation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, entry := range effective {
			allocation := &models.BudgetAllocation{
				BudgetID:        budget.ID,
				SubcategoryID:   entry.SubcategoryID,
				AllocatedAmount: entry.AllocatedAmount,
			}
			if err := tx.Create(allocation).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
