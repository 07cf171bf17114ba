package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
)

// periodService handles budget period lifecycle: creation with overlap
// enforcement, activation, partial updates, and deletion with its
// transaction sweep.
type periodService struct {
	db        *gorm.DB
	recurring RecurringServicer
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB, recurring RecurringServicer) PeriodServicer {
	return &periodService{db: db, recurring: recurring}
}

// CreatePeriod creates a new budget period with its paired empty budget,
// deactivating the owner's current active period of the same type and
// seeding the budget from recurring templates, all in one transaction.
func (s *periodService) CreatePeriod(
	userID uint,
	name string,
	periodType models.PeriodType,
	start, end time.Time,
) (*models.BudgetPeriod, error) {
	var result *models.BudgetPeriod
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.CreatePeriodTx(tx, userID, name, periodType, start, end)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreatePeriodTx is the transactional body of CreatePeriod, exposed so other
// multi-step operations (e.g. the first-use default period fallback) can run
// period creation as one step of their own transaction.
func (s *periodService) CreatePeriodTx(
	tx *gorm.DB,
	userID uint,
	name string,
	periodType models.PeriodType,
	start, end time.Time,
) (*models.BudgetPeriod, error) {
	if !start.Before(end) {
		return nil, apperrors.ErrInvalidDateRange
	}

	if err := s.checkOverlap(tx, userID, periodType, start, end, 0); err != nil {
		return nil, err
	}

	// Oust the current active period of this type, if any.
	if err := tx.Model(&models.BudgetPeriod{}).
		Where("user_id = ? AND period_type = ? AND is_active = ?", userID, periodType, true).
		Update("is_active", false).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	period := &models.BudgetPeriod{
		UserID:     userID,
		Name:       name,
		PeriodType: periodType,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	if err := tx.Create(period).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget := &models.Budget{
		PeriodID: period.ID,
		UserID:   userID,
	}
	if err := tx.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.recurring.PopulateBudget(tx, userID, budget, periodType); err != nil {
		return nil, err
	}

	period.Budget = budget
	return period, nil
}

// checkOverlap fails with a period-overlap error when any same-type period of
// the user intersects [start, end], endpoints included. excludeID skips the
// period being updated. Periods of different types may overlap freely.
func (s *periodService) checkOverlap(
	tx *gorm.DB,
	userID uint,
	periodType models.PeriodType,
	start, end time.Time,
	excludeID uint,
) error {
	query := tx.Model(&models.BudgetPeriod{}).
		Where("user_id = ? AND period_type = ? AND start_date <= ? AND end_date >= ?",
			userID, periodType, end, start)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var conflicts []models.BudgetPeriod
	if err := query.Order("start_date ASC").Find(&conflicts).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(conflicts) == 0 {
		return nil
	}

	names := make([]string, len(conflicts))
	for i, p := range conflicts {
		names[i] = p.Name
	}
	return apperrors.NewPeriodOverlapError(names)
}

// ActivatePeriod makes the target period the active one of its type,
// deactivating every other same-type period in the same transaction. Safe to
// call on an already-active period.
func (s *periodService) ActivatePeriod(userID, periodID uint) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", periodID, userID).First(&period).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPeriodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&models.BudgetPeriod{}).
			Where("user_id = ? AND period_type = ? AND is_active = ? AND id <> ?",
				userID, period.PeriodType, true, period.ID).
			Update("is_active", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if period.IsActive {
			return nil
		}
		if err := tx.Model(&period).Update("is_active", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// UpdatePeriod applies a partial update. When the dates or the type change,
// the same range and overlap checks as creation run again, excluding the
// period itself.
func (s *periodService) UpdatePeriod(userID, periodID uint, update PeriodUpdate) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", periodID, userID).First(&period).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPeriodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		newType := period.PeriodType
		if update.PeriodType != nil {
			newType = *update.PeriodType
		}
		newStart := period.StartDate
		if update.StartDate != nil {
			newStart = *update.StartDate
		}
		newEnd := period.EndDate
		if update.EndDate != nil {
			newEnd = *update.EndDate
		}

		rangeChanged := update.StartDate != nil || update.EndDate != nil
		typeChanged := newType != period.PeriodType

		if rangeChanged || typeChanged {
			if !newStart.Before(newEnd) {
				return apperrors.ErrInvalidDateRange
			}
			if err := s.checkOverlap(tx, userID, newType, newStart, newEnd, period.ID); err != nil {
				return err
			}
		}

		// A type change on an active period would leave two active periods
		// of the new type; oust the incumbent first.
		if typeChanged && period.IsActive {
			if err := tx.Model(&models.BudgetPeriod{}).
				Where("user_id = ? AND period_type = ? AND is_active = ? AND id <> ?",
					userID, newType, true, period.ID).
				Update("is_active", false).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		updates := make(map[string]interface{})
		if update.Name != nil {
			updates["name"] = *update.Name
		}
		if typeChanged {
			updates["period_type"] = newType
		}
		if update.StartDate != nil {
			updates["start_date"] = newStart
		}
		if update.EndDate != nil {
			updates["end_date"] = newEnd
		}

		if len(updates) > 0 {
			if err := tx.Model(&period).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// DeletePeriod removes the period, its budget with all income sources and
// allocations, and every transaction of the owner dated inside the period's
// range. Transactions carry no foreign key to the period, so the sweep is an
// explicit delete step in the same transaction as the cascade.
func (s *periodService) DeletePeriod(userID, periodID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var period models.BudgetPeriod
		if err := tx.Where("id = ? AND user_id = ?", periodID, userID).First(&period).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPeriodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Where("user_id = ? AND date >= ? AND date <= ?",
			userID, period.StartDate, period.EndDate).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var budget models.Budget
		err := tx.Where("period_id = ?", period.ID).First(&budget).Error
		switch {
		case err == nil:
			if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetAllocation{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.IncomeSource{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Delete(&budget).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Period without a budget should not happen, but deletion
			// proceeds rather than stranding the period.
		default:
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Delete(&period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetActivePeriod returns the active period of the given type, or nil when
// the user has none.
func (s *periodService) GetActivePeriod(userID uint, periodType models.PeriodType) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	err := s.db.Where("user_id = ? AND period_type = ? AND is_active = ?", userID, periodType, true).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// ListPeriods returns the user's periods, newest first.
func (s *periodService) ListPeriods(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetPeriod{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var periods []models.BudgetPeriod
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(periods, page.Page, page.PageSize, totalItems)
	return &result, nil
}
