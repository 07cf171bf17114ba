package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
)

// recurringService manages recurring income/allocation templates and seeds
// freshly created budgets from them.
type recurringService struct {
	db *gorm.DB
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB) RecurringServicer {
	return &recurringService{db: db}
}

// PopulateBudget copies the user's active templates with a matching period
// type into the budget, tagging each copy with its template of origin, and
// recomputes the budget's income total. A budget that already holds income
// sources or allocations is left untouched, so repeated calls cannot
// duplicate rows. Runs entirely in the caller's transaction.
func (s *recurringService) PopulateBudget(tx *gorm.DB, userID uint, budget *models.Budget, periodType models.PeriodType) error {
	var sourceCount, allocationCount int64
	if err := tx.Model(&models.IncomeSource{}).
		Where("budget_id = ?", budget.ID).
		Count(&sourceCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.BudgetAllocation{}).
		Where("budget_id = ?", budget.ID).
		Count(&allocationCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if sourceCount > 0 || allocationCount > 0 {
		return nil
	}

	var templates []models.RecurringIncomeSource
	if err := tx.Where("user_id = ? AND period_type = ? AND is_active = ?", userID, periodType, true).
		Find(&templates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var totalIncome int64
	for i := range templates {
		tmpl := &templates[i]
		source := &models.IncomeSource{
			BudgetID:          budget.ID,
			Name:              tmpl.Name,
			Amount:            tmpl.Amount,
			RecurringSourceID: &tmpl.ID,
		}
		if err := tx.Create(source).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		totalIncome += tmpl.Amount
	}

	var allocationTemplates []models.RecurringBudgetAllocation
	if err := tx.Where("user_id = ? AND period_type = ? AND is_active = ?", userID, periodType, true).
		Find(&allocationTemplates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range allocationTemplates {
		tmpl := &allocationTemplates[i]
		allocation := &models.BudgetAllocation{
			BudgetID:              budget.ID,
			SubcategoryID:         tmpl.SubcategoryID,
			AllocatedAmount:       tmpl.AllocatedAmount,
			RecurringAllocationID: &tmpl.ID,
		}
		if err := tx.Create(allocation).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	budget.TotalIncome = totalIncome
	if err := tx.Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		Update("total_income", totalIncome).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListIncomeSources returns the user's recurring income source templates.
func (s *recurringService) ListIncomeSources(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringIncomeSource], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringIncomeSource{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var sources []models.RecurringIncomeSource
	if err := base.Scopes(pagination.Paginate(page)).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(sources, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CreateIncomeSource creates a recurring income source template.
func (s *recurringService) CreateIncomeSource(userID uint, name string, amount int64, periodType models.PeriodType) (*models.RecurringIncomeSource, error) {
	source := &models.RecurringIncomeSource{
		UserID:     userID,
		Name:       name,
		Amount:     amount,
		PeriodType: periodType,
		IsActive:   true,
	}
	if err := s.db.Create(source).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return source, nil
}

// UpdateIncomeSource updates a recurring income source template.
func (s *recurringService) UpdateIncomeSource(userID, sourceID uint, name *string, amount *int64, isActive *bool) (*models.RecurringIncomeSource, error) {
	var source models.RecurringIncomeSource
	if err := s.db.Where("id = ? AND user_id = ?", sourceID, userID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringSourceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = *name
	}
	if amount != nil {
		updates["amount"] = *amount
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&source).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &source, nil
}

// DeleteIncomeSource deletes a recurring income source template. Budgets
// populated from it keep their rows; only the origin reference goes stale.
func (s *recurringService) DeleteIncomeSource(userID, sourceID uint) error {
	var source models.RecurringIncomeSource
	if err := s.db.Where("id = ? AND user_id = ?", sourceID, userID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRecurringSourceNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Delete(&source).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListAllocations returns the user's recurring allocation templates.
func (s *recurringService) ListAllocations(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringBudgetAllocation], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringBudgetAllocation{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var allocations []models.RecurringBudgetAllocation
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Subcategory").
		Preload("Subcategory.Category").
		Order("id ASC").
		Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(allocations, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CreateAllocation creates a recurring allocation template after verifying
// the subcategory belongs to the user.
func (s *recurringService) CreateAllocation(userID, subcategoryID uint, allocatedAmount int64, periodType models.PeriodType) (*models.RecurringBudgetAllocation, error) {
	var count int64
	err := s.db.Model(&models.Subcategory{}).
		Joins("JOIN categories ON categories.id = subcategories.category_id").
		Where("subcategories.id = ? AND categories.user_id = ?", subcategoryID, userID).
		Count(&count).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrSubcategoryNotFound
	}

	allocation := &models.RecurringBudgetAllocation{
		UserID:          userID,
		SubcategoryID:   subcategoryID,
		AllocatedAmount: allocatedAmount,
		PeriodType:      periodType,
		IsActive:        true,
	}
	if err := s.db.Create(allocation).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return allocation, nil
}

// UpdateAllocation updates a recurring allocation template.
func (s *recurringService) UpdateAllocation(userID, allocationID uint, allocatedAmount *int64, isActive *bool) (*models.RecurringBudgetAllocation, error) {
	var allocation models.RecurringBudgetAllocation
	if err := s.db.Where("id = ? AND user_id = ?", allocationID, userID).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringAllocationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := make(map[string]interface{})
	if allocatedAmount != nil {
		updates["allocated_amount"] = *allocatedAmount
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&allocation).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &allocation, nil
}

// DeleteAllocation deletes a recurring allocation template.
func (s *recurringService) DeleteAllocation(userID, allocationID uint) error {
	var allocation models.RecurringBudgetAllocation
	if err := s.db.Where("id = ? AND user_id = ?", allocationID, userID).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRecurringAllocationNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Delete(&allocation).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
