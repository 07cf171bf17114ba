package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
)

// categoryService handles category and subcategory business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID uint, name string) (*models.Category, error) {
	// Validate input
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	// Check if a category with the same name already exists for this user
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user,
// with their subcategories preloaded.
func (s *categoryService) GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Preload("Subcategories").
		Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.Preload("Subcategories").
		Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames an existing category
func (s *categoryService) UpdateCategory(userID, categoryID uint, name string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(category).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory deletes a category and its subcategories. It fails when any
// subcategory is still referenced by a transaction, allocation, or recurring
// template, so historical records never lose their labels.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var subcategoryIDs []uint
		if err := tx.Model(&models.Subcategory{}).
			Where("category_id = ?", categoryID).
			Pluck("id", &subcategoryIDs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if len(subcategoryIDs) > 0 {
			inUse, err := s.subcategoriesInUse(tx, subcategoryIDs)
			if err != nil {
				return err
			}
			if inUse {
				return apperrors.ErrSubcategoryInUse
			}
			if err := tx.Where("category_id = ?", categoryID).Delete(&models.Subcategory{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// CreateSubcategory creates a subcategory under one of the user's categories.
func (s *categoryService) CreateSubcategory(userID, categoryID uint, name string) (*models.Subcategory, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory name is required")
	}

	// Parent must exist and belong to the user.
	if _, err := s.GetCategoryByID(userID, categoryID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Subcategory{}).
		Where("category_id = ? AND name = ?", categoryID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory with this name already exists")
	}

	subcategory := &models.Subcategory{
		CategoryID: categoryID,
		Name:       name,
	}
	if err := s.db.Create(subcategory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subcategory, nil
}

// GetSubcategoryByID retrieves a subcategory, checking ownership through its
// parent category.
func (s *categoryService) GetSubcategoryByID(userID, subcategoryID uint) (*models.Subcategory, error) {
	var subcategory models.Subcategory
	err := s.db.Joins("JOIN categories ON categories.id = subcategories.category_id").
		Where("subcategories.id = ? AND categories.user_id = ?", subcategoryID, userID).
		Preload("Category").
		First(&subcategory).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &subcategory, nil
}

// DeleteSubcategory deletes a subcategory unless it is still referenced.
func (s *categoryService) DeleteSubcategory(userID, subcategoryID uint) error {
	subcategory, err := s.GetSubcategoryByID(userID, subcategoryID)
	if err != nil {
		return err
	}

	inUse, err := s.subcategoriesInUse(s.db, []uint{subcategoryID})
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.ErrSubcategoryInUse
	}

	if err := s.db.Delete(subcategory).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// subcategoriesInUse reports whether any of the given subcategories is
// referenced by a transaction, budget allocation, or recurring template.
func (s *categoryService) subcategoriesInUse(tx *gorm.DB, ids []uint) (bool, error) {
	referencing := []any{
		&models.Transaction{},
		&models.BudgetAllocation{},
		&models.RecurringBudgetAllocation{},
	}
	for _, model := range referencing {
		var count int64
		if err := tx.Model(model).Where("subcategory_id IN ?", ids).Count(&count).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
