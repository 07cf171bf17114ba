package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"wealthwise/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestSubcategory creates a subcategory under the given category.
func CreateTestSubcategory(t *testing.T, db *gorm.DB, categoryID uint) *models.Subcategory {
	t.Helper()

	subcategory := &models.Subcategory{
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Test Subcategory %d", nextID()),
	}
	if err := db.Create(subcategory).Error; err != nil {
		t.Fatalf("failed to create test subcategory: %v", err)
	}
	return subcategory
}

// CreateTestPeriod creates an active monthly period covering the current month.
func CreateTestPeriod(t *testing.T, db *gorm.DB, userID uint) *models.BudgetPeriod {
	t.Helper()

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return CreateTestPeriodWithRange(t, db, userID, models.PeriodTypeMonthly, start, start.AddDate(0, 1, -1))
}

// CreateTestPeriodWithRange creates an active period with the given type and range.
func CreateTestPeriodWithRange(t *testing.T, db *gorm.DB, userID uint, periodType models.PeriodType, start, end time.Time) *models.BudgetPeriod {
	t.Helper()

	period := &models.BudgetPeriod{
		UserID:     userID,
		Name:       fmt.Sprintf("Test Period %d", nextID()),
		PeriodType: periodType,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestBudget creates a budget for the given period with the given
// total income (in cents).
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, periodID uint, totalIncome int64) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		PeriodID:    periodID,
		UserID:      userID,
		TotalIncome: totalIncome,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestAllocation creates a budget allocation (amount in cents).
func CreateTestAllocation(t *testing.T, db *gorm.DB, budgetID, subcategoryID uint, amount int64) *models.BudgetAllocation {
	t.Helper()

	allocation := &models.BudgetAllocation{
		BudgetID:        budgetID,
		SubcategoryID:   subcategoryID,
		AllocatedAmount: amount,
	}
	if err := db.Create(allocation).Error; err != nil {
		t.Fatalf("failed to create test allocation: %v", err)
	}
	return allocation
}

// CreateTestIncomeSource creates an income source on the given budget.
func CreateTestIncomeSource(t *testing.T, db *gorm.DB, budgetID uint, amount int64) *models.IncomeSource {
	t.Helper()

	source := &models.IncomeSource{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Income %d", nextID()),
		Amount:   amount,
	}
	if err := db.Create(source).Error; err != nil {
		t.Fatalf("failed to create test income source: %v", err)
	}
	return source
}

// CreateTestTransaction creates a transaction with the given signed amount
// (in cents) on the given date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, subcategoryID uint, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:        userID,
		SubcategoryID: subcategoryID,
		Amount:        amount,
		Date:          date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringIncome creates an active recurring income template.
func CreateTestRecurringIncome(t *testing.T, db *gorm.DB, userID uint, amount int64, periodType models.PeriodType) *models.RecurringIncomeSource {
	t.Helper()

	source := &models.RecurringIncomeSource{
		UserID:     userID,
		Name:       fmt.Sprintf("Test Recurring Income %d", nextID()),
		Amount:     amount,
		PeriodType: periodType,
		IsActive:   true,
	}
	if err := db.Create(source).Error; err != nil {
		t.Fatalf("failed to create test recurring income source: %v", err)
	}
	return source
}

// CreateTestRecurringAllocation creates an active recurring allocation template.
func CreateTestRecurringAllocation(t *testing.T, db *gorm.DB, userID, subcategoryID uint, amount int64, periodType models.PeriodType) *models.RecurringBudgetAllocation {
	t.Helper()

	allocation := &models.RecurringBudgetAllocation{
		UserID:          userID,
		SubcategoryID:   subcategoryID,
		AllocatedAmount: amount,
		PeriodType:      periodType,
		IsActive:        true,
	}
	if err := db.Create(allocation).Error; err != nil {
		t.Fatalf("failed to create test recurring allocation: %v", err)
	}
	return allocation
}
