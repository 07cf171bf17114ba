package services

import (
	"time"

	"gorm.io/gorm"

	"wealthwise/internal/models"
	"wealthwise/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
	CreateSubcategory(userID, categoryID uint, name string) (*models.Subcategory, error)
	GetSubcategoryByID(userID, subcategoryID uint) (*models.Subcategory, error)
	DeleteSubcategory(userID, subcategoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	SubcategoryID *uint
}

// TransactionServicer defines the contract for the append-only ledger of
// signed amounts. The budgeting core only ever reads it; rows are written
// and removed through this service alone (and by period deletion).
type TransactionServicer interface {
	CreateTransaction(userID, subcategoryID uint, amount int64, description, comment string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// PeriodServicer defines the contract for budget period lifecycle management.
type PeriodServicer interface {
	CreatePeriod(userID uint, name string, periodType models.PeriodType, start, end time.Time) (*models.BudgetPeriod, error)
	// CreatePeriodTx is the in-transaction variant used when period creation
	// is one step of a larger atomic operation.
	CreatePeriodTx(tx *gorm.DB, userID uint, name string, periodType models.PeriodType, start, end time.Time) (*models.BudgetPeriod, error)
	ActivatePeriod(userID, periodID uint) (*models.BudgetPeriod, error)
	UpdatePeriod(userID, periodID uint, update PeriodUpdate) (*models.BudgetPeriod, error)
	DeletePeriod(userID, periodID uint) error
	GetActivePeriod(userID uint, periodType models.PeriodType) (*models.BudgetPeriod, error)
	ListPeriods(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error)
}

// PeriodUpdate holds the optional fields of a partial period update.
type PeriodUpdate struct {
	Name       *string
	PeriodType *models.PeriodType
	StartDate  *time.Time
	EndDate    *time.Time
}

// AllocationEntry is one requested subcategory allocation in a bulk
// replacement. AllocatedAmount is minor units (cents).
type AllocationEntry struct {
	SubcategoryID   uint  `json:"subcategory_id" binding:"required"`
	AllocatedAmount int64 `json:"allocated_amount"`
}

// PeriodInfo is the period metadata embedded in a budget snapshot.
type PeriodInfo struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"`
	PeriodType models.PeriodType `json:"period_type"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
}

// BudgetSnapshot is the full state of the active budget: the period it
// belongs to, its rows, and the derived totals. All amounts are minor units.
type BudgetSnapshot struct {
	BudgetID              uint                      `json:"budget_id"`
	Period                PeriodInfo                `json:"period"`
	IncomeSources         []models.IncomeSource     `json:"income_sources"`
	Allocations           []models.BudgetAllocation `json:"allocations"`
	TotalIncome           int64                     `json:"total_income"`
	BalanceBroughtForward int64                     `json:"balance_brought_forward"`
	Available             int64                     `json:"available"`
	TotalAllocated        int64                     `json:"total_allocated"`
	Balance               int64                     `json:"balance"`
}

// BudgetServicer defines the contract for the active budget's bookkeeping:
// income sources, allocations, and the cached income total.
type BudgetServicer interface {
	GetSnapshot(userID uint) (*BudgetSnapshot, error)
	GetActiveBudget(userID uint) (*models.Budget, *models.BudgetPeriod, error)
	UpdateBudgetFields(userID uint, totalIncome, balanceBroughtForward *int64) (*models.Budget, error)
	AddIncomeSource(userID uint, name string, amount int64) (*models.IncomeSource, error)
	UpdateIncomeSource(userID, sourceID uint, name *string, amount *int64) (*models.IncomeSource, error)
	DeleteIncomeSource(userID, sourceID uint) error
	RecalculateTotalIncome(userID uint) (int64, error)
	SetAllocations(userID uint, entries []AllocationEntry) error
}

// RecurringServicer defines the contract for recurring template management
// and for seeding a freshly created budget from matching templates.
type RecurringServicer interface {
	// PopulateBudget copies the owner's active templates with a matching
	// period type into the budget, then recomputes its income total. It is a
	// no-op when the budget already holds income sources or allocations.
	// The caller supplies the transaction the population runs in.
	PopulateBudget(tx *gorm.DB, userID uint, budget *models.Budget, periodType models.PeriodType) error

	ListIncomeSources(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringIncomeSource], error)
	CreateIncomeSource(userID uint, name string, amount int64, periodType models.PeriodType) (*models.RecurringIncomeSource, error)
	UpdateIncomeSource(userID, sourceID uint, name *string, amount *int64, isActive *bool) (*models.RecurringIncomeSource, error)
	DeleteIncomeSource(userID, sourceID uint) error

	ListAllocations(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringBudgetAllocation], error)
	CreateAllocation(userID, subcategoryID uint, allocatedAmount int64, periodType models.PeriodType) (*models.RecurringBudgetAllocation, error)
	UpdateAllocation(userID, allocationID uint, allocatedAmount *int64, isActive *bool) (*models.RecurringBudgetAllocation, error)
	DeleteAllocation(userID, allocationID uint) error
}

// OverspendEntry reports one subcategory whose in-period spend exceeds its
// allocation.
type OverspendEntry struct {
	SubcategoryID       uint    `json:"subcategory_id"`
	SubcategoryName     string  `json:"subcategory_name"`
	CategoryName        string  `json:"category_name"`
	AllocatedAmount     int64   `json:"allocated_amount"`
	TotalSpent          int64   `json:"total_spent"`
	OverspentAmount     int64   `json:"overspent_amount"`
	OverspentPercentage float64 `json:"overspent_percentage"`
}

// OverspendReport is the result of an overspending check over the active
// period, sorted by overspent amount descending.
type OverspendReport struct {
	Overspending    []OverspendEntry `json:"overspending"`
	Count           int              `json:"count"`
	HasOverspending bool             `json:"has_overspending"`
}

// BalanceReport is the advisory income-versus-allocation check for the
// active budget. It never blocks anything; contrast with SetAllocations,
// which rejects over-allocation outright.
type BalanceReport struct {
	Available      int64 `json:"available"`
	TotalAllocated int64 `json:"total_allocated"`
	Balance        int64 `json:"balance"`
	Deficit        int64 `json:"deficit"`
	IsBalanced     bool  `json:"is_balanced"`
}

// AnalyticsServicer defines the contract for read-only budget analytics and
// the duplicate-allocation remediation utility.
type AnalyticsServicer interface {
	CheckOverspending(userID uint) (*OverspendReport, error)
	CheckBalance(userID uint) (*BalanceReport, error)
	CleanupDuplicateAllocations(userID uint) (int, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}
