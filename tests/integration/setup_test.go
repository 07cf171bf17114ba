package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"wealthwise/internal/handlers"
	"wealthwise/internal/logger"
	"wealthwise/internal/middleware"
	"wealthwise/internal/models"
	"wealthwise/internal/services"
	"wealthwise/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Subcategory{},
		&models.Transaction{},
		&models.BudgetPeriod{},
		&models.Budget{},
		&models.BudgetAllocation{},
		&models.IncomeSource{},
		&models.RecurringIncomeSource{},
		&models.RecurringBudgetAllocation{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	recurringService := services.NewRecurringService(db)
	periodService := services.NewPeriodService(db, recurringService)
	budgetService := services.NewBudgetService(db, periodService)
	analyticsService := services.NewAnalyticsService(db, budgetService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	recurringHandler := handlers.NewRecurringHandler(recurringService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	periods := protected.Group("/periods")
	periods.POST("", periodHandler.CreatePeriod)
	periods.GET("", periodHandler.ListPeriods)
	periods.GET("/active", periodHandler.GetActivePeriod)
	periods.PUT("/:id", periodHandler.UpdatePeriod)
	periods.PUT("/:id/activate", periodHandler.ActivatePeriod)
	periods.DELETE("/:id", periodHandler.DeletePeriod)

	budget := protected.Group("/budget")
	budget.GET("", budgetHandler.GetBudget)
	budget.PUT("", budgetHandler.UpdateBudget)
	budget.POST("/income-sources", budgetHandler.AddIncomeSource)
	budget.PUT("/income-sources/:id", budgetHandler.UpdateIncomeSource)
	budget.DELETE("/income-sources/:id", budgetHandler.DeleteIncomeSource)
	budget.POST("/income-sources/recalculate", budgetHandler.RecalculateIncome)
	budget.PUT("/allocations", budgetHandler.SetAllocations)

	recurring := protected.Group("/recurring")
	recurring.GET("/income-sources", recurringHandler.ListIncomeSources)
	recurring.POST("/income-sources", recurringHandler.CreateIncomeSource)
	recurring.PUT("/income-sources/:id", recurringHandler.UpdateIncomeSource)
	recurring.DELETE("/income-sources/:id", recurringHandler.DeleteIncomeSource)
	recurring.GET("/allocations", recurringHandler.ListAllocations)
	recurring.POST("/allocations", recurringHandler.CreateAllocation)
	recurring.PUT("/allocations/:id", recurringHandler.UpdateAllocation)
	recurring.DELETE("/allocations/:id", recurringHandler.DeleteAllocation)

	analytics := protected.Group("/analytics")
	analytics.GET("/overspending", analyticsHandler.CheckOverspending)
	analytics.GET("/balance", analyticsHandler.CheckBalance)
	analytics.POST("/cleanup-duplicates", analyticsHandler.CleanupDuplicateAllocations)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.POST("/:id/subcategories", categoryHandler.CreateSubcategory)
	protected.DELETE("/subcategories/:id", categoryHandler.DeleteSubcategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser logs in an existing user and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createSubcategory creates a category with one subcategory and returns the subcategory ID.
func (app *testApp) createSubcategory(t *testing.T, token, categoryName, subcategoryName string) float64 {
	t.Helper()
	rec := app.request("POST", "/api/v1/categories", fmt.Sprintf(`{"name":%q}`, categoryName), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	categoryID := category["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/categories/%.0f/subcategories", categoryID),
		fmt.Sprintf(`{"name":%q}`, subcategoryName), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create subcategory failed: %d %s", rec.Code, rec.Body.String())
	}
	sub := parseJSON(t, rec)["subcategory"].(map[string]interface{})
	return sub["id"].(float64)
}

// createPeriod creates a budget period and returns its ID.
func (app *testApp) createPeriod(t *testing.T, token, name, periodType, start, end string) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"period_type":%q,"start_date":%q,"end_date":%q}`, name, periodType, start, end)
	rec := app.request("POST", "/api/v1/periods", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create period failed: %d %s", rec.Code, rec.Body.String())
	}
	period := parseJSON(t, rec)["period"].(map[string]interface{})
	return period["id"].(float64)
}
