package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"wealthwise/internal/config"
	"wealthwise/internal/database"
	"wealthwise/internal/handlers"
	"wealthwise/internal/logger"
	"wealthwise/internal/middleware"
	"wealthwise/internal/services"
	"wealthwise/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	recurringService := services.NewRecurringService(db)
	periodService := services.NewPeriodService(db, recurringService)
	budgetService := services.NewBudgetService(db, periodService)
	analyticsService := services.NewAnalyticsService(db, budgetService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	recurringHandler := handlers.NewRecurringHandler(recurringService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Budget period routes
	periods := protected.Group("/periods")
	periods.POST("", periodHandler.CreatePeriod)
	periods.GET("", periodHandler.ListPeriods)
	periods.GET("/active", periodHandler.GetActivePeriod)
	periods.PUT("/:id", periodHandler.UpdatePeriod)
	periods.PUT("/:id/activate", periodHandler.ActivatePeriod)
	periods.DELETE("/:id", periodHandler.DeletePeriod)

	// Active budget routes
	budget := protected.Group("/budget")
	budget.GET("", budgetHandler.GetBudget)
	budget.PUT("", budgetHandler.UpdateBudget)
	budget.POST("/income-sources", budgetHandler.AddIncomeSource)
	budget.PUT("/income-sources/:id", budgetHandler.UpdateIncomeSource)
	budget.DELETE("/income-sources/:id", budgetHandler.DeleteIncomeSource)
	budget.POST("/income-sources/recalculate", budgetHandler.RecalculateIncome)
	budget.PUT("/allocations", budgetHandler.SetAllocations)

	// Recurring template routes
	recurring := protected.Group("/recurring")
	recurring.GET("/income-sources", recurringHandler.ListIncomeSources)
	recurring.POST("/income-sources", recurringHandler.CreateIncomeSource)
	recurring.PUT("/income-sources/:id", recurringHandler.UpdateIncomeSource)
	recurring.DELETE("/income-sources/:id", recurringHandler.DeleteIncomeSource)
	recurring.GET("/allocations", recurringHandler.ListAllocations)
	recurring.POST("/allocations", recurringHandler.CreateAllocation)
	recurring.PUT("/allocations/:id", recurringHandler.UpdateAllocation)
	recurring.DELETE("/allocations/:id", recurringHandler.DeleteAllocation)

	// Analytics routes
	analytics := protected.Group("/analytics")
	analytics.GET("/overspending", analyticsHandler.CheckOverspending)
	analytics.GET("/balance", analyticsHandler.CheckBalance)
	analytics.POST("/cleanup-duplicates", analyticsHandler.CleanupDuplicateAllocations)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.POST("/:id/subcategories", categoryHandler.CreateSubcategory)
	protected.DELETE("/subcategories/:id", categoryHandler.DeleteSubcategory)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	log.Infof("Starting WealthWise backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
