// Package server wires services, handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "expensetracker/internal/docs" // swagger spec
	"expensetracker/internal/handlers"
	"expensetracker/internal/middleware"
	"expensetracker/internal/services"
)

// Options tunes router construction. A nil RateLimiter disables rate limiting.
type Options struct {
	RateLimiter *middleware.RateLimiter
	Swagger     bool
}

// NewRouter builds the API router over db.
func NewRouter(db *gorm.DB, opts Options) *gin.Engine {
	// Services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, categoryService)
	budgetService := services.NewBudgetService(db, categoryService, transactionService)
	reportService := services.NewReportService(transactionService, budgetService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, categoryService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	notificationHandler := handlers.NewNotificationHandler(budgetService)
	dashboardHandler := handlers.NewDashboardHandler(transactionService, budgetService)
	reportHandler := handlers.NewReportHandler(reportService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())
	if opts.RateLimiter != nil {
		router.Use(middleware.RateLimit(opts.RateLimiter))
	}

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/dashboard", dashboardHandler.GetDashboard)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/summary", transactionHandler.GetTransactionSummary)
	transactions.GET("/export", transactionHandler.ExportTransactions)
	transactions.GET("/suggest-category", transactionHandler.SuggestCategory)
	transactions.GET("/recurring", transactionHandler.GetRecurringTransactions)
	transactions.POST("/recurring/generate", transactionHandler.GenerateRecurringTransactions)
	transactions.POST("/bulk-delete", transactionHandler.BulkDeleteTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/summary", budgetHandler.GetBudgetSummary)
	budgets.GET("/active", budgetHandler.GetActiveBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/transactions", budgetHandler.GetBudgetTransactions)
	budgets.POST("/:id/check", budgetHandler.CheckBudget)
	budgets.POST("/:id/reset", budgetHandler.ResetBudget)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.PUT("/:id/read", notificationHandler.MarkNotificationRead)

	reports := protected.Group("/reports")
	reports.GET("/monthly", reportHandler.GetMonthlyReport)
	reports.GET("/yearly", reportHandler.GetYearlyReport)
	reports.GET("/custom", reportHandler.GetCustomReport)
	reports.GET("/monthly-summaries", reportHandler.GetMonthlySummaries)
	reports.GET("/categories", reportHandler.GetCategoryReport)
	reports.GET("/overview", reportHandler.GetOverview)

	return router
}
