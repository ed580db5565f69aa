package main

import (
	"fmt"
	"os"

	"expensetracker/internal/config"
	"expensetracker/internal/database"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/server"
)

// @title           Expense Tracker API
// @version         1.0
// @description     Personal expense tracking: transactions, categories, budgets with threshold alerts, dashboards and financial reports.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.Get()

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	rl := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rl.Stop()

	router := server.NewRouter(dbManager.DB(), server.Options{
		RateLimiter: rl,
		Swagger:     true,
	})

	log.Infow("Starting expense tracker server", "port", cfg.Port, "driver", dbManager.Driver())
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
	return router.Run(":" + cfg.Port)
}
