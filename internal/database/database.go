// Package database opens the GORM connection and manages the schema.
package database

import (
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/config"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported values of DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	driver string
	dsn    string
}

// PostgresDSN returns the key/value connection string used by GORM.
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

// PostgresURL returns the URL form used by golang-migrate.
func PostgresURL(cfg *config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
}

// NewManager creates a new database manager for the configured driver.
func NewManager(cfg *config.Config) (*Manager, error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return &Manager{db: db, driver: DriverSQLite, dsn: cfg.SQLitePath}, nil

	case DriverPostgres, "":
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  PostgresDSN(cfg),
			PreferSimpleProtocol: true,
		}), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying DB: %w", err)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)

		return &Manager{db: db, driver: DriverPostgres, dsn: PostgresURL(cfg)}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Migrate brings the schema up to date. PostgreSQL uses the embedded SQL
// migrations; SQLite is auto-migrated from the models.
func (m *Manager) Migrate() error {
	if m.driver == DriverSQLite {
		logger.Get().Info("Auto-migrating sqlite schema...")
		return AutoMigrate(m.db)
	}
	return m.RunMigrations()
}

// AutoMigrate creates or updates all tables from the model definitions.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.Budget{},
		&models.BudgetNotification{},
		&models.AuditLog{},
	)
}

// NewMigrator returns a golang-migrate instance reading the embedded SQL files.
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	mig, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

// CloseMigrator closes both ends of a migrate instance, logging failures.
func CloseMigrator(mig *migrate.Migrate) {
	srcErr, dbErr := mig.Close()
	if srcErr != nil {
		logger.Get().Warnf("migrate source close error: %v", srcErr)
	}
	if dbErr != nil {
		logger.Get().Warnf("migrate database close error: %v", dbErr)
	}
}

// RunMigrations applies pending SQL migrations.
func (m *Manager) RunMigrations() error {
	logger.Get().Info("Running database migrations...")

	mig, err := NewMigrator(m.dsn)
	if err != nil {
		return err
	}
	defer CloseMigrator(mig)

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Driver reports which database driver the manager was opened with.
func (m *Manager) Driver() string {
	return m.driver
}
