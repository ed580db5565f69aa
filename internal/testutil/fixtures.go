package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"expensetracker/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Amount parses a decimal literal, failing loudly on typos in test data.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
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

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.TransactionType, keywords ...string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		Icon:     models.DefaultCategoryIcon,
		Color:    models.DefaultCategoryColor,
		Keywords: keywords,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type, amount and date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, categoryID string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        txType,
		Amount:      Amount(amount),
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction creates a recurring expense with the given interval.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID, categoryID string, recurring models.RecurringType, date time.Time, endDate *time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:           userID,
		CategoryID:       categoryID,
		Type:             models.TransactionTypeExpense,
		Amount:           Amount("15.99"),
		Description:      fmt.Sprintf("Subscription %d", nextID()),
		Date:             date,
		IsRecurring:      true,
		RecurringType:    &recurring,
		RecurringEndDate: endDate,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a monthly budget for March 2025. A nil categoryID
// makes it apply to all expenses.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, categoryID *string, amount string) *models.Budget {
	t.Helper()

	end := time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC)
	budget := &models.Budget{
		UserID:           userID,
		CategoryID:       categoryID,
		Name:             fmt.Sprintf("Test Budget %d", nextID()),
		Amount:           Amount(amount),
		Period:           models.BudgetPeriodMonthly,
		StartDate:        Date(2025, time.March, 1),
		EndDate:          &end,
		WarningThreshold: models.DefaultWarningThreshold,
		NotifyOnExceed:   true,
		NotifyOnWarning:  true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
