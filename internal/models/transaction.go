package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// RecurringType is the repeat interval of a recurring transaction.
type RecurringType string

const (
	RecurringTypeDaily   RecurringType = "daily"
	RecurringTypeWeekly  RecurringType = "weekly"
	RecurringTypeMonthly RecurringType = "monthly"
	RecurringTypeYearly  RecurringType = "yearly"
)

// Transaction represents a financial transaction in the system
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Description string          `gorm:"size:100;not null" json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Notes       string          `gorm:"size:500" json:"notes,omitempty"`

	// Recurrence
	IsRecurring      bool           `gorm:"default:false" json:"is_recurring"`
	RecurringType    *RecurringType `json:"recurring_type,omitempty"`
	RecurringEndDate *time.Time     `json:"recurring_end_date,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
