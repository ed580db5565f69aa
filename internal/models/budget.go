package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodDaily     BudgetPeriod = "daily"
	BudgetPeriodWeekly    BudgetPeriod = "weekly"
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
	BudgetPeriodCustom    BudgetPeriod = "custom"
)

// BudgetStatus summarizes spending against the limit.
type BudgetStatus string

const (
	BudgetStatusOnTrack  BudgetStatus = "on_track"
	BudgetStatusWarning  BudgetStatus = "warning"
	BudgetStatusExceeded BudgetStatus = "exceeded"
)

// DefaultWarningThreshold is the percentage of the limit that triggers a warning.
const DefaultWarningThreshold = 80

// Budget represents a spending limit over a period, optionally scoped to a
// single category. A budget without a category applies to all expenses.
type Budget struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID       *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name             string          `gorm:"size:100;not null" json:"name"`
	Description      string          `gorm:"size:500" json:"description,omitempty"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Period           BudgetPeriod    `gorm:"not null" json:"period"`
	StartDate        time.Time       `gorm:"not null" json:"start_date"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	WarningThreshold int             `gorm:"not null" json:"warning_threshold"`
	NotifyOnExceed   bool            `gorm:"not null" json:"notify_on_exceed"`
	NotifyOnWarning  bool            `gorm:"not null" json:"notify_on_warning"`
	LastResetDate    *time.Time      `json:"last_reset_date,omitempty"`
	NextResetDate    *time.Time      `json:"next_reset_date,omitempty"`

	// Computed on read
	CurrentSpending decimal.Decimal `gorm:"-" json:"current_spending"`
	RemainingAmount decimal.Decimal `gorm:"-" json:"remaining_amount"`
	PercentageUsed  float64         `gorm:"-" json:"percentage_used"`
	Status          BudgetStatus    `gorm:"-" json:"status,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// ApplySpending fills the computed fields from the amount spent in the
// budget's window.
func (b *Budget) ApplySpending(spent decimal.Decimal) {
	b.CurrentSpending = spent
	b.RemainingAmount = b.Amount.Sub(spent)
	if b.Amount.IsPositive() {
		b.PercentageUsed = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	} else {
		b.PercentageUsed = 0
	}
	switch {
	case spent.GreaterThan(b.Amount):
		b.Status = BudgetStatusExceeded
	case b.PercentageUsed >= float64(b.WarningThreshold):
		b.Status = BudgetStatusWarning
	default:
		b.Status = BudgetStatusOnTrack
	}
}

// NotificationType classifies budget notifications.
type NotificationType string

const (
	NotificationTypeExceeded NotificationType = "exceeded"
	NotificationTypeWarning  NotificationType = "warning"
	NotificationTypeReset    NotificationType = "reset"
)

// BudgetNotification is an alert raised when a budget crosses its warning
// threshold, exceeds its limit, or is reset.
type BudgetNotification struct {
	Base
	UserID   string           `gorm:"type:uuid;not null;index" json:"user_id"`
	BudgetID string           `gorm:"type:uuid;not null;index" json:"budget_id"`
	Message  string           `gorm:"size:500;not null" json:"message"`
	Type     NotificationType `gorm:"not null" json:"type"`
	IsRead   bool             `gorm:"default:false" json:"is_read"`

	Budget *Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
}
