package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
)

// notificationDedupWindow suppresses repeat notifications of the same type
// for the same budget.
const notificationDedupWindow = 24 * time.Hour

// Warning threshold bounds, in percent of the budget amount.
const (
	minWarningThreshold = 50
	maxWarningThreshold = 95
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db                 *gorm.DB
	categoryService    CategoryServicer
	transactionService TransactionServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, categoryService CategoryServicer, transactionService TransactionServicer) BudgetServicer {
	return &budgetService{db: db, categoryService: categoryService, transactionService: transactionService}
}

// applyInput validates input and copies it onto budget, deriving the window
// and the next reset date.
func (s *budgetService) applyInput(userID string, budget *models.Budget, input BudgetInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !input.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !IsValidBudgetPeriod(input.Period) {
		return apperrors.ErrInvalidBudgetPeriod
	}
	if input.StartDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	threshold := input.WarningThreshold
	if threshold == 0 {
		threshold = models.DefaultWarningThreshold
	}
	if threshold < minWarningThreshold || threshold > maxWarningThreshold {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("warning threshold must be between %d and %d", minWarningThreshold, maxWarningThreshold))
	}

	var categoryID *string
	if input.CategoryID != nil && *input.CategoryID != "" {
		category, err := s.categoryService.GetCategoryByID(userID, *input.CategoryID)
		if err != nil {
			return err
		}
		if category.Type != models.TransactionTypeExpense {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "budgets can only track expense categories")
		}
		id := category.ID
		categoryID = &id
	}

	budget.Name = name
	budget.Description = input.Description
	budget.Amount = input.Amount.Round(2)
	budget.Period = input.Period
	budget.StartDate = input.StartDate
	budget.EndDate = nil
	if input.Period == models.BudgetPeriodCustom {
		budget.EndDate = input.EndDate
	}
	budget.CategoryID = categoryID
	budget.WarningThreshold = threshold
	budget.NotifyOnExceed = boolOrDefault(input.NotifyOnExceed, true)
	budget.NotifyOnWarning = boolOrDefault(input.NotifyOnWarning, true)

	SetDefaultDates(budget)
	if budget.EndDate != nil && budget.EndDate.Before(budget.StartDate) {
		return apperrors.ErrInvalidDateRange
	}
	budget.NextResetDate = NextResetDate(budget.Period, budget.StartDate)
	return nil
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// CreateBudget creates a new budget.
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	budget := &models.Budget{UserID: userID}
	if err := s.applyInput(userID, budget, input); err != nil {
		return nil, err
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.withSpending(budget)
}

// UpdateBudget replaces the writable fields of a budget.
func (s *budgetService) UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.applyInput(userID, budget, input); err != nil {
		return nil, err
	}

	budget.Category = nil
	if err := s.db.Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBudgetWithSpending(userID, budgetID)
}

// GetUserBudgets returns a paginated list of budgets with their current
// spending, optionally restricted to one period.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error) {
	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	result, err := pagination.Query[models.Budget](base, page, "name ASC", withCategory)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.fillSpending(result.Data, nil, nil); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetWithSpending returns a budget with its computed spending fields.
func (s *budgetService) GetBudgetWithSpending(userID, budgetID string) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.withSpending(budget)
}

func (s *budgetService) withSpending(budget *models.Budget) (*models.Budget, error) {
	spent, err := s.spentFor(budget, nil, nil)
	if err != nil {
		return nil, err
	}
	budget.ApplySpending(spent)
	return budget, nil
}

// DeleteBudget soft-deletes a budget and its notifications.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetNotification{}).Error; err != nil {
			return err
		}
		return tx.Delete(budget).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetActiveBudgets returns budgets whose window contains now, ordered by
// name, with their current spending.
func (s *budgetService) GetActiveBudgets(userID string, now time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)", userID, now, now).
		Order("name ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.fillSpending(budgets, nil, nil); err != nil {
		return nil, err
	}
	return budgets, nil
}

// GetBudgetsWithProgress returns every budget with spending measured over
// the override range, or each budget's own window when from/to are nil.
func (s *budgetService) GetBudgetsWithProgress(userID string, from, to *time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").Where("user_id = ?", userID).Order("name ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.fillSpending(budgets, from, to); err != nil {
		return nil, err
	}
	return budgets, nil
}

func (s *budgetService) fillSpending(budgets []models.Budget, from, to *time.Time) error {
	for i := range budgets {
		spent, err := s.spentFor(&budgets[i], from, to)
		if err != nil {
			return err
		}
		budgets[i].ApplySpending(spent)
	}
	return nil
}

// CalculateSpentAmount sums the expenses counted by the budget in the
// effective range: the override bounds when given, otherwise the budget's
// window. An unknown budget has spent nothing.
func (s *budgetService) CalculateSpentAmount(userID, budgetID string, from, to *time.Time) (decimal.Decimal, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBudgetNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return s.spentFor(budget, from, to)
}

// budgetFilter returns the transaction filter for the budget's effective range.
func budgetFilter(budget *models.Budget, from, to *time.Time) TransactionFilter {
	start := budget.StartDate
	if from != nil {
		start = *from
	}
	end := budget.EndDate
	if to != nil {
		end = to
	}
	expense := models.TransactionTypeExpense
	return TransactionFilter{FromDate: &start, ToDate: end, Type: &expense, CategoryID: budget.CategoryID}
}

func (s *budgetService) spentFor(budget *models.Budget, from, to *time.Time) (decimal.Decimal, error) {
	transactions, err := s.transactionService.GetTransactions(budget.UserID, budgetFilter(budget, from, to))
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, t := range transactions {
		if t.Type != models.TransactionTypeExpense {
			continue
		}
		if budget.CategoryID != nil && t.CategoryID != *budget.CategoryID {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

// GetBudgetSummary aggregates all budgets of the user. Status counts cover
// budgets active at now.
func (s *budgetService) GetBudgetSummary(userID string, now time.Time) (*BudgetSummary, error) {
	budgets, err := s.GetBudgetsWithProgress(userID, nil, nil)
	if err != nil {
		return nil, err
	}

	summary := &BudgetSummary{TotalBudgets: len(budgets)}
	for _, b := range budgets {
		summary.TotalBudgeted = summary.TotalBudgeted.Add(b.Amount)
		summary.TotalCurrentSpending = summary.TotalCurrentSpending.Add(b.CurrentSpending)

		if !isActiveAt(&b, now) {
			continue
		}
		summary.ActiveBudgets++
		switch b.Status {
		case models.BudgetStatusExceeded:
			summary.ExceededBudgets++
		case models.BudgetStatusWarning:
			summary.WarningBudgets++
		default:
			summary.OnTrackBudgets++
		}
	}
	summary.TotalRemaining = summary.TotalBudgeted.Sub(summary.TotalCurrentSpending)
	summary.OverallUsage = percentOf(summary.TotalCurrentSpending, summary.TotalBudgeted)
	return summary, nil
}

func isActiveAt(b *models.Budget, now time.Time) bool {
	if b.StartDate.After(now) {
		return false
	}
	return b.EndDate == nil || !b.EndDate.Before(now)
}

// GetBudgetTransactions returns the most recent expenses counted by the budget.
func (s *budgetService) GetBudgetTransactions(userID, budgetID string, limit int) ([]models.Transaction, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactionService.GetTransactions(userID, budgetFilter(budget, nil, nil))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(transactions) > limit {
		transactions = transactions[:limit]
	}
	return transactions, nil
}

// CheckBudgetStatus raises an exceeded or warning notification when the
// budget crossed the matching threshold and no notification of that type
// was raised in the previous 24 hours. It returns nil when nothing was raised.
func (s *budgetService) CheckBudgetStatus(userID, budgetID string, now time.Time) (*models.BudgetNotification, error) {
	budget, err := s.GetBudgetWithSpending(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.checkBudget(budget, now)
}

func (s *budgetService) checkBudget(budget *models.Budget, now time.Time) (*models.BudgetNotification, error) {
	var notifType models.NotificationType
	var message string

	switch {
	case budget.NotifyOnExceed && budget.CurrentSpending.GreaterThan(budget.Amount):
		notifType = models.NotificationTypeExceeded
		message = fmt.Sprintf("Budget %q exceeded: spent %s of %s (%.1f%%)",
			budget.Name, budget.CurrentSpending.StringFixed(2), budget.Amount.StringFixed(2), budget.PercentageUsed)
	case budget.NotifyOnWarning && budget.PercentageUsed >= float64(budget.WarningThreshold):
		notifType = models.NotificationTypeWarning
		message = fmt.Sprintf("Budget %q reached %.1f%% of its limit (warning at %d%%)",
			budget.Name, budget.PercentageUsed, budget.WarningThreshold)
	default:
		return nil, nil
	}

	return s.notify(budget, notifType, message, now)
}

// notify creates a notification unless one of the same type exists for the
// budget within the dedup window.
func (s *budgetService) notify(budget *models.Budget, notifType models.NotificationType, message string, now time.Time) (*models.BudgetNotification, error) {
	var recent int64
	if err := s.db.Model(&models.BudgetNotification{}).
		Where("budget_id = ? AND type = ? AND created_at >= ?", budget.ID, notifType, now.Add(-notificationDedupWindow)).
		Count(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if recent > 0 {
		return nil, nil
	}

	notification := &models.BudgetNotification{
		UserID:   budget.UserID,
		BudgetID: budget.ID,
		Message:  message,
		Type:     notifType,
	}
	notification.CreatedAt = now
	notification.UpdatedAt = now
	if err := s.db.Create(notification).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("budget notification",
		"user_id", budget.UserID,
		"budget_id", budget.ID,
		"type", notifType,
	)
	return notification, nil
}

// CheckAllBudgets runs CheckBudgetStatus over every budget active at now.
func (s *budgetService) CheckAllBudgets(userID string, now time.Time) ([]models.BudgetNotification, error) {
	budgets, err := s.GetActiveBudgets(userID, now)
	if err != nil {
		return nil, err
	}

	var raised []models.BudgetNotification
	for i := range budgets {
		n, err := s.checkBudget(&budgets[i], now)
		if err != nil {
			return raised, err
		}
		if n != nil {
			raised = append(raised, *n)
		}
	}
	return raised, nil
}

// ResetBudget starts a new window for the budget at now.
func (s *budgetService) ResetBudget(userID, budgetID string, now time.Time) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.reset(budget, now); err != nil {
		return nil, err
	}
	return s.GetBudgetWithSpending(userID, budgetID)
}

// ResetExpiredBudgets resets every budget whose next reset date has passed
// and returns how many were reset.
func (s *budgetService) ResetExpiredBudgets(userID string, now time.Time) (int, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND next_reset_date IS NOT NULL AND next_reset_date <= ?", userID, now).
		Find(&budgets).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		if err := s.reset(&budgets[i], now); err != nil {
			return i, err
		}
	}
	return len(budgets), nil
}

// reset moves the budget window to the one containing now. Custom budgets
// keep their length.
func (s *budgetService) reset(budget *models.Budget, now time.Time) error {
	if budget.Period == models.BudgetPeriodCustom && budget.EndDate != nil {
		length := budget.EndDate.Sub(budget.StartDate)
		end := now.Add(length)
		budget.EndDate = &end
	}
	budget.StartDate = now
	resetAt := now
	budget.LastResetDate = &resetAt
	SetDefaultDates(budget)
	budget.NextResetDate = NextResetDate(budget.Period, budget.StartDate)

	budget.Category = nil
	if err := s.db.Save(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	message := fmt.Sprintf("Budget %q was reset for the period starting %s", budget.Name, budget.StartDate.Format("2006-01-02"))
	if _, err := s.notify(budget, models.NotificationTypeReset, message, now); err != nil {
		return err
	}
	return nil
}

// GetNotifications returns the user's notifications, newest first.
func (s *budgetService) GetNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetNotification], error) {
	base := s.db.Model(&models.BudgetNotification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	result, err := pagination.Query[models.BudgetNotification](base, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// MarkNotificationRead flags a notification as read.
func (s *budgetService) MarkNotificationRead(userID, notificationID string) (*models.BudgetNotification, error) {
	var notification models.BudgetNotification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !notification.IsRead {
		if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		notification.IsRead = true
	}
	return &notification, nil
}
