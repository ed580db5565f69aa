package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{db: db, categoryService: categoryService}
}

// validateInput checks the invariants shared by create and update and
// returns the referenced category.
func (s *transactionService) validateInput(userID string, input TransactionInput) (*models.Category, error) {
	if input.Type != models.TransactionTypeExpense && input.Type != models.TransactionTypeIncome {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if input.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if input.CategoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if input.IsRecurring && input.RecurringType == nil {
		return nil, apperrors.ErrInvalidRecurrence
	}
	return s.categoryService.GetCategoryByID(userID, input.CategoryID)
}

func applyRecurrence(tx *models.Transaction, input TransactionInput) {
	tx.IsRecurring = input.IsRecurring
	if input.IsRecurring {
		tx.RecurringType = input.RecurringType
		tx.RecurringEndDate = input.RecurringEndDate
		return
	}
	tx.RecurringType = nil
	tx.RecurringEndDate = nil
}

// CreateTransaction records a new income or expense.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	category, err := s.validateInput(userID, input)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Type:        input.Type,
		Amount:      input.Amount.Round(2),
		Description: strings.TrimSpace(input.Description),
		Date:        input.Date,
		Notes:       input.Notes,
	}
	applyRecurrence(tx, input)

	if err := s.db.Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	tx.Category = category
	return tx, nil
}

// UpdateTransaction replaces the writable fields of a transaction.
func (s *transactionService) UpdateTransaction(userID, transactionID string, input TransactionInput) (*models.Transaction, error) {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	category, err := s.validateInput(userID, input)
	if err != nil {
		return nil, err
	}

	tx.CategoryID = category.ID
	tx.Category = category
	tx.Type = input.Type
	tx.Amount = input.Amount.Round(2)
	tx.Description = strings.TrimSpace(input.Description)
	tx.Date = input.Date
	tx.Notes = input.Notes
	applyRecurrence(tx, input)

	if err := s.db.Omit("Category").Save(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(tx).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteTransactions soft-deletes the given transactions of the user and
// returns how many were removed. Unknown ids are ignored.
func (s *transactionService) DeleteTransactions(userID string, transactionIDs []string) (int64, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}
	result := s.db.Where("user_id = ? AND id IN ?", userID, transactionIDs).Delete(&models.Transaction{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(description) LIKE ? OR LOWER(notes) LIKE ?)", like, like)
	}
	return q
}

// GetTransactions returns every transaction matching the filter, newest first.
func (s *transactionService) GetTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	var transactions []models.Transaction
	q := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)
	if err := q.Preload("Category").Order("date DESC, id DESC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetUserTransactions returns a page of the user's transactions matching the filter.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	result, err := pagination.Query[models.Transaction](base, page, "date DESC, id DESC", withCategory)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// withCategory preloads the owning category.
func withCategory(db *gorm.DB) *gorm.DB {
	return db.Preload("Category")
}

// GetRecentTransactions returns up to limit transactions dated on or after since.
func (s *transactionService) GetRecentTransactions(userID string, since time.Time, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Preload("Category").
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetTransactionSummary totals income and expenses over the filtered set.
func (s *transactionService) GetTransactionSummary(userID string, filter TransactionFilter) (*TransactionSummary, error) {
	transactions, err := s.GetTransactions(userID, filter)
	if err != nil {
		return nil, err
	}
	income, expenses := sumByType(transactions)
	return &TransactionSummary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetBalance:    income.Sub(expenses),
		Count:         len(transactions),
	}, nil
}

// GetRecurringTransactions returns the recurring series heads, newest first.
func (s *transactionService) GetRecurringTransactions(userID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Preload("Category").
		Where("user_id = ? AND is_recurring = ?", userID, true).
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// sumByType returns the income and expense totals of transactions.
func sumByType(transactions []models.Transaction) (income, expenses decimal.Decimal) {
	for _, t := range transactions {
		switch t.Type {
		case models.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case models.TransactionTypeExpense:
			expenses = expenses.Add(t.Amount)
		}
	}
	return income, expenses
}
