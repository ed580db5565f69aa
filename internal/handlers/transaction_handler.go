package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/services"
	"expensetracker/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest represents the request payload for creating or updating a transaction.
type TransactionRequest struct {
	CategoryID       string                 `json:"category_id" binding:"required,uuid"`
	Type             models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount           decimal.Decimal        `json:"amount" swaggertype:"string" example:"12.50" binding:"required,gt=0"`
	Description      string                 `json:"description" binding:"required,max=100"`
	Date             *string                `json:"date" example:"2025-03-15"`
	Notes            string                 `json:"notes" binding:"max=500"`
	IsRecurring      bool                   `json:"is_recurring"`
	RecurringType    *models.RecurringType  `json:"recurring_type" binding:"omitempty,recurring_type"`
	RecurringEndDate *string                `json:"recurring_end_date"`
}

// BulkDeleteRequest lists the transactions to delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
}

// toInput converts the request into service input. A missing date means now.
func (r *TransactionRequest) toInput() (services.TransactionInput, error) {
	input := services.TransactionInput{
		CategoryID:    r.CategoryID,
		Type:          r.Type,
		Amount:        r.Amount,
		Description:   r.Description,
		Date:          time.Now(),
		Notes:         r.Notes,
		IsRecurring:   r.IsRecurring,
		RecurringType: r.RecurringType,
	}
	if r.Date != nil && *r.Date != "" {
		parsed, err := parseFlexibleTime(*r.Date)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.Date = parsed
	}
	if r.RecurringEndDate != nil && *r.RecurringEndDate != "" {
		parsed, err := parseRangeEnd(*r.RecurringEndDate)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.RecurringEndDate = &parsed
	}
	return input, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record a new income or expense
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": transaction.Amount.StringFixed(2), "category_id": req.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions handles the retrieval of all transactions for the authenticated user
// @Summary     Get user transactions
// @Description Get a paginated list of transactions, newest first, with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       from_date   query string false "Filter by start date (RFC3339 e.g. 2024-01-01T00:00:00Z, or YYYY-MM-DD)"
// @Param       to_date     query string false "Filter by end date (RFC3339 or YYYY-MM-DD, inclusive)"
// @Param       type        query string false "Filter by transaction type (income, expense)"
// @Param       category_id query string false "Filter by category ID"
// @Param       search      query string false "Case-insensitive match on description or notes"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	from, to, err := parseDateRange(c, "from_date", "to_date")
	if err != nil {
		return filter, err
	}
	filter.FromDate = from
	filter.ToDate = to

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense")
		}
	}

	if v := c.Query("category_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = &v
	}

	filter.Search = c.Query("search")
	return filter, nil
}

// GetTransactionSummary handles totals over the filtered transactions
// @Summary     Get transaction summary
// @Description Total income, expenses and net balance over the filtered transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Filter by start date"
// @Param       to_date     query string false "Filter by end date"
// @Param       type        query string false "Filter by transaction type"
// @Param       category_id query string false "Filter by category ID"
// @Param       search      query string false "Case-insensitive match on description or notes"
// @Success     200 {object} services.TransactionSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetTransactionSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.GetTransactionSummary(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Replace the fields of an existing transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, txID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "transaction", txID, c.ClientIP(),
		map[string]interface{}{"amount": transaction.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// BulkDeleteTransactions handles deleting several transactions at once
// @Summary     Bulk delete transactions
// @Description Delete the listed transactions. IDs that do not belong to the user are ignored.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkDeleteRequest true "Transaction IDs"
// @Success     200 {object} map[string]int64 "Number of deleted transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	deleted, err := h.transactionService.DeleteTransactions(userID, req.IDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "transaction", "", c.ClientIP(),
		map[string]interface{}{"ids": req.IDs, "deleted": deleted})

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ExportTransactions handles CSV export
// @Summary     Export transactions
// @Description Download the user's transactions in the optional range as CSV
// @Tags        transactions
// @Produce     text/csv
// @Security    BearerAuth
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD, inclusive)"
// @Success     200 {file} file "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := parseDateRange(c, "from_date", "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.transactionService.ExportCSV(&buf, userID, from, to); err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// SuggestCategory handles keyword-based category suggestion
// @Summary     Suggest a category
// @Description Suggest a category for a transaction description. The category is null when nothing matches.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       description query string true "Transaction description"
// @Success     200 {object} models.Category "Suggested category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/suggest-category [get]
func (h *TransactionHandler) SuggestCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.transactionService.SuggestCategory(userID, c.Query("description"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// GetRecurringTransactions handles listing recurring series
// @Summary     Get recurring transactions
// @Description List the transactions that currently drive a recurring series
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Transaction "Recurring transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/recurring [get]
func (h *TransactionHandler) GetRecurringTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.GetRecurringTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GenerateRecurringTransactions handles materializing due recurring transactions
// @Summary     Generate recurring transactions
// @Description Create today's instance of every recurring series that is due
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Transaction "Generated transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/recurring/generate [post]
func (h *TransactionHandler) GenerateRecurringTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	created, err := h.transactionService.GenerateRecurringTransactions(userID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if created == nil {
		created = []models.Transaction{}
	}

	for _, t := range created {
		h.auditService.Log(userID, services.AuditActionCreate, "transaction", t.ID, c.ClientIP(),
			map[string]interface{}{"recurring": true})
	}

	c.JSON(http.StatusOK, gin.H{"transactions": created, "count": len(created)})
}
