package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/services"
)

const (
	defaultBudgetTransactionsLimit = 20
	maxBudgetTransactionsLimit     = 100
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// BudgetRequest represents the request payload for creating or updating a budget.
// Fixed periods derive the window from start_date; end_date only applies to
// custom budgets.
type BudgetRequest struct {
	Name             string              `json:"name" binding:"required,min=1,max=100"`
	Description      string              `json:"description" binding:"max=500"`
	Amount           decimal.Decimal     `json:"amount" swaggertype:"string" example:"500.00" binding:"required,gt=0"`
	Period           models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate        string              `json:"start_date" binding:"required" example:"2025-03-01"`
	EndDate          *string             `json:"end_date"`
	CategoryID       *string             `json:"category_id" binding:"omitempty,uuid"`
	WarningThreshold int                 `json:"warning_threshold" binding:"omitempty,min=50,max=95"`
	NotifyOnExceed   *bool               `json:"notify_on_exceed"`
	NotifyOnWarning  *bool               `json:"notify_on_warning"`
}

func (r *BudgetRequest) toInput() (services.BudgetInput, error) {
	input := services.BudgetInput{
		Name:             r.Name,
		Description:      r.Description,
		Amount:           r.Amount,
		Period:           r.Period,
		CategoryID:       r.CategoryID,
		WarningThreshold: r.WarningThreshold,
		NotifyOnExceed:   r.NotifyOnExceed,
		NotifyOnWarning:  r.NotifyOnWarning,
	}
	start, err := parseFlexibleTime(r.StartDate)
	if err != nil {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	input.StartDate = start
	if r.EndDate != nil && *r.EndDate != "" {
		end, err := parseRangeEnd(*r.EndDate)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.EndDate = &end
	}
	return input, nil
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget, optionally scoped to one expense category
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "amount": budget.Amount.StringFixed(2), "period": budget.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     Get budgets
// @Description Get a paginated list of budgets with their current spending
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       period    query string false "Filter by period (daily, weekly, monthly, quarterly, yearly, custom)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	var period *models.BudgetPeriod
	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		if !services.IsValidBudgetPeriod(p) {
			respondWithError(c, apperrors.ErrInvalidBudgetPeriod)
			return
		}
		period = &p
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get a specific budget with its current spending
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetWithSpending(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Replace the fields of an existing budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Budget ID"
// @Param       request body BudgetRequest true "Budget details"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "amount": budget.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a budget by ID (soft delete)
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetBudgetSummary handles the aggregate over all budgets.
// @Summary     Get budget summary
// @Description Totals and status counts across the user's budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetSummary "Budget summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/summary [get]
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetBudgetSummary(userID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetActiveBudgets handles listing budgets whose window contains today.
// @Summary     Get active budgets
// @Description List budgets whose window contains the current time
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Budget "Active budgets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/active [get]
func (h *BudgetHandler) GetActiveBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetActiveBudgets(userID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudgetTransactions handles listing the expenses counted by a budget.
// @Summary     Get budget transactions
// @Description List the most recent expenses inside the budget's window
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string true  "Budget ID"
// @Param       limit query int    false "Maximum number of transactions (default 20, max 100)"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/transactions [get]
func (h *BudgetHandler) GetBudgetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := defaultBudgetTransactionsLimit
	if v := c.Query("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > maxBudgetTransactionsLimit {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	transactions, err := h.budgetService.GetBudgetTransactions(userID, budgetID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// CheckBudget handles evaluating a budget's thresholds.
// @Summary     Check budget status
// @Description Raise an exceeded or warning notification when a threshold is crossed. The notification is null when nothing was raised.
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.BudgetNotification "Raised notification"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/check [post]
func (h *BudgetHandler) CheckBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	notification, err := h.budgetService.CheckBudgetStatus(userID, budgetID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// ResetBudget handles starting a new budget window now.
// @Summary     Reset budget
// @Description Start a new window for the budget at the current time
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Reset budget"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/reset [post]
func (h *BudgetHandler) ResetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.ResetBudget(userID, budgetID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionReset, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}
