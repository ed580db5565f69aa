package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/services"
)

const (
	recentTransactionsLimit = 5
	recentTransactionsDays  = 7
)

// DashboardHandler serves the overview page data.
type DashboardHandler struct {
	transactionService services.TransactionServicer
	budgetService      services.BudgetServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(transactionService services.TransactionServicer, budgetService services.BudgetServicer) *DashboardHandler {
	return &DashboardHandler{transactionService: transactionService, budgetService: budgetService}
}

// DashboardResponse bundles everything the dashboard shows.
type DashboardResponse struct {
	Stats              *services.DashboardStats `json:"stats"`
	Budgets            []models.Budget          `json:"budgets"`
	RecentTransactions []models.Transaction     `json:"recent_transactions"`
	GeneratedRecurring int                      `json:"generated_recurring"`
	ResetBudgets       int                      `json:"reset_budgets"`
}

// GetDashboard handles the dashboard request. Due recurring transactions are
// materialized and expired budgets reset before the numbers are read.
// @Summary     Get dashboard
// @Description Income, expenses, category spending, budget progress and recent transactions
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} DashboardResponse "Dashboard data"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
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

	now := time.Now().UTC()
	log := logger.Get()

	generated, err := h.transactionService.GenerateRecurringTransactions(userID, now)
	if err != nil {
		log.Warnw("failed to generate recurring transactions", "user_id", userID, "error", err)
	}

	reset, err := h.budgetService.ResetExpiredBudgets(userID, now)
	if err != nil {
		log.Warnw("failed to reset expired budgets", "user_id", userID, "error", err)
	}

	if _, err := h.budgetService.CheckAllBudgets(userID, now); err != nil {
		log.Warnw("failed to check budgets", "user_id", userID, "error", err)
	}

	stats, err := h.transactionService.GetDashboardStats(userID, from, to, now)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetBudgetsWithProgress(userID, nil, nil)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recent, err := h.transactionService.GetRecentTransactions(userID, now.AddDate(0, 0, -recentTransactionsDays), recentTransactionsLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		Stats:              stats,
		Budgets:            budgets,
		RecentTransactions: recent,
		GeneratedRecurring: len(generated),
		ResetBudgets:       reset,
	})
}
