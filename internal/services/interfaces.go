package services

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	RecordLogin(userID string, at time.Time) error
}

// CategoryInput carries the writable fields of a category. On update, empty
// strings and a nil Keywords slice leave the stored value unchanged.
type CategoryInput struct {
	Name        string
	Type        models.TransactionType
	Description string
	Icon        string
	Color       string
	Keywords    []string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID string, input CategoryInput) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID string, categoryType models.TransactionType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetAllCategories(userID string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, input CategoryInput) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
	SeedDefaultCategories(userID string) (int, error)
}

// TransactionInput carries the writable fields of a transaction.
type TransactionInput struct {
	CategoryID       string
	Type             models.TransactionType
	Amount           decimal.Decimal
	Description      string
	Date             time.Time
	Notes            string
	IsRecurring      bool
	RecurringType    *models.RecurringType
	RecurringEndDate *time.Time
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	Search     string
}

// TransactionSummary totals a filtered set of transactions.
type TransactionSummary struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetBalance    decimal.Decimal `json:"net_balance"`
	Count         int             `json:"count"`
}

// CategorySpending is the expense total of one category within a range.
type CategorySpending struct {
	CategoryID       string          `json:"category_id,omitempty"`
	CategoryName     string          `json:"category_name"`
	CategoryColor    string          `json:"category_color"`
	Amount           decimal.Decimal `json:"amount"`
	Percentage       float64         `json:"percentage"`
	TransactionCount int             `json:"transaction_count"`
}

// MonthlyTrend holds income and expense totals for one YYYY-MM month.
type MonthlyTrend struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// DashboardStats is the aggregate shown on the dashboard.
type DashboardStats struct {
	TotalIncome      decimal.Decimal    `json:"total_income"`
	TotalExpenses    decimal.Decimal    `json:"total_expenses"`
	Balance          decimal.Decimal    `json:"balance"`
	CategorySpending []CategorySpending `json:"category_spending"`
	MonthlyTrends    []MonthlyTrend     `json:"monthly_trends"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	DeleteTransactions(userID string, transactionIDs []string) (int64, error)
	GetTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetRecentTransactions(userID string, since time.Time, limit int) ([]models.Transaction, error)
	GetTransactionSummary(userID string, filter TransactionFilter) (*TransactionSummary, error)
	GetDashboardStats(userID string, from, to *time.Time, now time.Time) (*DashboardStats, error)
	SuggestCategory(userID, description string) (*models.Category, error)
	GetRecurringTransactions(userID string) ([]models.Transaction, error)
	GenerateRecurringTransactions(userID string, today time.Time) ([]models.Transaction, error)
	ExportCSV(w io.Writer, userID string, from, to *time.Time) error
}

// BudgetInput carries the writable fields of a budget. A zero
// WarningThreshold and nil notification flags take their defaults.
type BudgetInput struct {
	Name             string
	Description      string
	Amount           decimal.Decimal
	Period           models.BudgetPeriod
	StartDate        time.Time
	EndDate          *time.Time
	CategoryID       *string
	WarningThreshold int
	NotifyOnExceed   *bool
	NotifyOnWarning  *bool
}

// BudgetSummary aggregates all budgets of a user.
type BudgetSummary struct {
	TotalBudgets         int             `json:"total_budgets"`
	ActiveBudgets        int             `json:"active_budgets"`
	OnTrackBudgets       int             `json:"on_track_budgets"`
	WarningBudgets       int             `json:"warning_budgets"`
	ExceededBudgets      int             `json:"exceeded_budgets"`
	TotalBudgeted        decimal.Decimal `json:"total_budgeted"`
	TotalCurrentSpending decimal.Decimal `json:"total_current_spending"`
	TotalRemaining       decimal.Decimal `json:"total_remaining"`
	OverallUsage         float64         `json:"overall_usage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	GetBudgetWithSpending(userID, budgetID string) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetActiveBudgets(userID string, now time.Time) ([]models.Budget, error)
	GetBudgetsWithProgress(userID string, from, to *time.Time) ([]models.Budget, error)
	CalculateSpentAmount(userID, budgetID string, from, to *time.Time) (decimal.Decimal, error)
	GetBudgetSummary(userID string, now time.Time) (*BudgetSummary, error)
	GetBudgetTransactions(userID, budgetID string, limit int) ([]models.Transaction, error)
	CheckBudgetStatus(userID, budgetID string, now time.Time) (*models.BudgetNotification, error)
	CheckAllBudgets(userID string, now time.Time) ([]models.BudgetNotification, error)
	ResetBudget(userID, budgetID string, now time.Time) (*models.Budget, error)
	ResetExpiredBudgets(userID string, now time.Time) (int, error)
	GetNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetNotification], error)
	MarkNotificationRead(userID, notificationID string) (*models.BudgetNotification, error)
}

// BudgetStatusLine compares one budget's limit with its actual spending.
type BudgetStatusLine struct {
	BudgetID       string          `json:"budget_id"`
	BudgetName     string          `json:"budget_name"`
	CategoryName   string          `json:"category_name,omitempty"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	ActualSpending decimal.Decimal `json:"actual_spending"`
	Difference     decimal.Decimal `json:"difference"`
	IsOverBudget   bool            `json:"is_over_budget"`
}

// ReportBudgetSummary reports how many budgets ended over or under their limit.
type ReportBudgetSummary struct {
	TotalBudgets     int                `json:"total_budgets"`
	OverBudgetCount  int                `json:"over_budget_count"`
	UnderBudgetCount int                `json:"under_budget_count"`
	BudgetStatuses   []BudgetStatusLine `json:"budget_statuses"`
}

// FinancialReport covers income, expenses and budgets over a date range.
type FinancialReport struct {
	StartDate         time.Time            `json:"start_date"`
	EndDate           time.Time            `json:"end_date"`
	TotalIncome       decimal.Decimal      `json:"total_income"`
	TotalExpenses     decimal.Decimal      `json:"total_expenses"`
	NetIncome         decimal.Decimal      `json:"net_income"`
	CategorySummaries []CategorySpending   `json:"category_summaries"`
	TopTransactions   []models.Transaction `json:"top_transactions"`
	BudgetSummary     ReportBudgetSummary  `json:"budget_summary"`
}

// MonthlySummary holds one calendar month of a yearly overview.
type MonthlySummary struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Income    decimal.Decimal `json:"income"`
	Expenses  decimal.Decimal `json:"expenses"`
	Balance   decimal.Decimal `json:"balance"`
}

// TopCategory names one of the highest-spending categories.
type TopCategory struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryReport breaks expenses down by category over a date range.
type CategoryReport struct {
	CategorySpendings        []CategorySpending `json:"category_spendings"`
	TopCategories            []TopCategory      `json:"top_categories"`
	AverageTransactionAmount decimal.Decimal    `json:"average_transaction_amount"`
}

// ReportServicer defines the contract for financial reporting.
type ReportServicer interface {
	GenerateMonthlyReport(userID string, year int, month time.Month) (*FinancialReport, error)
	GenerateYearlyReport(userID string, year int) (*FinancialReport, error)
	GenerateCustomReport(userID string, start, end time.Time) (*FinancialReport, error)
	GetMonthlySummaries(userID string, year int) ([]MonthlySummary, error)
	GetCategoryReport(userID string, start, end time.Time) (*CategoryReport, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
