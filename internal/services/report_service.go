package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

const (
	topTransactionsLimit = 10
	topCategoriesLimit   = 5
)

// reportService builds financial reports from transactions and budgets.
type reportService struct {
	transactionService TransactionServicer
	budgetService      BudgetServicer
}

// NewReportService creates a new ReportServicer.
func NewReportService(transactionService TransactionServicer, budgetService BudgetServicer) ReportServicer {
	return &reportService{transactionService: transactionService, budgetService: budgetService}
}

// monthRange returns the first and last instant of a calendar month in UTC.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(lastInstant)
}

// GenerateMonthlyReport reports on one calendar month.
func (s *reportService) GenerateMonthlyReport(userID string, year int, month time.Month) (*FinancialReport, error) {
	start, end := monthRange(year, month)
	return s.GenerateCustomReport(userID, start, end)
}

// GenerateYearlyReport reports on one calendar year.
func (s *reportService) GenerateYearlyReport(userID string, year int) (*FinancialReport, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return s.GenerateCustomReport(userID, start, start.AddDate(1, 0, 0).Add(lastInstant))
}

// GenerateCustomReport reports on transactions dated within [start, end] and
// on every budget's spending over the same range.
func (s *reportService) GenerateCustomReport(userID string, start, end time.Time) (*FinancialReport, error) {
	transactions, err := s.transactionService.GetTransactions(userID, TransactionFilter{FromDate: &start, ToDate: &end})
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgetService.GetBudgetsWithProgress(userID, &start, &end)
	if err != nil {
		return nil, err
	}

	income, expenses := sumByType(transactions)
	report := &FinancialReport{
		StartDate:         start,
		EndDate:           end,
		TotalIncome:       income,
		TotalExpenses:     expenses,
		NetIncome:         income.Sub(expenses),
		CategorySummaries: categorySpending(transactions),
		TopTransactions:   topTransactions(transactions, topTransactionsLimit),
		BudgetSummary:     summarizeBudgets(budgets),
	}
	return report, nil
}

// topTransactions returns the n largest transactions, ties newest first.
func topTransactions(transactions []models.Transaction, n int) []models.Transaction {
	top := make([]models.Transaction, len(transactions))
	copy(top, transactions)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount.GreaterThan(top[j].Amount)
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

func summarizeBudgets(budgets []models.Budget) ReportBudgetSummary {
	summary := ReportBudgetSummary{
		TotalBudgets:   len(budgets),
		BudgetStatuses: make([]BudgetStatusLine, 0, len(budgets)),
	}
	for _, b := range budgets {
		line := BudgetStatusLine{
			BudgetID:       b.ID,
			BudgetName:     b.Name,
			BudgetAmount:   b.Amount,
			ActualSpending: b.CurrentSpending,
			Difference:     b.Amount.Sub(b.CurrentSpending),
			IsOverBudget:   b.CurrentSpending.GreaterThan(b.Amount),
		}
		if b.Category != nil {
			line.CategoryName = b.Category.Name
		}
		if line.IsOverBudget {
			summary.OverBudgetCount++
		} else {
			summary.UnderBudgetCount++
		}
		summary.BudgetStatuses = append(summary.BudgetStatuses, line)
	}
	return summary
}

// GetMonthlySummaries returns twelve entries, January first, for the year.
func (s *reportService) GetMonthlySummaries(userID string, year int) ([]MonthlySummary, error) {
	start, _ := monthRange(year, time.January)
	_, end := monthRange(year, time.December)
	transactions, err := s.transactionService.GetTransactions(userID, TransactionFilter{FromDate: &start, ToDate: &end})
	if err != nil {
		return nil, err
	}

	summaries := make([]MonthlySummary, 12)
	for i := range summaries {
		month := time.Month(i + 1)
		summaries[i] = MonthlySummary{Year: year, Month: int(month), MonthName: month.String()}
	}
	for _, t := range transactions {
		entry := &summaries[t.Date.UTC().Month()-1]
		switch t.Type {
		case models.TransactionTypeIncome:
			entry.Income = entry.Income.Add(t.Amount)
		case models.TransactionTypeExpense:
			entry.Expenses = entry.Expenses.Add(t.Amount)
		}
	}
	for i := range summaries {
		summaries[i].Balance = summaries[i].Income.Sub(summaries[i].Expenses)
	}
	return summaries, nil
}

// GetCategoryReport breaks down expenses in [start, end] by category.
func (s *reportService) GetCategoryReport(userID string, start, end time.Time) (*CategoryReport, error) {
	expense := models.TransactionTypeExpense
	transactions, err := s.transactionService.GetTransactions(userID, TransactionFilter{FromDate: &start, ToDate: &end, Type: &expense})
	if err != nil {
		return nil, err
	}

	spendings := categorySpending(transactions)
	report := &CategoryReport{
		CategorySpendings:        spendings,
		TopCategories:            make([]TopCategory, 0, topCategoriesLimit),
		AverageTransactionAmount: decimal.Zero,
	}
	for i := 0; i < len(spendings) && i < topCategoriesLimit; i++ {
		report.TopCategories = append(report.TopCategories, TopCategory{
			Name:  spendings[i].CategoryName,
			Color: spendings[i].CategoryColor,
		})
	}
	if len(transactions) > 0 {
		_, total := sumByType(transactions)
		report.AverageTransactionAmount = total.Div(decimal.NewFromInt(int64(len(transactions)))).Round(2)
	}
	return report, nil
}
