package services

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

const (
	uncategorizedName  = "Uncategorized"
	uncategorizedColor = models.DefaultCategoryColor

	// trendMonths is how far back the dashboard trend reaches.
	trendMonths = 6

	// Fuzzy keyword matching only applies to words this long, and tolerates
	// one edit ("resturant" still suggests dining).
	fuzzyMinLength   = 5
	fuzzyMaxDistance = 1
)

var hundred = decimal.NewFromInt(100)

// percentOf returns part/total*100 rounded to two places, or 0 for an empty total.
func percentOf(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}

// categorySpending groups expense transactions by category, largest first.
func categorySpending(transactions []models.Transaction) []CategorySpending {
	byCategory := make(map[string]*CategorySpending)
	var order []string
	total := decimal.Zero

	for _, t := range transactions {
		if t.Type != models.TransactionTypeExpense {
			continue
		}
		total = total.Add(t.Amount)

		key := t.CategoryID
		entry, ok := byCategory[key]
		if !ok {
			entry = &CategorySpending{CategoryID: t.CategoryID, CategoryName: uncategorizedName, CategoryColor: uncategorizedColor}
			if t.Category != nil {
				entry.CategoryName = t.Category.Name
				if t.Category.Color != "" {
					entry.CategoryColor = t.Category.Color
				}
			}
			byCategory[key] = entry
			order = append(order, key)
		}
		entry.Amount = entry.Amount.Add(t.Amount)
		entry.TransactionCount++
	}

	result := make([]CategorySpending, 0, len(order))
	for _, key := range order {
		entry := byCategory[key]
		entry.Percentage = percentOf(entry.Amount, total)
		result = append(result, *entry)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Amount.GreaterThan(result[j].Amount)
	})
	return result
}

// GetDashboardStats aggregates totals and per-category spending over the
// optional range, plus the monthly trend of the last six months before now.
func (s *transactionService) GetDashboardStats(userID string, from, to *time.Time, now time.Time) (*DashboardStats, error) {
	transactions, err := s.GetTransactions(userID, TransactionFilter{FromDate: from, ToDate: to})
	if err != nil {
		return nil, err
	}

	income, expenses := sumByType(transactions)
	stats := &DashboardStats{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		Balance:          income.Sub(expenses),
		CategorySpending: categorySpending(transactions),
	}

	since := now.AddDate(0, -trendMonths, 0)
	recent, err := s.GetTransactions(userID, TransactionFilter{FromDate: &since})
	if err != nil {
		return nil, err
	}
	stats.MonthlyTrends = monthlyTrends(recent)

	return stats, nil
}

// monthlyTrends buckets transactions by YYYY-MM, oldest first. Months
// without transactions are omitted.
func monthlyTrends(transactions []models.Transaction) []MonthlyTrend {
	byMonth := make(map[string]*MonthlyTrend)
	for _, t := range transactions {
		key := t.Date.Format("2006-01")
		entry, ok := byMonth[key]
		if !ok {
			entry = &MonthlyTrend{Month: key}
			byMonth[key] = entry
		}
		switch t.Type {
		case models.TransactionTypeIncome:
			entry.Income = entry.Income.Add(t.Amount)
		case models.TransactionTypeExpense:
			entry.Expenses = entry.Expenses.Add(t.Amount)
		}
	}

	result := make([]MonthlyTrend, 0, len(byMonth))
	for _, entry := range byMonth {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result
}

// SuggestCategory proposes a category for a transaction description. It
// returns nil for an empty description, the first category with a keyword
// contained in the description, then the first fuzzy keyword match, and
// finally the first expense category. nil means no suggestion.
func (s *transactionService) SuggestCategory(userID, description string) (*models.Category, error) {
	description = strings.ToLower(strings.TrimSpace(description))
	if description == "" {
		return nil, nil
	}

	categories, err := s.categoryService.GetAllCategories(userID)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		for _, keyword := range categories[i].Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(description, keyword) {
				return &categories[i], nil
			}
		}
	}

	words := strings.FieldsFunc(description, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i := range categories {
		for _, keyword := range categories[i].Keywords {
			if fuzzyMatch(words, strings.ToLower(keyword)) {
				return &categories[i], nil
			}
		}
	}

	for i := range categories {
		if categories[i].Type == models.TransactionTypeExpense {
			return &categories[i], nil
		}
	}
	return nil, nil
}

func fuzzyMatch(words []string, keyword string) bool {
	if len(keyword) < fuzzyMinLength {
		return false
	}
	for _, w := range words {
		if len(w) < fuzzyMinLength {
			continue
		}
		if levenshtein.ComputeDistance(w, keyword) <= fuzzyMaxDistance {
			return true
		}
	}
	return false
}
