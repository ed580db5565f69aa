package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/models"
	"expensetracker/internal/testutil"
)

func TestGetDashboardStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	salary := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeIncome)

	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "2000", testutil.Date(2025, time.March, 1))
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "100", testutil.Date(2025, time.March, 5))
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "50", testutil.Date(2025, time.March, 6))
	testutil.CreateTestTransaction(t, db, user.ID, rent.ID, models.TransactionTypeExpense, "850", testutil.Date(2025, time.April, 1))
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "999", testutil.Date(2024, time.June, 1))

	now := time.Date(2025, time.April, 15, 12, 0, 0, 0, time.UTC)

	t.Run("ranged_totals", func(t *testing.T) {
		from := testutil.Date(2025, time.January, 1)
		stats, err := svc.GetDashboardStats(user.ID, &from, nil, now)
		require.NoError(t, err)

		assert.True(t, stats.TotalIncome.Equal(testutil.Amount("2000")), "income %s", stats.TotalIncome)
		assert.True(t, stats.TotalExpenses.Equal(testutil.Amount("1000")), "expenses %s", stats.TotalExpenses)
		assert.True(t, stats.Balance.Equal(testutil.Amount("1000")), "balance %s", stats.Balance)
	})

	t.Run("category_spending_largest_first", func(t *testing.T) {
		from := testutil.Date(2025, time.January, 1)
		stats, err := svc.GetDashboardStats(user.ID, &from, nil, now)
		require.NoError(t, err)

		require.Len(t, stats.CategorySpending, 2)
		assert.Equal(t, rent.ID, stats.CategorySpending[0].CategoryID)
		assert.Equal(t, rent.Name, stats.CategorySpending[0].CategoryName)
		assert.Equal(t, 85.0, stats.CategorySpending[0].Percentage)
		assert.Equal(t, 15.0, stats.CategorySpending[1].Percentage)
		assert.Equal(t, 2, stats.CategorySpending[1].TransactionCount)
	})

	t.Run("monthly_trends_last_six_months", func(t *testing.T) {
		stats, err := svc.GetDashboardStats(user.ID, nil, nil, now)
		require.NoError(t, err)

		require.Len(t, stats.MonthlyTrends, 2)
		assert.Equal(t, "2025-03", stats.MonthlyTrends[0].Month)
		assert.True(t, stats.MonthlyTrends[0].Income.Equal(testutil.Amount("2000")))
		assert.True(t, stats.MonthlyTrends[0].Expenses.Equal(testutil.Amount("150")))
		assert.Equal(t, "2025-04", stats.MonthlyTrends[1].Month)
	})

	t.Run("empty_user", func(t *testing.T) {
		empty := testutil.CreateTestUser(t, db)
		stats, err := svc.GetDashboardStats(empty.ID, nil, nil, now)
		require.NoError(t, err)

		assert.True(t, stats.Balance.IsZero())
		assert.Empty(t, stats.CategorySpending)
		assert.Empty(t, stats.MonthlyTrends)
	})
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 33.33, percentOf(testutil.Amount("1"), testutil.Amount("3")))
	assert.Equal(t, 0.0, percentOf(testutil.Amount("5"), testutil.Amount("0")))
	assert.Equal(t, 150.0, percentOf(testutil.Amount("150"), testutil.Amount("100")))
}

func TestSuggestCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestTransactionService(db)
	user := testutil.CreateTestUser(t, db)

	salary := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeIncome, "salary", "payroll")
	fallback := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	dining := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense, "restaurant", "cafe")
	transport := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense, "uber", "Taxi")

	tests := []struct {
		name        string
		description string
		want        *models.Category
	}{
		{"keyword_substring", "Dinner at the RESTAURANT", dining},
		{"keyword_case_insensitive", "taxi to airport", transport},
		{"income_keyword", "March payroll", salary},
		{"fuzzy_typo", "resturant downtown", dining},
		{"short_words_not_fuzzy", "ubr", fallback},
		{"fallback_first_expense", "something unrelated", fallback},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SuggestCategory(user.ID, tt.description)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.ID, got.ID)
		})
	}

	t.Run("no_categories", func(t *testing.T) {
		empty := testutil.CreateTestUser(t, db)
		got, err := svc.SuggestCategory(empty.ID, "coffee")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
