package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/testutil"
)

func newTestBudgetService(db *gorm.DB) BudgetServicer {
	categories := NewCategoryService(db)
	return NewBudgetService(db, categories, NewTransactionService(db, categories))
}

func monthlyInput(name, amount string, start time.Time) BudgetInput {
	return BudgetInput{
		Name:      name,
		Amount:    testutil.Amount(amount),
		Period:    models.BudgetPeriodMonthly,
		StartDate: start,
	}
}

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)

		input := monthlyInput("Groceries", "500", testutil.Date(2025, time.March, 15))
		input.CategoryID = &cat.ID
		budget, err := svc.CreateBudget(user.ID, input)
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected budget ID to be set")
		}
		if !budget.StartDate.Equal(testutil.Date(2025, time.March, 1)) {
			t.Errorf("expected start snapped to March 1, got %s", budget.StartDate)
		}
		if budget.EndDate == nil || !budget.EndDate.Equal(endOfDay(2025, time.March, 31)) {
			t.Errorf("expected end of March, got %v", budget.EndDate)
		}
		if budget.NextResetDate == nil || !budget.NextResetDate.Equal(testutil.Date(2025, time.April, 1)) {
			t.Errorf("expected next reset April 1, got %v", budget.NextResetDate)
		}
		if budget.WarningThreshold != models.DefaultWarningThreshold {
			t.Errorf("expected default threshold, got %d", budget.WarningThreshold)
		}
		if !budget.NotifyOnExceed || !budget.NotifyOnWarning {
			t.Error("expected notifications enabled by default")
		}
		if budget.Status != models.BudgetStatusOnTrack {
			t.Errorf("expected on_track, got %s", budget.Status)
		}
	})

	t.Run("custom_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		end := testutil.Date(2025, time.March, 20)
		budget, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:      "Trip",
			Amount:    testutil.Amount("1200"),
			Period:    models.BudgetPeriodCustom,
			StartDate: testutil.Date(2025, time.March, 5),
			EndDate:   &end,
		})
		testutil.AssertNoError(t, err)

		if !budget.StartDate.Equal(testutil.Date(2025, time.March, 5)) || !budget.EndDate.Equal(end) {
			t.Errorf("expected custom window kept, got %s..%v", budget.StartDate, budget.EndDate)
		}
		if budget.NextResetDate != nil {
			t.Errorf("expected no automatic reset, got %v", budget.NextResetDate)
		}
	})

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		end := testutil.Date(2025, time.March, 1)
		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:      "Backwards",
			Amount:    testutil.Amount("100"),
			Period:    models.BudgetPeriodCustom,
			StartDate: testutil.Date(2025, time.March, 5),
			EndDate:   &end,
		})
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateBudget(user.ID, monthlyInput("Zero", "0", testutil.Date(2025, time.March, 1)))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		input := monthlyInput("Odd", "100", testutil.Date(2025, time.March, 1))
		input.Period = "fortnightly"
		_, err := svc.CreateBudget(user.ID, input)
		testutil.AssertAppError(t, err, "INVALID_BUDGET_PERIOD")
	})

	t.Run("threshold_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		input := monthlyInput("Strict", "100", testutil.Date(2025, time.March, 1))
		input.WarningThreshold = 99
		_, err := svc.CreateBudget(user.ID, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("income_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeIncome)

		input := monthlyInput("Salary", "100", testutil.Date(2025, time.March, 1))
		input.CategoryID = &cat.ID
		_, err := svc.CreateBudget(user.ID, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, other.ID, models.TransactionTypeExpense)

		input := monthlyInput("Sneaky", "100", testutil.Date(2025, time.March, 1))
		input.CategoryID = &cat.ID
		_, err := svc.CreateBudget(user.ID, input)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("changes_amount_and_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, monthlyInput("Food", "300", testutil.Date(2025, time.March, 15)))
		testutil.AssertNoError(t, err)

		input := monthlyInput("Food", "900", testutil.Date(2025, time.March, 15))
		input.Period = models.BudgetPeriodQuarterly
		updated, err := svc.UpdateBudget(user.ID, budget.ID, input)
		testutil.AssertNoError(t, err)

		testutil.AssertAmount(t, "900", updated.Amount)
		if !updated.StartDate.Equal(testutil.Date(2025, time.January, 1)) {
			t.Errorf("expected quarter start, got %s", updated.StartDate)
		}
		if updated.EndDate == nil || !updated.EndDate.Equal(endOfDay(2025, time.March, 31)) {
			t.Errorf("expected quarter end, got %v", updated.EndDate)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateBudget(user.ID, "missing", monthlyInput("X", "1", testutil.Date(2025, time.March, 1)))
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetUserBudgets(t *testing.T) {
	t.Run("paginated_with_spending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)

		for i := 0; i < 3; i++ {
			testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		}
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "40", testutil.Date(2025, time.March, 10))

		result, err := svc.GetUserBudgets(user.ID, pagination.PageRequest{Page: 1, PageSize: 2}, nil)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 {
			t.Errorf("expected 3 total, got %d", result.TotalItems)
		}
		if len(result.Data) != 2 {
			t.Fatalf("expected 2 on page, got %d", len(result.Data))
		}
		if !result.Data[0].CurrentSpending.Equal(testutil.Amount("40")) {
			t.Errorf("expected spending 40, got %s", result.Data[0].CurrentSpending)
		}
	})

	t.Run("filter_by_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		input := monthlyInput("Year", "1000", testutil.Date(2025, time.March, 1))
		input.Period = models.BudgetPeriodYearly
		_, err := svc.CreateBudget(user.ID, input)
		testutil.AssertNoError(t, err)

		yearly := models.BudgetPeriodYearly
		result, err := svc.GetUserBudgets(user.ID, pagination.PageRequest{Page: 1, PageSize: 10}, &yearly)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 || result.Data[0].Period != models.BudgetPeriodYearly {
			t.Errorf("expected only the yearly budget, got %+v", result.Data)
		}
	})
}

func TestCalculateSpentAmount(t *testing.T) {
	t.Run("no_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")

		spent, err := svc.CalculateSpentAmount(user.ID, budget.ID, nil, nil)
		testutil.AssertNoError(t, err)
		if !spent.IsZero() {
			t.Errorf("expected 0, got %s", spent)
		}
	})

	t.Run("unknown_budget_is_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		spent, err := svc.CalculateSpentAmount(user.ID, "missing", nil, nil)
		testutil.AssertNoError(t, err)
		if !spent.IsZero() {
			t.Errorf("expected 0, got %s", spent)
		}
	})

	t.Run("counts_expenses_in_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		salary := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeIncome)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")

		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "10.50", testutil.Date(2025, time.March, 1))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "20.25", testutil.Date(2025, time.March, 31))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "99", testutil.Date(2025, time.April, 1))
		testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "3000", testutil.Date(2025, time.March, 5))

		spent, err := svc.CalculateSpentAmount(user.ID, budget.ID, nil, nil)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "30.75", spent)
	})

	t.Run("category_scoped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		rent := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &food.ID, "100")

		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "12", testutil.Date(2025, time.March, 3))
		testutil.CreateTestTransaction(t, db, user.ID, rent.ID, models.TransactionTypeExpense, "800", testutil.Date(2025, time.March, 3))

		spent, err := svc.CalculateSpentAmount(user.ID, budget.ID, nil, nil)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "12", spent)
	})

	t.Run("override_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")

		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "5", testutil.Date(2025, time.March, 3))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "7", testutil.Date(2025, time.April, 3))

		from := testutil.Date(2025, time.April, 1)
		to := endOfDay(2025, time.April, 30)
		spent, err := svc.CalculateSpentAmount(user.ID, budget.ID, &from, &to)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "7", spent)
	})
}

func TestGetBudgetWithSpending(t *testing.T) {
	t.Run("status_progression", func(t *testing.T) {
		tests := []struct {
			name       string
			spent      string
			wantStatus models.BudgetStatus
			wantPct    float64
		}{
			{"on_track", "50", models.BudgetStatusOnTrack, 50},
			{"warning_at_threshold", "80", models.BudgetStatusWarning, 80},
			{"at_limit_is_warning", "100", models.BudgetStatusWarning, 100},
			{"exceeded", "100.01", models.BudgetStatusExceeded, 100.01},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := testutil.SetupTestDB(t)
				defer testutil.TeardownTestDB(t, db)
				svc := newTestBudgetService(db)
				user := testutil.CreateTestUser(t, db)
				cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
				budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
				testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, tt.spent, testutil.Date(2025, time.March, 10))

				got, err := svc.GetBudgetWithSpending(user.ID, budget.ID)
				testutil.AssertNoError(t, err)

				if got.Status != tt.wantStatus {
					t.Errorf("expected status %s, got %s", tt.wantStatus, got.Status)
				}
				if got.PercentageUsed != tt.wantPct {
					t.Errorf("expected %.2f%%, got %.2f%%", tt.wantPct, got.PercentageUsed)
				}
				if !got.RemainingAmount.Equal(testutil.Amount("100").Sub(testutil.Amount(tt.spent))) {
					t.Errorf("unexpected remaining %s", got.RemainingAmount)
				}
			})
		}
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("removes_notifications", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "10")
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "20", testutil.Date(2025, time.March, 10))

		_, err := svc.CheckBudgetStatus(user.ID, budget.ID, time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))

		_, err = svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

		var count int64
		db.Model(&models.BudgetNotification{}).Where("budget_id = ?", budget.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected notifications removed, got %d", count)
		}
	})

	t.Run("other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID, nil, "10")

		err := svc.DeleteBudget(other.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetActiveBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestBudgetService(db)
	user := testutil.CreateTestUser(t, db)

	march := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
	_, err := svc.CreateBudget(user.ID, monthlyInput("April", "100", testutil.Date(2025, time.April, 1)))
	testutil.AssertNoError(t, err)

	active, err := svc.GetActiveBudgets(user.ID, time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)

	if len(active) != 1 || active[0].ID != march.ID {
		t.Errorf("expected only the March budget, got %d budgets", len(active))
	}
}

func TestGetBudgetSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestBudgetService(db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	fun := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)

	testutil.CreateTestBudget(t, db, user.ID, &food.ID, "100")
	testutil.CreateTestBudget(t, db, user.ID, &rent.ID, "100")
	testutil.CreateTestBudget(t, db, user.ID, &fun.ID, "100")
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "10", testutil.Date(2025, time.March, 2))
	testutil.CreateTestTransaction(t, db, user.ID, rent.ID, models.TransactionTypeExpense, "85", testutil.Date(2025, time.March, 2))
	testutil.CreateTestTransaction(t, db, user.ID, fun.ID, models.TransactionTypeExpense, "150", testutil.Date(2025, time.March, 2))

	summary, err := svc.GetBudgetSummary(user.ID, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)

	if summary.TotalBudgets != 3 || summary.ActiveBudgets != 3 {
		t.Errorf("expected 3 total and active, got %d/%d", summary.TotalBudgets, summary.ActiveBudgets)
	}
	if summary.OnTrackBudgets != 1 || summary.WarningBudgets != 1 || summary.ExceededBudgets != 1 {
		t.Errorf("expected 1/1/1 status split, got %d/%d/%d", summary.OnTrackBudgets, summary.WarningBudgets, summary.ExceededBudgets)
	}
	if !summary.TotalBudgeted.Equal(testutil.Amount("300")) || !summary.TotalCurrentSpending.Equal(testutil.Amount("245")) {
		t.Errorf("unexpected totals %s/%s", summary.TotalBudgeted, summary.TotalCurrentSpending)
	}
	if !summary.TotalRemaining.Equal(testutil.Amount("55")) {
		t.Errorf("expected remaining 55, got %s", summary.TotalRemaining)
	}
	if summary.OverallUsage != 81.67 {
		t.Errorf("expected usage 81.67, got %.2f", summary.OverallUsage)
	}

	later, err := svc.GetBudgetSummary(user.ID, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)
	if later.ActiveBudgets != 0 || later.ExceededBudgets != 0 {
		t.Errorf("expected no active budgets in May, got %d", later.ActiveBudgets)
	}
}

func TestGetBudgetTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestBudgetService(db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, &food.ID, "100")

	for day := 1; day <= 4; day++ {
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "1", testutil.Date(2025, time.March, day))
	}

	transactions, err := svc.GetBudgetTransactions(user.ID, budget.ID, 3)
	testutil.AssertNoError(t, err)

	if len(transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(transactions))
	}
	if !transactions[0].Date.Equal(testutil.Date(2025, time.March, 4)) {
		t.Errorf("expected newest first, got %s", transactions[0].Date)
	}
}

func TestCheckBudgetStatus(t *testing.T) {
	now := time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)

	t.Run("exceeded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "120", testutil.Date(2025, time.March, 10))

		n, err := svc.CheckBudgetStatus(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)

		if n == nil {
			t.Fatal("expected a notification")
		}
		if n.Type != models.NotificationTypeExceeded {
			t.Errorf("expected exceeded, got %s", n.Type)
		}
		if !strings.Contains(n.Message, budget.Name) {
			t.Errorf("expected message to name the budget, got %q", n.Message)
		}
	})

	t.Run("multibyte_name_kept_whole", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		name := strings.Repeat("€", 100)
		testutil.AssertNoError(t, db.Model(budget).Update("name", name).Error)
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "120", testutil.Date(2025, time.March, 10))

		n, err := svc.CheckBudgetStatus(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)

		if n == nil {
			t.Fatal("expected a notification")
		}
		if !utf8.ValidString(n.Message) || !strings.Contains(n.Message, name) {
			t.Errorf("expected intact message naming the budget, got %q", n.Message)
		}
	})

	t.Run("warning", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "85", testutil.Date(2025, time.March, 10))

		n, err := svc.CheckBudgetStatus(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)

		if n == nil || n.Type != models.NotificationTypeWarning {
			t.Fatalf("expected warning notification, got %+v", n)
		}
	})

	t.Run("under_threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "20", testutil.Date(2025, time.March, 10))

		n, err := svc.CheckBudgetStatus(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)
		if n != nil {
			t.Errorf("expected no notification, got %+v", n)
		}
	})

	t.Run("exceeded_with_exceed_alerts_off_warns", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		db.Model(budget).Update("notify_on_exceed", false)
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "150", testutil.Date(2025, time.March, 10))

		n, err := svc.CheckBudgetStatus(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)
		if n == nil || n.Type != models.NotificationTypeWarning {
			t.Fatalf("expected warning notification, got %+v", n)
		}
	})

	t.Run("deduplicated_within_a_day", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "120", testutil.Date(2025, time.March, 10))

		first, err := svc.CheckBudgetStatus(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)
		if first == nil {
			t.Fatal("expected first notification")
		}

		again, err := svc.CheckBudgetStatus(user.ID, budget.ID, now.Add(2*time.Hour))
		testutil.AssertNoError(t, err)
		if again != nil {
			t.Error("expected duplicate to be suppressed")
		}

		nextDay, err := svc.CheckBudgetStatus(user.ID, budget.ID, now.Add(25*time.Hour))
		testutil.AssertNoError(t, err)
		if nextDay == nil {
			t.Error("expected a new notification after 24 hours")
		}
	})
}

func TestCheckAllBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestBudgetService(db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)

	testutil.CreateTestBudget(t, db, user.ID, &food.ID, "100")
	testutil.CreateTestBudget(t, db, user.ID, &rent.ID, "100")
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "101", testutil.Date(2025, time.March, 4))

	raised, err := svc.CheckAllBudgets(user.ID, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)

	if len(raised) != 1 || raised[0].Type != models.NotificationTypeExceeded {
		t.Errorf("expected one exceeded notification, got %+v", raised)
	}
}

func TestResetBudget(t *testing.T) {
	t.Run("manual_reset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")

		now := time.Date(2025, time.April, 12, 8, 0, 0, 0, time.UTC)
		reset, err := svc.ResetBudget(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)

		if !reset.StartDate.Equal(testutil.Date(2025, time.April, 1)) {
			t.Errorf("expected April window, got %s", reset.StartDate)
		}
		if reset.LastResetDate == nil || !reset.LastResetDate.Equal(now) {
			t.Errorf("expected last reset %s, got %v", now, reset.LastResetDate)
		}
		if reset.NextResetDate == nil || !reset.NextResetDate.Equal(testutil.Date(2025, time.May, 1)) {
			t.Errorf("expected next reset May 1, got %v", reset.NextResetDate)
		}

		notifications, err := svc.GetNotifications(user.ID, false, pagination.PageRequest{Page: 1, PageSize: 10})
		testutil.AssertNoError(t, err)
		if notifications.TotalItems != 1 || notifications.Data[0].Type != models.NotificationTypeReset {
			t.Errorf("expected one reset notification, got %+v", notifications.Data)
		}
	})

	t.Run("custom_keeps_length", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		end := testutil.Date(2025, time.March, 11)
		budget, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:      "Ten days",
			Amount:    testutil.Amount("50"),
			Period:    models.BudgetPeriodCustom,
			StartDate: testutil.Date(2025, time.March, 1),
			EndDate:   &end,
		})
		testutil.AssertNoError(t, err)

		now := testutil.Date(2025, time.June, 1)
		reset, err := svc.ResetBudget(user.ID, budget.ID, now)
		testutil.AssertNoError(t, err)

		if !reset.StartDate.Equal(now) || !reset.EndDate.Equal(testutil.Date(2025, time.June, 11)) {
			t.Errorf("expected June 1..11, got %s..%v", reset.StartDate, reset.EndDate)
		}
	})
}

func TestResetExpiredBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestBudgetService(db)
	user := testutil.CreateTestUser(t, db)

	_, err := svc.CreateBudget(user.ID, monthlyInput("Monthly", "100", testutil.Date(2025, time.March, 10)))
	testutil.AssertNoError(t, err)
	_, err = svc.CreateBudget(user.ID, BudgetInput{
		Name:      "Custom",
		Amount:    testutil.Amount("100"),
		Period:    models.BudgetPeriodCustom,
		StartDate: testutil.Date(2025, time.March, 1),
	})
	testutil.AssertNoError(t, err)

	now := time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)
	count, err := svc.ResetExpiredBudgets(user.ID, now)
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Fatalf("expected 1 budget reset, got %d", count)
	}

	count, err = svc.ResetExpiredBudgets(user.ID, now)
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("expected nothing left to reset, got %d", count)
	}
}

func TestNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestBudgetService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.TransactionTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, nil, "100")
	testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "120", testutil.Date(2025, time.March, 10))

	n, err := svc.CheckBudgetStatus(user.ID, budget.ID, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)

	t.Run("other_user_cannot_mark", func(t *testing.T) {
		_, err := svc.MarkNotificationRead(other.ID, n.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")
	})

	t.Run("mark_read", func(t *testing.T) {
		read, err := svc.MarkNotificationRead(user.ID, n.ID)
		testutil.AssertNoError(t, err)
		if !read.IsRead {
			t.Error("expected notification to be read")
		}
	})

	t.Run("unread_only", func(t *testing.T) {
		page := pagination.PageRequest{Page: 1, PageSize: 10}

		unread, err := svc.GetNotifications(user.ID, true, page)
		testutil.AssertNoError(t, err)
		if unread.TotalItems != 0 {
			t.Errorf("expected no unread notifications, got %d", unread.TotalItems)
		}

		all, err := svc.GetNotifications(user.ID, false, page)
		testutil.AssertNoError(t, err)
		if all.TotalItems != 1 {
			t.Errorf("expected 1 notification, got %d", all.TotalItems)
		}
	})
}
