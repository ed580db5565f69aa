package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
	"expensetracker/internal/services"
)

func setupDashboardRouter(handler *DashboardHandler) *gin.Engine {
	r := gin.New()
	r.GET("/dashboard", injectUserID(testUserID), handler.GetDashboard)
	return r
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	t.Run("runs maintenance before reading stats", func(t *testing.T) {
		var calls []string
		txSvc := &mockTransactionService{
			generateRecurringFn: func(_ string, _ time.Time) ([]models.Transaction, error) {
				calls = append(calls, "generate")
				return []models.Transaction{{Base: models.Base{ID: testTransactionID}}}, nil
			},
			getDashboardStatsFn: func(_ string, _, _ *time.Time, _ time.Time) (*services.DashboardStats, error) {
				calls = append(calls, "stats")
				return &services.DashboardStats{TotalIncome: decimal.NewFromInt(2000)}, nil
			},
			getRecentTransactionsFn: func(_ string, since time.Time, limit int) ([]models.Transaction, error) {
				calls = append(calls, "recent")
				if limit != recentTransactionsLimit {
					t.Errorf("expected limit %d, got %d", recentTransactionsLimit, limit)
				}
				if time.Since(since) < 6*24*time.Hour {
					t.Errorf("expected a seven day window, got since %v", since)
				}
				return []models.Transaction{}, nil
			},
		}
		budgetSvc := &mockBudgetService{
			resetExpiredBudgetsFn: func(_ string, _ time.Time) (int, error) {
				calls = append(calls, "reset")
				return 2, nil
			},
			checkAllBudgetsFn: func(_ string, _ time.Time) ([]models.BudgetNotification, error) {
				calls = append(calls, "check")
				return nil, nil
			},
			getBudgetsWithProgressFn: func(_ string, _, _ *time.Time) ([]models.Budget, error) {
				calls = append(calls, "budgets")
				return []models.Budget{{Base: models.Base{ID: testBudgetID}}}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(txSvc, budgetSvc))

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		want := []string{"generate", "reset", "check", "stats", "budgets", "recent"}
		if fmt.Sprint(calls) != fmt.Sprint(want) {
			t.Errorf("expected calls %v, got %v", want, calls)
		}
		result := parseJSON(t, rec)
		if result["generated_recurring"] != float64(1) || result["reset_budgets"] != float64(2) {
			t.Errorf("unexpected maintenance counts %v", result)
		}
		stats := result["stats"].(map[string]interface{})
		if stats["total_income"] != "2000" {
			t.Errorf("expected total_income 2000, got %v", stats["total_income"])
		}
		if len(result["budgets"].([]interface{})) != 1 {
			t.Error("expected 1 budget")
		}
	})

	t.Run("still renders when maintenance fails", func(t *testing.T) {
		txSvc := &mockTransactionService{
			generateRecurringFn: func(_ string, _ time.Time) ([]models.Transaction, error) {
				return nil, fmt.Errorf("db connection lost")
			},
		}
		budgetSvc := &mockBudgetService{
			resetExpiredBudgetsFn: func(_ string, _ time.Time) (int, error) {
				return 0, fmt.Errorf("db connection lost")
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(txSvc, budgetSvc))

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("passes the date range to stats", func(t *testing.T) {
		var gotFrom, gotTo *time.Time
		txSvc := &mockTransactionService{
			getDashboardStatsFn: func(_ string, from, to *time.Time, _ time.Time) (*services.DashboardStats, error) {
				gotFrom, gotTo = from, to
				return &services.DashboardStats{}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(txSvc, &mockBudgetService{}))

		rec := doRequest(r, "GET", "/dashboard?from_date=2025-01-01&to_date=2025-01-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotFrom == nil || gotTo == nil || gotTo.Day() != 31 {
			t.Errorf("unexpected range %v - %v", gotFrom, gotTo)
		}
	})

	t.Run("returns 500 when stats fail", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getDashboardStatsFn: func(_ string, _, _ *time.Time, _ time.Time) (*services.DashboardStats, error) {
				return nil, fmt.Errorf("db connection lost")
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(txSvc, &mockBudgetService{}))

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}
