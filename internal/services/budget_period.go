package services

import (
	"time"

	"expensetracker/internal/models"
)

// lastInstant is the end-of-window offset: windows close one second before
// the next one opens.
const lastInstant = -time.Second

// SetDefaultDates derives the budget window from StartDate and Period.
// Fixed periods snap StartDate to the beginning of the enclosing day, week
// (Monday), month, quarter or year and set EndDate to the last second of it.
// Custom budgets keep their dates; a missing end defaults to one month
// after the start.
func SetDefaultDates(b *models.Budget) {
	start, end, ok := PeriodWindow(b.Period, b.StartDate)
	if ok {
		b.StartDate = start
		b.EndDate = &end
		return
	}
	if b.Period == models.BudgetPeriodCustom && b.EndDate == nil {
		end := addMonths(b.StartDate, 1).Add(lastInstant)
		b.EndDate = &end
	}
}

// PeriodWindow returns the fixed window of period enclosing t. It reports
// false for custom or unknown periods.
func PeriodWindow(period models.BudgetPeriod, t time.Time) (time.Time, time.Time, bool) {
	loc := t.Location()
	var start, next time.Time

	switch period {
	case models.BudgetPeriodDaily:
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 1)
	case models.BudgetPeriodWeekly:
		// Go weekdays start at Sunday=0; weeks here start on Monday.
		offset := (int(t.Weekday()) + 6) % 7
		start = time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 7)
	case models.BudgetPeriodMonthly:
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	case models.BudgetPeriodQuarterly:
		quarterMonth := time.Month((int(t.Month())-1)/3*3 + 1)
		start = time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 3, 0)
	case models.BudgetPeriodYearly:
		start = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	default:
		return time.Time{}, time.Time{}, false
	}

	return start, next.Add(lastInstant), true
}

// NextResetDate returns from advanced by one period, or nil for custom
// budgets, which never reset on their own.
func NextResetDate(period models.BudgetPeriod, from time.Time) *time.Time {
	var next time.Time
	switch period {
	case models.BudgetPeriodDaily:
		next = from.AddDate(0, 0, 1)
	case models.BudgetPeriodWeekly:
		next = from.AddDate(0, 0, 7)
	case models.BudgetPeriodMonthly:
		next = addMonths(from, 1)
	case models.BudgetPeriodQuarterly:
		next = addMonths(from, 3)
	case models.BudgetPeriodYearly:
		next = addMonths(from, 12)
	default:
		return nil
	}
	return &next
}

// addMonths moves t by n months keeping the time of day. The day is clamped
// to the last day of the target month, so Jan 31 plus one month is Feb 28.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// IsValidBudgetPeriod reports whether p is one of the known periods.
func IsValidBudgetPeriod(p models.BudgetPeriod) bool {
	switch p {
	case models.BudgetPeriodDaily, models.BudgetPeriodWeekly, models.BudgetPeriodMonthly,
		models.BudgetPeriodQuarterly, models.BudgetPeriodYearly, models.BudgetPeriodCustom:
		return true
	}
	return false
}
