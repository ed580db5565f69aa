package services

import (
	"encoding/csv"
	"io"
	"time"

	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
)

// truncateToDay returns midnight of t in t's location.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextOccurrence returns the day the next instance of a series is due.
func nextOccurrence(last time.Time, recurring models.RecurringType) (time.Time, bool) {
	day := truncateToDay(last)
	switch recurring {
	case models.RecurringTypeDaily:
		return day.AddDate(0, 0, 1), true
	case models.RecurringTypeWeekly:
		return day.AddDate(0, 0, 7), true
	case models.RecurringTypeMonthly:
		return addMonths(day, 1), true
	case models.RecurringTypeYearly:
		return addMonths(day, 12), true
	}
	return time.Time{}, false
}

// GenerateRecurringTransactions inserts today's instance of every recurring
// series that is due. The new instance takes over as the series head and
// the previous one stops recurring, so repeated calls on the same day
// create nothing.
func (s *transactionService) GenerateRecurringTransactions(userID string, today time.Time) ([]models.Transaction, error) {
	var templates []models.Transaction
	if err := s.db.Where("user_id = ? AND is_recurring = ? AND recurring_type IS NOT NULL", userID, true).
		Order("date ASC, id ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	day := truncateToDay(today)
	var created []models.Transaction

	for i := range templates {
		tmpl := &templates[i]
		if tmpl.RecurringEndDate != nil && truncateToDay(*tmpl.RecurringEndDate).Before(day) {
			continue
		}
		due, ok := nextOccurrence(tmpl.Date.In(day.Location()), *tmpl.RecurringType)
		if !ok || day.Before(due) {
			continue
		}

		next := models.Transaction{
			UserID:           tmpl.UserID,
			CategoryID:       tmpl.CategoryID,
			Type:             tmpl.Type,
			Amount:           tmpl.Amount,
			Description:      tmpl.Description,
			Date:             day,
			Notes:            tmpl.Notes,
			IsRecurring:      true,
			RecurringType:    tmpl.RecurringType,
			RecurringEndDate: tmpl.RecurringEndDate,
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&next).Error; err != nil {
				return err
			}
			return tx.Model(&models.Transaction{}).Where("id = ?", tmpl.ID).Update("is_recurring", false).Error
		})
		if err != nil {
			return created, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		logger.Get().Infow("generated recurring transaction",
			"user_id", userID,
			"source_id", tmpl.ID,
			"transaction_id", next.ID,
			"recurring_type", *tmpl.RecurringType,
		)
		created = append(created, next)
	}

	return created, nil
}

// csvHeader lists the exported columns in order.
var csvHeader = []string{"Date", "Description", "Category", "Type", "Amount", "Recurring", "Notes"}

// ExportCSV writes the user's transactions in the optional range as CSV,
// newest first.
func (s *transactionService) ExportCSV(w io.Writer, userID string, from, to *time.Time) error {
	transactions, err := s.GetTransactions(userID, TransactionFilter{FromDate: from, ToDate: to})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, t := range transactions {
		categoryName := ""
		if t.Category != nil {
			categoryName = t.Category.Name
		}
		recurring := ""
		if t.IsRecurring && t.RecurringType != nil {
			recurring = string(*t.RecurringType)
		}
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Description,
			categoryName,
			string(t.Type),
			t.Amount.StringFixed(2),
			recurring,
			t.Notes,
		}
		if err := cw.Write(record); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
