package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/services"
)

// ReportHandler serves financial reports.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ReportOverview combines the reports shown on the reports page.
type ReportOverview struct {
	Monthly           *services.FinancialReport `json:"monthly"`
	Yearly            *services.FinancialReport `json:"yearly"`
	MonthlySummaries  []services.MonthlySummary `json:"monthly_summaries"`
	CategoryBreakdown *services.CategoryReport  `json:"category_breakdown"`
}

func queryYear(c *gin.Context, now time.Time) (int, error) {
	v := c.Query("year")
	if v == "" {
		return now.Year(), nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1900 || year > 9999 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a four digit number")
	}
	return year, nil
}

func queryMonth(c *gin.Context, now time.Time) (time.Month, error) {
	v := c.Query("month")
	if v == "" {
		return now.Month(), nil
	}
	month, err := strconv.Atoi(v)
	if err != nil || month < 1 || month > 12 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	return time.Month(month), nil
}

// requiredRange reads start_date and end_date, both mandatory.
func requiredRange(c *gin.Context) (time.Time, time.Time, error) {
	from, to, err := parseDateRange(c, "start_date", "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date and end_date are required")
	}
	return *from, *to, nil
}

// GetMonthlyReport handles the report for one calendar month.
// @Summary     Monthly report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {object} services.FinancialReport "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly [get]
func (h *ReportHandler) GetMonthlyReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	now := time.Now().UTC()
	year, err := queryYear(c, now)
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryMonth(c, now)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GenerateMonthlyReport(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetYearlyReport handles the report for one calendar year.
// @Summary     Yearly report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current)"
// @Success     200 {object} services.FinancialReport "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/yearly [get]
func (h *ReportHandler) GetYearlyReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := queryYear(c, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GenerateYearlyReport(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetCustomReport handles a report over an arbitrary range.
// @Summary     Custom range report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string true "Range start (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string true "Range end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.FinancialReport "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/custom [get]
func (h *ReportHandler) GetCustomReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := requiredRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GenerateCustomReport(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetMonthlySummaries handles the twelve month overview of a year.
// @Summary     Monthly summaries
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current)"
// @Success     200 {array}  services.MonthlySummary "Summaries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly-summaries [get]
func (h *ReportHandler) GetMonthlySummaries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := queryYear(c, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.reportService.GetMonthlySummaries(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// GetCategoryReport handles the per-category expense breakdown.
// @Summary     Category report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string true "Range start (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string true "Range end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.CategoryReport "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetCategoryReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := requiredRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GetCategoryReport(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetOverview handles the reports page: the selected month, its year, the
// monthly summaries and the month's category breakdown, loaded concurrently.
// @Summary     Reports overview
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {object} ReportOverview "Overview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/overview [get]
func (h *ReportHandler) GetOverview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	now := time.Now().UTC()
	year, err := queryYear(c, now)
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryMonth(c, now)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var overview ReportOverview
	var g errgroup.Group
	g.Go(func() error {
		var err error
		overview.Monthly, err = h.reportService.GenerateMonthlyReport(userID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		overview.Yearly, err = h.reportService.GenerateYearlyReport(userID, year)
		return err
	})
	g.Go(func() error {
		var err error
		overview.MonthlySummaries, err = h.reportService.GetMonthlySummaries(userID, year)
		return err
	})
	g.Go(func() error {
		var err error
		overview.CategoryBreakdown, err = h.reportService.GetCategoryReport(userID, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
