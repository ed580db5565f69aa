package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/pagination"
	"expensetracker/internal/services"
)

// NotificationHandler serves budget notifications.
type NotificationHandler struct {
	budgetService services.BudgetServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(budgetService services.BudgetServicer) *NotificationHandler {
	return &NotificationHandler{budgetService: budgetService}
}

// GetNotifications lists the user's budget notifications, newest first.
// @Summary     Get notifications
// @Description Get a paginated list of budget notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       unread    query bool false "Only unread notifications"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetNotification] "Paginated notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.budgetService.GetNotifications(userID, c.Query("unread") == "true", page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkNotificationRead flags one notification as read.
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.BudgetNotification "Updated notification"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /notifications/{id}/read [put]
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	notification, err := h.budgetService.MarkNotificationRead(userID, notificationID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}
