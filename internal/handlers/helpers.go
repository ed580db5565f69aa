package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/uuid"
)

const dateLayout = "2006-01-02"

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, ok := c.Get("userID")
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// parsePathID returns a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps or plain YYYY-MM-DD dates,
// the latter as midnight UTC.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use RFC3339 or YYYY-MM-DD", s)
}

// parseRangeEnd is parseFlexibleTime for inclusive upper bounds: a plain
// date covers the whole day.
func parseRangeEnd(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.AddDate(0, 0, 1).Add(-time.Second), nil
	}
	return parseFlexibleTime(s)
}

// parseDateRange reads optional range bounds from the named query params.
func parseDateRange(c *gin.Context, fromParam, toParam string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if v := c.Query(fromParam); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+fromParam+" format, use RFC3339 or YYYY-MM-DD")
		}
		from = &t
	}
	if v := c.Query(toParam); v != "" {
		t, err := parseRangeEnd(v)
		if err != nil {
			return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+toParam+" format, use RFC3339 or YYYY-MM-DD")
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apperrors.ErrInvalidDateRange
	}
	return from, to, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
