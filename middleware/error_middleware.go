// ABOUTME: Centralized error handling middleware for Echo framework
// ABOUTME: Maps domain errors to HTTP status codes with safe messages
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pharma-radar/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// CustomHTTPErrorHandler creates the centralized HTTP error handler for
// Echo. Domain errors map to specific status codes; anything unknown is a
// generic 500 so internals never leak to clients.
func CustomHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := statusFor(err)

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"error", err)
		} else {
			logger.Warn("request rejected",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"error", err)
		}

		if err := c.JSON(status, errorResponse{Error: message}); err != nil {
			logger.Error("failed to send error response", "error", err)
		}
	}
}

func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := "An error occurred"
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
		if httpErr.Code >= http.StatusInternalServerError {
			message = "An unexpected error occurred. Please try again later."
		}
		return httpErr.Code, message
	}

	switch {
	case errors.Is(err, domain.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable, "Classifier service is unavailable"
	case errors.Is(err, domain.ErrInvalidClassifierResponse):
		return http.StatusBadGateway, "Classifier returned an invalid response"
	case errors.Is(err, domain.ErrEmptyText), errors.Is(err, domain.ErrEmptySource):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, "Event not found"
	case errors.Is(err, domain.ErrCycleInProgress):
		return http.StatusConflict, "A cycle is already in progress"
	default:
		return http.StatusInternalServerError, "An unexpected error occurred. Please try again later."
	}
}
