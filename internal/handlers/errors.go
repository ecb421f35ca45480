package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/models"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors on routes under prefix as the JSON envelope
// {"results": [], "message": ..., "status": "error"}. Other routes use fallback.
func ErrorHandler(prefix string, fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if !strings.HasPrefix(c.Request().URL.Path, prefix) {
			fallback(err, c)
			return
		}
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := fmt.Sprintf("Server error: %v", err)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			logger.For(c.Request().Context()).WithError(err).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, models.ErrorEnvelope(message))
		}
		if err != nil {
			logger.For(c.Request().Context()).WithError(err).Warn("write error response")
		}
	}
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}

func serverError(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, "Server error: "+err.Error()).SetInternal(err)
}
