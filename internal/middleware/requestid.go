package middleware

import (
	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestID keeps an upstream X-Request-ID or generates a UUID, and puts it in
// the request context for logger.For.
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.ContextWithID(req.Context(), id)))
		},
	})
}
