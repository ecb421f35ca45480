package middleware

import (
	"time"

	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through logrus
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			entry := logger.For(req.Context()).WithFields(logrus.Fields{
				"method":   req.Method,
				"uri":      req.RequestURI,
				"status":   res.Status,
				"bytes":    res.Size,
				"duration": time.Since(start).String(),
				"remote":   c.RealIP(),
			})

			if err != nil {
				entry = entry.WithError(err)
			}

			switch {
			case res.Status >= 500:
				entry.Error("request failed")
			case res.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request handled")
			}
			return nil
		}
	}
}
