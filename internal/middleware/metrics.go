package middleware

import (
	"strconv"
	"time"

	"github.com/bookshelf-recommend-api/internal/metrics"
	"github.com/labstack/echo/v4"
)

// PrometheusMetrics records request counts and latencies by route
func PrometheusMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			// Label by route template, not raw path
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)

			metrics.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
