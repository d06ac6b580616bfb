package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// MetricsMiddleware records request count and duration per route
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// write the error response first so the recorded status is final
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		prometheus.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))

		return nil
	}
}
