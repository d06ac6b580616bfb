package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
)

// RequestIDMiddleware adds a unique request ID to each request, reusing an incoming X-Request-ID
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request().Header.Set(echo.HeaderXRequestID, requestID)
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		c.Set("request_id", requestID)

		// Request scoped logger, also reachable from the request context
		log := logger.GetLogger().With(zap.String("request_id", requestID))
		c.Set("logger", log)
		c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), log)))

		return next(c)
	}
}
