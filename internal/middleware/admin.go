package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/pkg/jwtutil"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
)

// AdminAuth requires a Bearer staff token on every request of the group
func AdminAuth(tokens *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := tokens.ValidateAdminToken(parts[1])
			if err != nil {
				log.Warn("Rejected admin token", zap.Error(err))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}

			adminLog := log.With(zap.String("admin", claims.Subject))
			c.Set("logger", adminLog)
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), adminLog)))
			return next(c)
		}
	}
}
