package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/pkg/jwtutil"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
)

// ClientTokenHeader carries the client token for callers that do not keep cookies
const ClientTokenHeader = "X-Client-Token"

const clientIDKey = "client_id"

// ClientIdentity resolves the calling client from its signed token, in the
// X-Client-Token header or the cookie. Missing or invalid tokens get a fresh
// client id, returned in both the cookie and the header.
func ClientIdentity(tokens *jwtutil.JWTUtil, cookieName string, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token := c.Request().Header.Get(ClientTokenHeader)
			if token == "" {
				if cookie, err := c.Cookie(cookieName); err == nil {
					token = cookie.Value
				}
			}

			var clientID string
			if token != "" {
				claims, err := tokens.ValidateToken(token)
				if err != nil {
					log.Debug("Rejected client token", zap.Error(err))
				} else {
					clientID = claims.ClientID
				}
			}

			if clientID == "" {
				clientID = uuid.New().String()
				issued, err := tokens.GenerateClientToken(clientID)
				if err != nil {
					log.Error("Failed to issue client token", zap.Error(err))
					return echo.NewHTTPError(http.StatusInternalServerError, "Failed to identify client")
				}
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    issued,
					Path:     "/",
					Expires:  time.Now().Add(tokens.Expiration()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				c.Response().Header().Set(ClientTokenHeader, issued)
				log.Debug("Issued client token", zap.String("client_id", clientID))
			}

			c.Set(clientIDKey, clientID)
			clientLog := log.With(zap.String("client_id", clientID))
			c.Set("logger", clientLog)
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), clientLog)))
			return next(c)
		}
	}
}

// ClientID returns the id resolved by ClientIdentity
func ClientID(c echo.Context) string {
	id, _ := c.Get(clientIDKey).(string)
	return id
}
