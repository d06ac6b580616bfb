package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
)

// RegisterRoutes wires the storefront API. clientMW resolves the calling client for every /api route;
// adminMW guards the order management routes under /api/admin.
func RegisterRoutes(e *echo.Echo, h *Handler, clientMW, adminMW echo.MiddlewareFunc) {
	e.GET("/", h.Home)

	api := e.Group("/api", clientMW)
	api.GET("/home", h.Home)
	api.GET("/about", h.About)

	api.GET("/categories", h.ListCategories)
	api.GET("/categories/:slug", h.GetCategory)
	api.GET("/categories/:parent/:slug", h.GetCategory)
	api.GET("/products/:slug", h.GetProduct)
	api.GET("/search", h.Search)

	api.GET("/branches", h.ListBranches)
	api.GET("/branches/map", h.BranchMap)
	api.PUT("/session/branch", h.SelectBranch)
	api.DELETE("/session", h.ResetSession)

	api.GET("/cart", h.GetCart)
	api.DELETE("/cart", h.ClearCart)
	api.POST("/cart/items", h.AddCartItem)
	api.PUT("/cart/items/:productId", h.UpdateCartItem)
	api.DELETE("/cart/items/:productId", h.RemoveCartItem)

	api.GET("/checkout", h.GetCheckout)
	api.POST("/checkout", h.PlaceOrder)
	api.GET("/order-success/:id", h.OrderSuccess)

	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/session", h.GetSession)
	api.GET("/profile", h.Profile)

	api.GET("/orders/:id", h.GetOrder)

	admin := e.Group("/api/admin", adminMW)
	admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	admin.DELETE("/orders/:id", h.DeleteOrder)

	// Group middleware registers catch-all routes; these replace them
	api.RouteNotFound("", NotFoundAPI)
	api.RouteNotFound("/*", NotFoundAPI)
	admin.RouteNotFound("", NotFoundAPI)
	admin.RouteNotFound("/*", NotFoundAPI)
	e.RouteNotFound("/*", RedirectHome)
}

// ErrorHandler writes every error as {"error": message}
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if he.Internal != nil {
			logger.FromContext(c).Debug("HTTP error", zap.Error(he.Internal))
		}
		message = fmt.Sprint(he.Message)
	} else {
		logger.FromContext(c).Error("Unhandled error", zap.Error(err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, echo.Map{"error": message})
	}
	if writeErr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(writeErr))
	}
}
