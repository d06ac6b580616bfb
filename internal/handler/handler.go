package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/cart"
	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/checkout"
	"github.com/victorcamacaro253/farmacia-web/internal/middleware"
	"github.com/victorcamacaro253/farmacia-web/internal/order"
	"github.com/victorcamacaro253/farmacia-web/internal/search"
	"github.com/victorcamacaro253/farmacia-web/internal/session"
	"github.com/victorcamacaro253/farmacia-web/internal/storefront"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
)

// Handler serves the storefront routes
type Handler struct {
	provider *storefront.Provider
	catalog  *catalog.Catalog
	orders   *order.Store
	checkout *checkout.Service
	search   *search.Coordinator
	notifier *order.Notifier
}

// New creates a handler
func New(provider *storefront.Provider, checkoutService *checkout.Service, searches *search.Coordinator, notifier *order.Notifier) *Handler {
	return &Handler{
		provider: provider,
		catalog:  provider.Catalog(),
		orders:   provider.Orders(),
		checkout: checkoutService,
		search:   searches,
		notifier: notifier,
	}
}

// Validator adapts go-playground/validator to echo
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the echo request validator
func NewValidator() *Validator {
	return &Validator{validate: checkout.NewValidator()}
}

func (v *Validator) Validate(i any) error {
	return checkout.FieldErrors(v.validate.Struct(i))
}

// bind decodes and validates the request body. It writes the error response itself
// and reports whether the handler should continue.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		logger.FromContext(c).Warn("Invalid request data", zap.Error(err))
		return false, c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := c.Validate(req); err != nil {
		return false, respondError(c, err, "Invalid request data")
	}
	return true, nil
}

// withShopper runs fn while holding the calling client's state
func (h *Handler) withShopper(c echo.Context, fn func(*storefront.Shopper) error) error {
	shopper, release, err := h.provider.Acquire(c.Request().Context(), middleware.ClientID(c))
	if err != nil {
		return respondError(c, err, "Failed to load client state")
	}
	defer release()
	return fn(shopper)
}

// respondError maps domain errors to status codes. Anything unrecognised is logged and reported as a 500 with message.
func respondError(c echo.Context, err error, message string) error {
	log := logger.FromContext(c)

	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		log.Info("Validation failed", zap.Any("fields", verr.Fields))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	}

	status, public := classify(err)
	if status == http.StatusInternalServerError {
		log.Error(message, zap.Error(err))
		return c.JSON(status, echo.Map{
			"error": message,
		})
	}

	log.Info("Request rejected", zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{
		"error": public,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, "Product is not in the cart"
	case errors.Is(err, session.ErrBranchNotFound):
		return http.StatusNotFound, "Branch not found"
	case errors.Is(err, cart.ErrOutOfStock):
		return http.StatusConflict, "Product is out of stock"
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, order.ErrEmptyOrder):
		return http.StatusConflict, "Cart is empty"
	case errors.Is(err, search.ErrSuperseded):
		return http.StatusConflict, "Search superseded by a newer one"
	case errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest, "Invalid order status"
	case errors.Is(err, storefront.ErrNoClient):
		return http.StatusBadRequest, "Missing client identity"
	default:
		return http.StatusInternalServerError, ""
	}
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"error": message,
	})
}
