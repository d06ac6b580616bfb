package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/checkout"
	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/internal/storefront"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// GetCheckout returns the quote for ?delivery_method= (default delivery), the open
// branches for pickup and the signed-in user's details to prefill the form.
// An empty cart cannot be checked out and gets a 409.
func (h *Handler) GetCheckout(c echo.Context) error {
	method := model.DeliveryMethod(c.QueryParam("delivery_method"))

	return h.withShopper(c, func(s *storefront.Shopper) error {
		ctx := c.Request().Context()
		if s.Cart.IsEmpty() {
			return respondError(c, checkout.ErrEmptyCart, "Failed to load checkout")
		}

		selected, hasSelected, err := s.Session.SelectedBranch(ctx)
		if err != nil {
			return respondError(c, err, "Failed to load checkout")
		}
		var selectedBranch *branchView
		if hasSelected {
			v := newBranchView(selected)
			selectedBranch = &v
		}

		return c.JSON(http.StatusOK, echo.Map{
			"cart":            newCartView(s.Cart),
			"quote":           h.checkout.Quote(s.Cart, method),
			"branches":        branchViews(h.catalog.OpenBranches()),
			"selected_branch": selectedBranch,
			"user":            s.Session.Current(),
			"payment_methods": []model.PaymentMethod{
				model.PaymentCreditCard, model.PaymentDebitCard, model.PaymentMercadoPago, model.PaymentCash,
			},
		})
	})
}

// PlaceOrder submits the checkout form. Guests may check out.
func (h *Handler) PlaceOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var form checkout.Form
	if err := c.Bind(&form); err != nil {
		log.Warn("Invalid checkout form", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	return h.withShopper(c, func(s *storefront.Shopper) error {
		o, err := h.checkout.PlaceOrder(c.Request().Context(), s.Session.UserID(), s.Cart, form)
		if err != nil {
			return respondError(c, err, "Failed to place order")
		}
		return c.JSON(http.StatusCreated, newOrderView(h.catalog, *o))
	})
}

// OrderSuccess returns a placed order with catalog details for the confirmation page
func (h *Handler) OrderSuccess(c echo.Context) error {
	return h.getOrder(c)
}

// GetOrder returns an order by id
func (h *Handler) GetOrder(c echo.Context) error {
	return h.getOrder(c)
}

func (h *Handler) getOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	o, err := h.orders.ByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to retrieve order")
	}
	if o == nil {
		log.Info("Order not found", zap.String("order_id", id))
		return notFound(c, "Order not found")
	}
	return c.JSON(http.StatusOK, newOrderView(h.catalog, *o))
}

// UpdateStatusRequest changes an order's status
type UpdateStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=pending confirmed preparing ready shipped delivered cancelled"`
}

// UpdateOrderStatus sets an order's status and announces the change
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req UpdateStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	o, err := h.orders.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return respondError(c, err, "Failed to update order status")
	}
	if o == nil {
		log.Info("Order not found", zap.String("order_id", id))
		return notFound(c, "Order not found")
	}

	prometheus.RecordOrderStatusUpdate(string(o.Status))
	h.notifier.StatusUpdated(c.Request().Context(), *o)

	log.Info("Order status updated",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)))
	return c.JSON(http.StatusOK, newOrderView(h.catalog, *o))
}

// DeleteOrder removes an order
func (h *Handler) DeleteOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	deleted, err := h.orders.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete order")
	}
	if !deleted {
		log.Info("Order not found", zap.String("order_id", id))
		return notFound(c, "Order not found")
	}

	log.Info("Order deleted", zap.String("order_id", id))
	return c.NoContent(http.StatusNoContent)
}
