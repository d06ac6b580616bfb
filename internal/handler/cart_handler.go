package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/storefront"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// AddItemRequest adds quantity units of a product, one at a time
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// UpdateItemRequest sets a line quantity; zero or less removes the line
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// GetCart returns the caller's cart
func (h *Handler) GetCart(c echo.Context) error {
	return h.withShopper(c, func(s *storefront.Shopper) error {
		return c.JSON(http.StatusOK, newCartView(s.Cart))
	})
}

// AddCartItem adds a product to the cart. Quantities past stock are capped.
func (h *Handler) AddCartItem(c echo.Context) error {
	log := logger.FromContext(c)

	var req AddItemRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	return h.withShopper(c, func(s *storefront.Shopper) error {
		for i := 0; i < req.Quantity; i++ {
			if _, err := s.Cart.Add(c.Request().Context(), req.ProductID); err != nil {
				prometheus.RecordCartOperation("add", err)
				return respondError(c, err, "Failed to add item to cart")
			}
		}
		prometheus.RecordCartOperation("add", nil)

		log.Info("Item added to cart",
			zap.String("product_id", req.ProductID),
			zap.Int("quantity", req.Quantity),
			zap.Int("cart_items", s.Cart.TotalItems()))
		return c.JSON(http.StatusOK, newCartView(s.Cart))
	})
}

// UpdateCartItem changes the quantity of a line
func (h *Handler) UpdateCartItem(c echo.Context) error {
	log := logger.FromContext(c)
	productID := c.Param("productId")

	var req UpdateItemRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	return h.withShopper(c, func(s *storefront.Shopper) error {
		err := s.Cart.UpdateQuantity(c.Request().Context(), productID, *req.Quantity)
		prometheus.RecordCartOperation("update", err)
		if err != nil {
			return respondError(c, err, "Failed to update cart")
		}

		log.Info("Cart line updated",
			zap.String("product_id", productID),
			zap.Int("requested", *req.Quantity),
			zap.Int("quantity", s.Cart.Quantity(productID)))
		return c.JSON(http.StatusOK, newCartView(s.Cart))
	})
}

// RemoveCartItem drops a line; removing an absent product is not an error
func (h *Handler) RemoveCartItem(c echo.Context) error {
	productID := c.Param("productId")

	return h.withShopper(c, func(s *storefront.Shopper) error {
		err := s.Cart.Remove(c.Request().Context(), productID)
		prometheus.RecordCartOperation("remove", err)
		if err != nil {
			return respondError(c, err, "Failed to update cart")
		}

		logger.FromContext(c).Info("Cart line removed", zap.String("product_id", productID))
		return c.JSON(http.StatusOK, newCartView(s.Cart))
	})
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c echo.Context) error {
	return h.withShopper(c, func(s *storefront.Shopper) error {
		err := s.Cart.Clear(c.Request().Context())
		prometheus.RecordCartOperation("clear", err)
		if err != nil {
			return respondError(c, err, "Failed to clear cart")
		}

		logger.FromContext(c).Info("Cart cleared")
		return c.JSON(http.StatusOK, newCartView(s.Cart))
	})
}
