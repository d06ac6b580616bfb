// Package checkout turns a cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/cart"
	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/internal/order"
	"github.com/victorcamacaro253/farmacia-web/pkg/config"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// ErrEmptyCart is returned when checking out without items
var ErrEmptyCart = errors.New("cart is empty")

// Form is the submitted checkout form. Address fields are only required for home delivery.
type Form struct {
	DeliveryMethod model.DeliveryMethod `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	BranchID       string               `json:"branch_id" validate:"required_if=DeliveryMethod pickup"`
	PaymentMethod  model.PaymentMethod  `json:"payment_method" validate:"required,oneof=credit_card debit_card mercadopago cash"`
	FullName       string               `json:"full_name" validate:"required_if=DeliveryMethod delivery"`
	Email          string               `json:"email" validate:"required_if=DeliveryMethod delivery,omitempty,email"`
	Phone          string               `json:"phone" validate:"required_if=DeliveryMethod delivery"`
	Address        string               `json:"address" validate:"required_if=DeliveryMethod delivery"`
	City           string               `json:"city" validate:"required_if=DeliveryMethod delivery"`
	Province       string               `json:"province" validate:"required_if=DeliveryMethod delivery"`
	PostalCode     string               `json:"postal_code" validate:"required_if=DeliveryMethod delivery"`
}

func (f Form) shippingAddress() *model.ShippingAddress {
	return &model.ShippingAddress{
		FullName:   f.FullName,
		Email:      f.Email,
		Phone:      f.Phone,
		Address:    f.Address,
		City:       f.City,
		Province:   f.Province,
		PostalCode: f.PostalCode,
	}
}

// Quote is the price breakdown of a cart for a delivery method
type Quote struct {
	DeliveryMethod        model.DeliveryMethod `json:"delivery_method"`
	ItemCount             int                  `json:"item_count"`
	Subtotal              float64              `json:"subtotal"`
	ShippingCost          float64              `json:"shipping_cost"`
	Total                 float64              `json:"total"`
	FreeShippingThreshold float64              `json:"free_shipping_threshold"`
}

// Branches resolves branches. *catalog.Catalog satisfies it.
type Branches interface {
	BranchByID(id string) (model.Branch, bool)
}

// Service validates checkout forms and places orders
type Service struct {
	orders        *order.Store
	branches      Branches
	notifier      *order.Notifier
	validate      *validator.Validate
	shippingCost  decimal.Decimal
	freeThreshold decimal.Decimal
}

// NewService creates a checkout service
func NewService(orders *order.Store, branches Branches, notifier *order.Notifier, cfg config.CheckoutConfig) *Service {
	return &Service{
		orders:        orders,
		branches:      branches,
		notifier:      notifier,
		validate:      NewValidator(),
		shippingCost:  decimal.NewFromFloat(cfg.ShippingCost),
		freeThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
	}
}

// Quote prices the cart. Delivery is free from the threshold upwards; pickup is always free.
func (s *Service) Quote(c *cart.Cart, method model.DeliveryMethod) Quote {
	if !method.Valid() {
		method = model.DeliveryHome
	}

	subtotal := c.Subtotal()
	shipping := decimal.Zero
	if method == model.DeliveryHome && subtotal.LessThan(s.freeThreshold) {
		shipping = s.shippingCost
	}

	return Quote{
		DeliveryMethod:        method,
		ItemCount:             c.TotalItems(),
		Subtotal:              model.Amount(subtotal),
		ShippingCost:          model.Amount(shipping),
		Total:                 model.Amount(subtotal.Add(shipping)),
		FreeShippingThreshold: model.Amount(s.freeThreshold),
	}
}

// Validate checks the form without touching any state
func (s *Service) Validate(form Form) error {
	verr := &ValidationError{}
	if err := s.validate.Struct(form); err != nil {
		converted := FieldErrors(err)
		var fields *ValidationError
		if !errors.As(converted, &fields) {
			return converted
		}
		verr = fields
	}

	if form.DeliveryMethod == model.DeliveryPickup && form.BranchID != "" {
		b, ok := s.branches.BranchByID(form.BranchID)
		switch {
		case !ok:
			verr.add("branch_id", "is not a known branch")
		case !b.IsOpen:
			verr.add("branch_id", "must be an open branch")
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// PlaceOrder validates the form, stores the order, clears the cart and announces the order.
// Nothing is written when validation fails.
func (s *Service) PlaceOrder(ctx context.Context, userID string, c *cart.Cart, form Form) (*model.Order, error) {
	log := logger.FromStdContext(ctx)

	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := s.Validate(form); err != nil {
		return nil, err
	}

	quote := s.Quote(c, form.DeliveryMethod)
	in := order.CreateInput{
		UserID:         userID,
		DeliveryMethod: form.DeliveryMethod,
		Lines:          c.Lines(),
		ShippingCost:   quote.ShippingCost,
		PaymentMethod:  form.PaymentMethod,
	}
	if form.DeliveryMethod == model.DeliveryPickup {
		branchID := form.BranchID
		in.BranchID = &branchID
	} else {
		in.ShippingAddress = form.shippingAddress()
	}

	o, err := s.orders.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := c.Clear(ctx); err != nil {
		// the order stands even if the cart could not be cleared
		log.Error("Failed to clear cart after checkout",
			zap.String("order_id", o.ID),
			zap.Error(err))
	}

	prometheus.RecordOrderCreated(string(o.DeliveryMethod), string(o.PaymentMethod), o.Total)
	log.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.String("delivery_method", string(o.DeliveryMethod)),
		zap.Float64("total", o.Total))

	s.notifier.OrderCreated(ctx, *o)
	return o, nil
}
