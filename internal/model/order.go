package model

import "time"

// DeliveryMethod is how an order reaches the customer
type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "delivery"
	DeliveryPickup DeliveryMethod = "pickup"
)

// Valid reports whether m is a known delivery method
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryHome || m == DeliveryPickup
}

// PaymentMethod identifies how the order is paid
type PaymentMethod string

const (
	PaymentCreditCard  PaymentMethod = "credit_card"
	PaymentDebitCard   PaymentMethod = "debit_card"
	PaymentMercadoPago PaymentMethod = "mercadopago"
	PaymentCash        PaymentMethod = "cash"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentCreditCard:  "Tarjeta de Crédito",
	PaymentDebitCard:   "Tarjeta de Débito",
	PaymentMercadoPago: "Mercado Pago",
	PaymentCash:        "Efectivo",
}

// Valid reports whether m is an accepted payment method
func (m PaymentMethod) Valid() bool {
	_, ok := paymentLabels[m]
	return ok
}

// Label is the display name of the payment method
func (m PaymentMethod) Label() string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return string(m)
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is the delivery destination captured at checkout
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
}

// OrderItem snapshots the product at purchase time
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is a placed order. Records are never rewritten except for Status.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	BranchID        *string          `json:"branch_id"`
	Status          OrderStatus      `json:"status"`
	DeliveryMethod  DeliveryMethod   `json:"delivery_method"`
	Items           []OrderItem      `json:"items"`
	Subtotal        float64          `json:"subtotal"`
	ShippingCost    float64          `json:"shipping_cost"`
	Total           float64          `json:"total"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod    `json:"payment_method"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ItemCount is the number of units in the order
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// CartLine is a product held in a cart. Quantity stays within [1, Product.Stock].
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Total is the line price
func (l CartLine) Total() float64 {
	return Amount(LineTotal(l.Product.Price, l.Quantity))
}
