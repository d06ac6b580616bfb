// Package cart implements a client's shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

const cartKey = "cart"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product out of stock")
	ErrLineNotFound    = errors.New("product not in cart")
)

// Products resolves product ids. *catalog.Catalog satisfies it.
type Products interface {
	ProductByID(id string) (model.Product, bool)
}

// StoredLine is the persisted form of a cart line
type StoredLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart holds ordered lines, at most one per product. Not safe for concurrent use.
type Cart struct {
	products Products
	entry    *storage.Entry[[]StoredLine]
	lines    []model.CartLine
}

// New binds a cart to a client's key space. onDiscard may be nil.
func New(store storage.Store, products Products, onDiscard storage.DiscardFunc) *Cart {
	return &Cart{
		products: products,
		entry:    storage.NewEntry(store, cartKey, validateStored).OnDiscard(onDiscard),
	}
}

func validateStored(lines []StoredLine) error {
	for i, l := range lines {
		if l.ProductID == "" {
			return fmt.Errorf("line %d: missing product id", i)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("line %d: quantity %d", i, l.Quantity)
		}
	}
	return nil
}

// Load restores persisted lines, dropping unknown or sold-out products and
// re-clamping quantities to current stock. Adjusted carts are written back.
func (c *Cart) Load(ctx context.Context) error {
	stored, found, err := c.entry.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	c.lines = nil
	if !found {
		return nil
	}

	changed := false
	for _, s := range stored {
		p, ok := c.products.ProductByID(s.ProductID)
		if !ok || p.Stock == 0 || slices.ContainsFunc(c.lines, func(l model.CartLine) bool { return l.Product.ID == p.ID }) {
			changed = true
			continue
		}
		qty := clamp(s.Quantity, p.Stock)
		if qty != s.Quantity {
			changed = true
		}
		c.lines = append(c.lines, model.CartLine{Product: p, Quantity: qty})
	}

	if changed {
		return c.persist(ctx, c.lines)
	}
	return nil
}

// Add puts one unit of the product in the cart, capped at its stock
func (c *Cart) Add(ctx context.Context, productID string) (model.CartLine, error) {
	p, ok := c.products.ProductByID(productID)
	if !ok {
		return model.CartLine{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if p.Stock <= 0 {
		return model.CartLine{}, fmt.Errorf("%w: %s", ErrOutOfStock, productID)
	}

	lines := slices.Clone(c.lines)
	i := indexOf(lines, productID)
	if i < 0 {
		lines = append(lines, model.CartLine{Product: p, Quantity: 1})
		i = len(lines) - 1
	} else {
		lines[i].Product = p
		lines[i].Quantity = clamp(lines[i].Quantity+1, p.Stock)
	}

	if err := c.persist(ctx, lines); err != nil {
		return model.CartLine{}, err
	}
	return lines[i], nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes it; anything else is clamped to [1, stock].
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	i := indexOf(c.lines, productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}
	if quantity <= 0 {
		return c.Remove(ctx, productID)
	}

	lines := slices.Clone(c.lines)
	lines[i].Quantity = clamp(quantity, lines[i].Product.Stock)
	return c.persist(ctx, lines)
}

// Remove drops the product's line; absent products are ignored
func (c *Cart) Remove(ctx context.Context, productID string) error {
	i := indexOf(c.lines, productID)
	if i < 0 {
		return nil
	}
	lines := slices.Delete(slices.Clone(c.lines), i, i+1)
	return c.persist(ctx, lines)
}

// Clear empties the cart
func (c *Cart) Clear(ctx context.Context) error {
	if err := c.entry.Remove(ctx); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	c.lines = nil
	return nil
}

// Lines returns a copy of the cart lines in insertion order
func (c *Cart) Lines() []model.CartLine {
	return slices.Clone(c.lines)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Quantity is the number of units of productID in the cart
func (c *Cart) Quantity(productID string) int {
	if i := indexOf(c.lines, productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// TotalItems is the sum of quantities
func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of price × quantity
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(model.LineTotal(l.Product.Price, l.Quantity))
	}
	return total
}

// TotalPrice is Subtotal as a wire amount
func (c *Cart) TotalPrice() float64 {
	return model.Amount(c.Subtotal())
}

// persist writes lines and only then adopts them, so a failed write leaves memory untouched
func (c *Cart) persist(ctx context.Context, lines []model.CartLine) error {
	stored := make([]StoredLine, len(lines))
	for i, l := range lines {
		stored[i] = StoredLine{ProductID: l.Product.ID, Quantity: l.Quantity}
	}
	if err := c.entry.Save(ctx, stored); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	c.lines = lines
	return nil
}

func indexOf(lines []model.CartLine, productID string) int {
	return slices.IndexFunc(lines, func(l model.CartLine) bool { return l.Product.ID == productID })
}

func clamp(quantity, stock int) int {
	return max(1, min(quantity, stock))
}
