package catalog

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

// UserByCredentials returns the user whose email and password both match exactly.
// Passwords are plaintext in the dataset and compared as such.
func (c *Catalog) UserByCredentials(email, password string) (model.User, bool) {
	idx, ok := c.userByEmail[email]
	if !ok || c.users[idx].Password != password {
		return model.User{}, false
	}
	return c.users[idx], true
}

// UserByID looks a user up by id
func (c *Catalog) UserByID(id string) (model.User, bool) {
	idx, ok := c.userByID[id]
	if !ok {
		return model.User{}, false
	}
	return c.users[idx], true
}

// SeedOrders returns the historical orders bundled with the dataset
func (c *Catalog) SeedOrders() []model.Order {
	out := make([]model.Order, len(c.orders))
	for i, o := range c.orders {
		o.Items = slices.Clone(o.Items)
		out[i] = o
	}
	return out
}

// buildSeedOrders joins order headers with their item rows, snapshotting product name and brand
func (c *Catalog) buildSeedOrders(headers []SeedOrder, rows []SeedOrderItem) ([]model.Order, []error) {
	var problems []error
	index := make(map[string]int, len(headers))
	orders := make([]model.Order, 0, len(headers))

	for _, h := range headers {
		if _, dup := index[h.ID]; dup {
			problems = append(problems, fmt.Errorf("order %s: duplicate id", h.ID))
			continue
		}
		if _, ok := c.userByID[h.UserID]; !ok {
			problems = append(problems, fmt.Errorf("order %s: unknown user %s", h.ID, h.UserID))
		}
		if !h.Status.Valid() {
			problems = append(problems, fmt.Errorf("order %s: unknown status %q", h.ID, h.Status))
		}
		index[h.ID] = len(orders)
		orders = append(orders, model.Order{
			ID:              h.ID,
			UserID:          h.UserID,
			BranchID:        h.BranchID,
			Status:          h.Status,
			DeliveryMethod:  h.DeliveryMethod,
			Total:           h.Total,
			ShippingAddress: h.ShippingAddress,
			PaymentMethod:   h.PaymentMethod,
			CreatedAt:       h.CreatedAt,
			Items:           []model.OrderItem{},
		})
	}

	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			problems = append(problems, fmt.Errorf("order item %s: unknown order %s", row.ID, row.OrderID))
			continue
		}
		p, ok := c.ProductByID(row.ProductID)
		if !ok {
			problems = append(problems, fmt.Errorf("order item %s: unknown product %s", row.ID, row.ProductID))
			continue
		}
		orders[i].Items = append(orders[i].Items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Brand:     p.Brand,
			Quantity:  row.Quantity,
			Price:     row.Price,
		})
	}

	// headers only carry the total; the difference to the item sum is shipping
	for i := range orders {
		subtotal := decimal.Zero
		for _, item := range orders[i].Items {
			subtotal = subtotal.Add(model.LineTotal(item.Price, item.Quantity))
		}
		orders[i].Subtotal = model.Amount(subtotal)
		orders[i].ShippingCost = model.Amount(decimal.NewFromFloat(orders[i].Total).Sub(subtotal))
	}

	return orders, problems
}
