package handler

import (
	"github.com/victorcamacaro253/farmacia-web/internal/cart"
	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

type productView struct {
	model.Product
	DiscountPercent int  `json:"discount_percent"`
	InStock         bool `json:"in_stock"`
}

func newProductView(p model.Product) productView {
	return productView{Product: p, DiscountPercent: p.DiscountPercent(), InStock: p.InStock()}
}

func productViews(products []model.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = newProductView(p)
	}
	return out
}

type branchView struct {
	model.Branch
	HoursSummary string `json:"hours_summary"`
}

func newBranchView(b model.Branch) branchView {
	return branchView{Branch: b, HoursSummary: b.Hours.Summary()}
}

func branchViews(branches []model.Branch) []branchView {
	out := make([]branchView, len(branches))
	for i, b := range branches {
		out[i] = newBranchView(b)
	}
	return out
}

type cartLineView struct {
	Product   productView `json:"product"`
	Quantity  int         `json:"quantity"`
	LineTotal float64     `json:"line_total"`
}

type cartView struct {
	Items      []cartLineView `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice float64        `json:"total_price"`
}

func newCartView(c *cart.Cart) cartView {
	lines := c.Lines()
	items := make([]cartLineView, len(lines))
	for i, l := range lines {
		items[i] = cartLineView{Product: newProductView(l.Product), Quantity: l.Quantity, LineTotal: l.Total()}
	}
	return cartView{Items: items, TotalItems: c.TotalItems(), TotalPrice: c.TotalPrice()}
}

type orderItemView struct {
	model.OrderItem
	LineTotal float64        `json:"line_total"`
	Image     string         `json:"image,omitempty"`
	Product   *model.Product `json:"product,omitempty"`
}

type orderView struct {
	model.Order
	Items        []orderItemView `json:"items"`
	ItemCount    int             `json:"item_count"`
	PaymentLabel string          `json:"payment_label"`
	Branch       *branchView     `json:"branch,omitempty"`
}

// newOrderView joins an order with the current catalog. Items keep their snapshot
// even when the product has since left the catalog.
func newOrderView(cat *catalog.Catalog, o model.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, item := range o.Items {
		v := orderItemView{OrderItem: item, LineTotal: model.Amount(model.LineTotal(item.Price, item.Quantity))}
		if p, ok := cat.ProductByID(item.ProductID); ok {
			v.Product = &p
			if len(p.Images) > 0 {
				v.Image = p.Images[0]
			}
		}
		items[i] = v
	}

	view := orderView{
		Order:        o,
		Items:        items,
		ItemCount:    o.ItemCount(),
		PaymentLabel: o.PaymentMethod.Label(),
	}
	if o.BranchID != nil {
		if b, ok := cat.BranchByID(*o.BranchID); ok {
			bv := newBranchView(b)
			view.Branch = &bv
		}
	}
	return view
}

func orderViews(cat *catalog.Catalog, orders []model.Order) []orderView {
	out := make([]orderView, len(orders))
	for i, o := range orders {
		out[i] = newOrderView(cat, o)
	}
	return out
}
