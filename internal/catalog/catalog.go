// Package catalog holds the static storefront dataset and the read-only queries over it.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/victorcamacaro253/farmacia-web/data"
	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

// ErrInvalidDataset wraps every integrity problem found while loading
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is the on-disk layout of catalog.json
type Dataset struct {
	Categories []model.Category `json:"categories"`
	Products   []model.Product  `json:"products"`
	Branches   []model.Branch   `json:"branches"`
	Users      []model.User     `json:"users"`
	Orders     []SeedOrder      `json:"orders"`
	OrderItems []SeedOrderItem  `json:"order_items"`
}

// SeedOrder is a historical order header; its lines live in SeedOrderItem rows
type SeedOrder struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	BranchID        *string                `json:"branch_id"`
	Status          model.OrderStatus      `json:"status"`
	DeliveryMethod  model.DeliveryMethod   `json:"delivery_method"`
	Total           float64                `json:"total"`
	ShippingAddress *model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   model.PaymentMethod    `json:"payment_method"`
	CreatedAt       time.Time              `json:"created_at"`
}

// SeedOrderItem is one line of a SeedOrder
type SeedOrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Catalog is an immutable, validated view of a Dataset. Safe for concurrent use.
type Catalog struct {
	categories []model.Category
	roots      []model.Category
	products   []model.Product
	branches   []model.Branch
	users      []model.User
	orders     []model.Order

	categoryByID  map[string]int
	productByID   map[string]int
	productBySlug map[string]int
	branchByID    map[string]int
	userByID      map[string]int
	userByEmail   map[string]int
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Load(data.Catalog)
})

// Default returns the embedded dataset. It is parsed once and shared.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// LoadFile loads a dataset from path
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Load(raw)
}

// Load parses and validates a JSON dataset
func Load(raw []byte) (*Catalog, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return New(ds)
}

// New validates ds and builds the lookup indexes
func New(ds Dataset) (*Catalog, error) {
	c := &Catalog{
		categories:    ds.Categories,
		products:      ds.Products,
		branches:      ds.Branches,
		users:         slices.Clone(ds.Users),
		categoryByID:  make(map[string]int, len(ds.Categories)),
		productByID:   make(map[string]int, len(ds.Products)),
		productBySlug: make(map[string]int, len(ds.Products)),
		branchByID:    make(map[string]int, len(ds.Branches)),
		userByID:      make(map[string]int, len(ds.Users)),
		userByEmail:   make(map[string]int, len(ds.Users)),
	}

	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	categorySlugs := make(map[string]bool, len(ds.Categories))
	for i, cat := range ds.Categories {
		if _, dup := c.categoryByID[cat.ID]; dup {
			report("category %s: duplicate id", cat.ID)
		}
		if categorySlugs[cat.Slug] {
			report("category %s: duplicate slug %q", cat.ID, cat.Slug)
		}
		categorySlugs[cat.Slug] = true
		c.categoryByID[cat.ID] = i
	}
	for _, cat := range ds.Categories {
		if cat.IsRoot() {
			continue
		}
		if _, ok := c.categoryByID[*cat.ParentID]; !ok {
			report("category %s: unknown parent %s", cat.ID, *cat.ParentID)
			continue
		}
		if c.hasCycle(cat) {
			report("category %s: parent chain forms a cycle", cat.ID)
		}
	}

	for i, p := range ds.Products {
		if _, dup := c.productByID[p.ID]; dup {
			report("product %s: duplicate id", p.ID)
		}
		if _, dup := c.productBySlug[p.Slug]; dup {
			report("product %s: duplicate slug %q", p.ID, p.Slug)
		}
		c.productByID[p.ID] = i
		c.productBySlug[p.Slug] = i

		if p.Price < 0 {
			report("product %s: negative price", p.ID)
		}
		if p.CompareAtPrice != nil && *p.CompareAtPrice < p.Price {
			report("product %s: compare_at_price below price", p.ID)
		}
		if p.Stock < 0 {
			report("product %s: negative stock", p.ID)
		}
		if _, ok := c.categoryByID[p.CategoryID]; !ok {
			report("product %s: unknown category %s", p.ID, p.CategoryID)
		}
		if p.SubcategoryID != nil {
			idx, ok := c.categoryByID[*p.SubcategoryID]
			switch {
			case !ok:
				report("product %s: unknown subcategory %s", p.ID, *p.SubcategoryID)
			case ds.Categories[idx].IsRoot() || *ds.Categories[idx].ParentID != p.CategoryID:
				report("product %s: subcategory %s is not under %s", p.ID, *p.SubcategoryID, p.CategoryID)
			}
		}
	}

	for i, b := range ds.Branches {
		if _, dup := c.branchByID[b.ID]; dup {
			report("branch %s: duplicate id", b.ID)
		}
		c.branchByID[b.ID] = i
	}

	emails := make(map[string]bool, len(ds.Users))
	for i, u := range ds.Users {
		if _, dup := c.userByID[u.ID]; dup {
			report("user %s: duplicate id", u.ID)
		}
		if emails[u.Email] {
			report("user %s: duplicate email", u.ID)
		}
		emails[u.Email] = true
		c.userByID[u.ID] = i
		c.userByEmail[u.Email] = i
		if u.PreferredBranchID != nil {
			if _, ok := c.branchByID[*u.PreferredBranchID]; !ok {
				report("user %s: unknown preferred branch %s", u.ID, *u.PreferredBranchID)
			}
		}
	}

	orders, orderProblems := c.buildSeedOrders(ds.Orders, ds.OrderItems)
	problems = append(problems, orderProblems...)
	c.orders = orders

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, errors.Join(problems...))
	}

	c.roots = sortedRoots(c.categories)
	return c, nil
}

// hasCycle walks the parent chain; a valid tree reaches a root in fewer steps than there are categories
func (c *Catalog) hasCycle(cat model.Category) bool {
	current := cat
	for steps := 0; steps <= len(c.categories); steps++ {
		if current.IsRoot() {
			return false
		}
		idx, ok := c.categoryByID[*current.ParentID]
		if !ok {
			return false
		}
		current = c.categories[idx]
	}
	return true
}

// Counts reports dataset sizes
func (c *Catalog) Counts() (categories, products, branches int) {
	return len(c.categories), len(c.products), len(c.branches)
}
