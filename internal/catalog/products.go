package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

// SortKey selects a product ordering
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortName      SortKey = "name"
	SortBrand     SortKey = "brand"
)

// ParseSortKey maps a query value to a SortKey, falling back to SortFeatured
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortPriceAsc, SortPriceDesc, SortName, SortBrand:
		return k
	}
	return SortFeatured
}

// Products returns every product in dataset order
func (c *Catalog) Products() []model.Product {
	return slices.Clone(c.products)
}

// ProductByID looks a product up by id
func (c *Catalog) ProductByID(id string) (model.Product, bool) {
	idx, ok := c.productByID[id]
	if !ok {
		return model.Product{}, false
	}
	return c.products[idx], true
}

// ProductBySlug looks a product up by slug
func (c *Catalog) ProductBySlug(slug string) (model.Product, bool) {
	idx, ok := c.productBySlug[slug]
	if !ok {
		return model.Product{}, false
	}
	return c.products[idx], true
}

// FilterByCategory returns the products of categoryID. An empty subcategoryID matches every subcategory.
func (c *Catalog) FilterByCategory(categoryID, subcategoryID string) []model.Product {
	var out []model.Product
	for _, p := range c.products {
		if p.CategoryID != categoryID {
			continue
		}
		if subcategoryID != "" && !p.InSubcategory(subcategoryID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Search matches term case-insensitively against name, brand and tags. A blank term matches nothing.
func (c *Catalog) Search(term string) []model.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var out []model.Product
	for _, p := range c.products {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p model.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Brand), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Related returns up to limit other products from the same category
func (c *Catalog) Related(p model.Product, limit int) []model.Product {
	var out []model.Product
	for _, other := range c.products {
		if len(out) == limit {
			break
		}
		if other.CategoryID == p.CategoryID && other.ID != p.ID {
			out = append(out, other)
		}
	}
	return out
}

// Featured returns up to limit featured products in dataset order
func (c *Catalog) Featured(limit int) []model.Product {
	return c.take(limit, func(p model.Product) bool { return p.IsFeatured })
}

// OnSale returns up to limit on-sale products in dataset order
func (c *Catalog) OnSale(limit int) []model.Product {
	return c.take(limit, func(p model.Product) bool { return p.IsOnSale })
}

// Trending ranks products by merchandising flags and stock depth
func (c *Catalog) Trending(limit int) []model.Product {
	ranked := slices.Clone(c.products)
	slices.SortStableFunc(ranked, func(a, b model.Product) int {
		return cmp.Compare(trendingScore(b), trendingScore(a))
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func trendingScore(p model.Product) int {
	score := 0
	if p.IsFeatured {
		score += 10
	}
	if p.IsOnSale {
		score += 5
	}
	if p.Stock > 100 {
		score += 3
	}
	return score
}

func (c *Catalog) take(limit int, keep func(model.Product) bool) []model.Product {
	var out []model.Product
	for _, p := range c.products {
		if len(out) == limit {
			break
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortProducts returns a sorted copy of products. Ties keep their input order.
func SortProducts(products []model.Product, key SortKey) []model.Product {
	sorted := slices.Clone(products)

	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(sorted, func(a, b model.Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(sorted, func(a, b model.Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortName:
		col := newCollator()
		slices.SortStableFunc(sorted, func(a, b model.Product) int { return col.CompareString(a.Name, b.Name) })
	case SortBrand:
		col := newCollator()
		slices.SortStableFunc(sorted, func(a, b model.Product) int { return col.CompareString(a.Brand, b.Brand) })
	default:
		slices.SortStableFunc(sorted, func(a, b model.Product) int { return cmp.Compare(featuredScore(b), featuredScore(a)) })
	}
	return sorted
}

func featuredScore(p model.Product) int {
	score := 0
	if p.IsFeatured {
		score += 2
	}
	if p.IsOnSale {
		score++
	}
	return score
}

// FilterByPriceRange keeps products priced within [low, high]
func FilterByPriceRange(products []model.Product, low, high float64) []model.Product {
	var out []model.Product
	for _, p := range products {
		if p.Price >= low && p.Price <= high {
			out = append(out, p)
		}
	}
	return out
}

// FilterByBrands keeps products whose brand is in brands. No brands means no filtering.
func FilterByBrands(products []model.Product, brands []string) []model.Product {
	if len(brands) == 0 {
		return slices.Clone(products)
	}
	var out []model.Product
	for _, p := range products {
		if slices.Contains(brands, p.Brand) {
			out = append(out, p)
		}
	}
	return out
}

// Brands lists the distinct non-empty brands of products in first-seen order
func Brands(products []model.Product) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		if p.Brand == "" || seen[p.Brand] {
			continue
		}
		seen[p.Brand] = true
		out = append(out, p.Brand)
	}
	return out
}
