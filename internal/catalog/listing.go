package catalog

import (
	"math"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

// ListingQuery describes a category page. Nil price bounds are open.
type ListingQuery struct {
	CategoryID    string
	SubcategoryID string
	Sort          SortKey
	MinPrice      *float64
	MaxPrice      *float64
	Brands        []string
}

// Listing is the result of a ListingQuery
type Listing struct {
	Products []model.Product `json:"products"`
	// Brands are collected before the price and brand filters so the facet list stays stable
	Brands []string `json:"brands"`
	Total  int      `json:"total"`
}

// List filters by category, sorts, then intersects the price and brand filters
func (c *Catalog) List(q ListingQuery) Listing {
	products := SortProducts(c.FilterByCategory(q.CategoryID, q.SubcategoryID), q.Sort)
	brands := Brands(products)

	low, high := 0.0, math.Inf(1)
	if q.MinPrice != nil {
		low = *q.MinPrice
	}
	if q.MaxPrice != nil {
		high = *q.MaxPrice
	}
	products = FilterByBrands(FilterByPriceRange(products, low, high), q.Brands)

	if products == nil {
		products = []model.Product{}
	}
	if brands == nil {
		brands = []string{}
	}
	return Listing{Products: products, Brands: brands, Total: len(products)}
}
