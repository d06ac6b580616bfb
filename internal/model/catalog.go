package model

import (
	"strings"
	"time"
)

// Category is a node of the two-level category tree
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ParentID    *string   `json:"parent_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsRoot reports whether the category has no parent
func (c Category) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// Product is a catalog item. Slug is the external lookup key.
type Product struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Slug                 string    `json:"slug"`
	Description          string    `json:"description"`
	ShortDescription     string    `json:"short_description"`
	Price                float64   `json:"price"`
	CompareAtPrice       *float64  `json:"compare_at_price"`
	CategoryID           string    `json:"category_id"`
	SubcategoryID        *string   `json:"subcategory_id"`
	Brand                string    `json:"brand"`
	RequiresPrescription bool      `json:"requires_prescription"`
	Stock                int       `json:"stock"`
	Images               []string  `json:"images"`
	Tags                 []string  `json:"tags"`
	IsFeatured           bool      `json:"is_featured"`
	IsOnSale             bool      `json:"is_on_sale"`
	CreatedAt            time.Time `json:"created_at"`
}

// InStock reports whether the product can be purchased
func (p Product) InStock() bool {
	return p.Stock > 0
}

// DiscountPercent is the rounded saving against the compare-at price, 0 without one
func (p Product) DiscountPercent() int {
	return DiscountPercent(p.Price, p.CompareAtPrice)
}

// InSubcategory reports whether the product is filed under the given subcategory
func (p Product) InSubcategory(subcategoryID string) bool {
	return p.SubcategoryID != nil && *p.SubcategoryID == subcategoryID
}

// BranchHours holds opening hours keyed by weekday
type BranchHours struct {
	Monday    string `json:"monday,omitempty"`
	Tuesday   string `json:"tuesday,omitempty"`
	Wednesday string `json:"wednesday,omitempty"`
	Thursday  string `json:"thursday,omitempty"`
	Friday    string `json:"friday,omitempty"`
	Saturday  string `json:"saturday,omitempty"`
	Sunday    string `json:"sunday,omitempty"`
}

// DefaultHoursSummary is shown for branches without published hours
const DefaultHoursSummary = "Lunes a Sábados: 8:00 - 22:00"

// Summary renders the week as "Lunes: 8-20, Martes: ..." skipping days without hours
func (h BranchHours) Summary() string {
	days := []struct {
		label string
		hours string
	}{
		{"Lunes", h.Monday},
		{"Martes", h.Tuesday},
		{"Miércoles", h.Wednesday},
		{"Jueves", h.Thursday},
		{"Viernes", h.Friday},
		{"Sábado", h.Saturday},
		{"Domingo", h.Sunday},
	}

	var parts []string
	for _, d := range days {
		if d.hours != "" {
			parts = append(parts, d.label+": "+d.hours)
		}
	}
	if len(parts) == 0 {
		return DefaultHoursSummary
	}
	return strings.Join(parts, ", ")
}

// Branch is a physical store
type Branch struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	City       string      `json:"city"`
	Province   string      `json:"province"`
	PostalCode string      `json:"postal_code"`
	Phone      string      `json:"phone"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	Hours      BranchHours `json:"hours"`
	IsOpen     bool        `json:"is_open"`
	CreatedAt  time.Time   `json:"created_at"`
}
