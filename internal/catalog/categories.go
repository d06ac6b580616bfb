package catalog

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

// newCollator returns a Spanish collator. Collators are not safe for concurrent use, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.IgnoreCase)
}

func sortedRoots(categories []model.Category) []model.Category {
	var roots []model.Category
	for _, cat := range categories {
		if cat.IsRoot() {
			roots = append(roots, cat)
		}
	}
	col := newCollator()
	slices.SortStableFunc(roots, func(a, b model.Category) int {
		return col.CompareString(a.Name, b.Name)
	})
	return roots
}

// Categories returns every category in dataset order
func (c *Catalog) Categories() []model.Category {
	return slices.Clone(c.categories)
}

// RootCategories returns the top-level categories sorted by name
func (c *Catalog) RootCategories() []model.Category {
	return slices.Clone(c.roots)
}

// Subcategories returns the children of parentID in dataset order
func (c *Catalog) Subcategories(parentID string) []model.Category {
	var subs []model.Category
	for _, cat := range c.categories {
		if !cat.IsRoot() && *cat.ParentID == parentID {
			subs = append(subs, cat)
		}
	}
	return subs
}

// CategoryByID looks a category up by id
func (c *Catalog) CategoryByID(id string) (model.Category, bool) {
	idx, ok := c.categoryByID[id]
	if !ok {
		return model.Category{}, false
	}
	return c.categories[idx], true
}

// CategoryBySlug finds any category with the given slug
func (c *Catalog) CategoryBySlug(slug string) (model.Category, bool) {
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return model.Category{}, false
}

// RootCategoryBySlug finds a top-level category with the given slug
func (c *Catalog) RootCategoryBySlug(slug string) (model.Category, bool) {
	for _, cat := range c.roots {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return model.Category{}, false
}

// SubcategoryBySlug finds a child of parentID with the given slug
func (c *Catalog) SubcategoryBySlug(parentID, slug string) (model.Category, bool) {
	for _, cat := range c.Subcategories(parentID) {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return model.Category{}, false
}
