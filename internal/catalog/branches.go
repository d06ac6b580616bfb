package catalog

import (
	"slices"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
)

// Branches returns every branch ordered by province, then city
func (c *Catalog) Branches() []model.Branch {
	branches := slices.Clone(c.branches)
	col := newCollator()
	slices.SortStableFunc(branches, func(a, b model.Branch) int {
		if n := col.CompareString(a.Province, b.Province); n != 0 {
			return n
		}
		return col.CompareString(a.City, b.City)
	})
	return branches
}

// BranchesByProvince filters Branches by province. An empty province returns all.
func (c *Catalog) BranchesByProvince(province string) []model.Branch {
	branches := c.Branches()
	if province == "" {
		return branches
	}
	var out []model.Branch
	for _, b := range branches {
		if b.Province == province {
			out = append(out, b)
		}
	}
	return out
}

// Provinces lists the distinct provinces in branch order
func (c *Catalog) Provinces() []string {
	var out []string
	for _, b := range c.Branches() {
		if !slices.Contains(out, b.Province) {
			out = append(out, b.Province)
		}
	}
	return out
}

// OpenBranches returns open branches in dataset order
func (c *Catalog) OpenBranches() []model.Branch {
	var out []model.Branch
	for _, b := range c.branches {
		if b.IsOpen {
			out = append(out, b)
		}
	}
	return out
}

// BranchByID looks a branch up by id
func (c *Catalog) BranchByID(id string) (model.Branch, bool) {
	idx, ok := c.branchByID[id]
	if !ok {
		return model.Branch{}, false
	}
	return c.branches[idx], true
}
