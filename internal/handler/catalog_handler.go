package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/middleware"
	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/internal/search"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
)

const (
	homeProductLimit = 8
	trendingLimit    = 6
	homeBranchLimit  = 3
	relatedLimit     = 4
)

type categoryNode struct {
	model.Category
	Subcategories []model.Category `json:"subcategories"`
}

// Home returns the landing page sections
func (h *Handler) Home(c echo.Context) error {
	log := logger.FromContext(c)

	branches := h.catalog.OpenBranches()
	if len(branches) > homeBranchLimit {
		branches = branches[:homeBranchLimit]
	}

	resp := echo.Map{
		"featured":   productViews(h.catalog.Featured(homeProductLimit)),
		"on_sale":    productViews(h.catalog.OnSale(homeProductLimit)),
		"trending":   productViews(h.catalog.Trending(trendingLimit)),
		"branches":   branchViews(branches),
		"categories": h.catalog.RootCategories(),
	}

	log.Debug("Home page served")
	return c.JSON(http.StatusOK, resp)
}

// ListCategories returns the category tree: sorted roots with their subcategories
func (h *Handler) ListCategories(c echo.Context) error {
	roots := h.catalog.RootCategories()
	tree := make([]categoryNode, len(roots))
	for i, root := range roots {
		subs := h.catalog.Subcategories(root.ID)
		if subs == nil {
			subs = []model.Category{}
		}
		tree[i] = categoryNode{Category: root, Subcategories: subs}
	}
	return c.JSON(http.StatusOK, tree)
}

// GetCategory lists a root category, or one of its subcategories when :parent is set
func (h *Handler) GetCategory(c echo.Context) error {
	log := logger.FromContext(c)

	rootSlug, subSlug := c.Param("slug"), ""
	if parent := c.Param("parent"); parent != "" {
		rootSlug, subSlug = parent, c.Param("slug")
	}

	root, ok := h.catalog.RootCategoryBySlug(rootSlug)
	if !ok {
		log.Info("Category not found", zap.String("slug", rootSlug))
		return notFound(c, "Category not found")
	}

	query := catalog.ListingQuery{
		CategoryID: root.ID,
		Sort:       catalog.ParseSortKey(c.QueryParam("sort")),
		Brands:     c.QueryParams()["brand"],
	}

	var subcategory *model.Category
	if subSlug != "" {
		sub, ok := h.catalog.SubcategoryBySlug(root.ID, subSlug)
		if !ok {
			log.Info("Subcategory not found", zap.String("parent", rootSlug), zap.String("slug", subSlug))
			return notFound(c, "Subcategory not found")
		}
		subcategory = &sub
		query.SubcategoryID = sub.ID
	}

	var err error
	if query.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return err
	}
	if query.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return err
	}

	listing := h.catalog.List(query)
	subs := h.catalog.Subcategories(root.ID)
	if subs == nil {
		subs = []model.Category{}
	}

	log.Info("Category listed",
		zap.String("category", root.Slug),
		zap.String("sort", string(query.Sort)),
		zap.Int("count", listing.Total))

	return c.JSON(http.StatusOK, echo.Map{
		"category":      root,
		"subcategory":   subcategory,
		"subcategories": subs,
		"sort":          query.Sort,
		"products":      productViews(listing.Products),
		"brands":        listing.Brands,
		"total":         listing.Total,
	})
}

// priceParam parses an optional finite, non-negative price bound
func priceParam(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		logger.FromContext(c).Warn("Invalid price filter", zap.String(name, raw))
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative number")
	}
	return &v, nil
}

// GetProduct returns a product with its discount and related products
func (h *Handler) GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	slug := c.Param("slug")

	p, ok := h.catalog.ProductBySlug(slug)
	if !ok {
		log.Info("Product not found", zap.String("slug", slug))
		return notFound(c, "Product not found")
	}

	category, _ := h.catalog.CategoryByID(p.CategoryID)
	var subcategory *model.Category
	if p.SubcategoryID != nil {
		if sub, ok := h.catalog.CategoryByID(*p.SubcategoryID); ok {
			subcategory = &sub
		}
	}

	log.Info("Product retrieved",
		zap.String("product_id", p.ID),
		zap.String("slug", p.Slug))

	return c.JSON(http.StatusOK, echo.Map{
		"product":     newProductView(p),
		"category":    category,
		"subcategory": subcategory,
		"related":     productViews(h.catalog.Related(p, relatedLimit)),
	})
}

// Search runs the caller's search. A search replaced by a newer one from the same client gets a 409.
func (h *Handler) Search(c echo.Context) error {
	log := logger.FromContext(c)
	term := c.QueryParam("q")

	res, err := h.search.Search(c.Request().Context(), middleware.ClientID(c), term)
	if err != nil {
		if errors.Is(err, search.ErrSuperseded) {
			log.Debug("Search superseded", zap.String("q", term))
			return respondError(c, err, "Search failed")
		}
		log.Info("Search abandoned", zap.String("q", term), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "Search cancelled",
		})
	}

	log.Info("Search completed", zap.String("q", term), zap.Int("count", res.Total))
	return c.JSON(http.StatusOK, echo.Map{
		"query":    res.Query,
		"products": productViews(res.Products),
		"total":    res.Total,
	})
}

// ListBranches returns branches ordered by province and city, optionally filtered by province
func (h *Handler) ListBranches(c echo.Context) error {
	province := c.QueryParam("province")
	branches := h.catalog.BranchesByProvince(province)

	return c.JSON(http.StatusOK, echo.Map{
		"branches":  branchViews(branches),
		"provinces": h.catalog.Provinces(),
		"province":  province,
		"total":     len(branches),
	})
}

// BranchMap returns every branch with coordinates and the default map viewport
func (h *Handler) BranchMap(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"center":   echo.Map{"lat": -34.6037, "lng": -58.3816},
		"zoom":     12,
		"branches": branchViews(h.catalog.Branches()),
	})
}
