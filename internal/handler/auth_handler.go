package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/middleware"
	"github.com/victorcamacaro253/farmacia-web/internal/storefront"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// LoginRequest defines the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SelectBranchRequest defines the branch selection payload
type SelectBranchRequest struct {
	BranchID string `json:"branch_id" validate:"required"`
}

// Login signs the client in
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	return h.withShopper(c, func(s *storefront.Shopper) error {
		ok, err := s.Session.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err, "Failed to sign in")
		}
		prometheus.RecordAuthAttempt(ok)

		if !ok {
			log.Warn("Login failed", zap.String("email", req.Email))
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error": "Invalid email or password",
			})
		}

		log.Info("User logged in", zap.String("user_id", s.Session.UserID()))
		return c.JSON(http.StatusOK, echo.Map{
			"user": s.Session.Current(),
		})
	})
}

// Logout signs the client out and forgets its selected branch
func (h *Handler) Logout(c echo.Context) error {
	return h.withShopper(c, func(s *storefront.Shopper) error {
		userID := s.Session.UserID()
		if err := s.Session.Logout(c.Request().Context()); err != nil {
			return respondError(c, err, "Failed to sign out")
		}

		logger.FromContext(c).Info("User logged out", zap.String("user_id", userID))
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Logged out",
		})
	})
}

// ResetSession forgets everything about the client: signs out, drops the selected branch and empties the cart
func (h *Handler) ResetSession(c echo.Context) error {
	clientID := middleware.ClientID(c)
	if err := h.provider.Reset(c.Request().Context(), clientID); err != nil {
		return respondError(c, err, "Failed to reset session")
	}

	logger.FromContext(c).Info("Client state reset")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Session reset",
	})
}

// GetSession reports who is signed in and which branch is selected
func (h *Handler) GetSession(c echo.Context) error {
	return h.withShopper(c, func(s *storefront.Shopper) error {
		selected, ok, err := s.Session.SelectedBranch(c.Request().Context())
		if err != nil {
			return respondError(c, err, "Failed to load session")
		}
		var branch *branchView
		if ok {
			v := newBranchView(selected)
			branch = &v
		}

		user := s.Session.Current()
		return c.JSON(http.StatusOK, echo.Map{
			"authenticated":   user != nil,
			"user":            user,
			"selected_branch": branch,
			"cart_items":      s.Cart.TotalItems(),
		})
	})
}

// SelectBranch stores the client's branch
func (h *Handler) SelectBranch(c echo.Context) error {
	log := logger.FromContext(c)

	var req SelectBranchRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	return h.withShopper(c, func(s *storefront.Shopper) error {
		b, err := s.Session.SelectBranch(c.Request().Context(), req.BranchID)
		if err != nil {
			return respondError(c, err, "Failed to select branch")
		}

		log.Info("Branch selected", zap.String("branch_id", b.ID))
		return c.JSON(http.StatusOK, echo.Map{
			"selected_branch": newBranchView(b),
		})
	})
}

// Profile returns the signed-in user with their preferred branch and order history
func (h *Handler) Profile(c echo.Context) error {
	log := logger.FromContext(c)

	return h.withShopper(c, func(s *storefront.Shopper) error {
		ctx := c.Request().Context()
		user := s.Session.Current()
		if user == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error": "Not signed in",
			})
		}

		var preferred *branchView
		if user.PreferredBranchID != nil {
			if b, ok := h.catalog.BranchByID(*user.PreferredBranchID); ok {
				v := newBranchView(b)
				preferred = &v
			}
		}

		selected, ok, err := s.Session.SelectedBranch(ctx)
		if err != nil {
			return respondError(c, err, "Failed to load profile")
		}
		var selectedBranch *branchView
		if ok {
			v := newBranchView(selected)
			selectedBranch = &v
		}

		orders, err := h.orders.ByUser(ctx, user.ID)
		if err != nil {
			return respondError(c, err, "Failed to load orders")
		}

		log.Info("Profile retrieved", zap.String("user_id", user.ID), zap.Int("orders", len(orders)))
		return c.JSON(http.StatusOK, echo.Map{
			"user":             user,
			"preferred_branch": preferred,
			"selected_branch":  selectedBranch,
			"orders":           orderViews(h.catalog, orders),
		})
	})
}
