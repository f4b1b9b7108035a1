package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/velomarket/marketplace-auth/internal/api/middleware"
	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

type BannerHandler struct {
	banners ports.BannerRepository
}

func NewBannerHandler(banners ports.BannerRepository) *BannerHandler {
	return &BannerHandler{banners: banners}
}

type createBannerRequest struct {
	Title    string `json:"title" validate:"required,min=2,max=200"`
	ImageURL string `json:"image_url" validate:"required,url"`
	LinkURL  string `json:"link_url" validate:"omitempty,url"`
	IsActive bool   `json:"is_active"`
}

// List returns storefront banners. The route uses optional authentication:
// anonymous callers and ordinary users see active banners, admins also see
// inactive ones.
func (h *BannerHandler) List(c echo.Context) error {
	includeInactive := false
	if user, ok := middleware.IdentityFrom(c); ok && user.Role == domain.RoleAdmin {
		includeInactive = true
	}

	banners, err := h.banners.List(c.Request().Context(), includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]domain.Banner{"banners": banners})
}

// Create adds a banner. Admin only.
func (h *BannerHandler) Create(c echo.Context) error {
	var req createBannerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	banner := &domain.Banner{
		ID:        uuid.NewString(),
		Title:     req.Title,
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		IsActive:  req.IsActive,
		CreatedAt: time.Now().UTC(),
	}

	created, err := h.banners.Create(c.Request().Context(), banner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}
