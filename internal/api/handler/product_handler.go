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

type ProductHandler struct {
	products ports.ProductRepository
}

func NewProductHandler(products ports.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

type updateProductRequest struct {
	Name        string  `json:"name" validate:"omitempty,min=2,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"omitempty,gt=0"`
}

// Get returns a product. Public, no credential required.
func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.products.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// Create adds a product owned by the calling merchant. The route is guarded
// by merchant-or-admin; the owner is always stamped from the identity, never
// taken from the payload.
func (h *ProductHandler) Create(c echo.Context) error {
	user, err := requireIdentity(c)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		MerchantID:  user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := h.products.Create(c.Request().Context(), product)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update modifies a product. The ownership gate has already loaded the
// product and attached it to the context.
func (h *ProductHandler) Update(c echo.Context) error {
	product, ok := middleware.ProductFrom(c)
	if !ok {
		return domain.ErrProductNotFound
	}

	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	product.UpdatedAt = time.Now().UTC()

	if err := h.products.Update(c.Request().Context(), product); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// Delete removes a product after the ownership gate has passed.
func (h *ProductHandler) Delete(c echo.Context) error {
	product, ok := middleware.ProductFrom(c)
	if !ok {
		return domain.ErrProductNotFound
	}

	if err := h.products.Delete(c.Request().Context(), product.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
