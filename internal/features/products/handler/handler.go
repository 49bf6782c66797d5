package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/server"
	"fruit-fusion/internal/features/products/domain"
	"fruit-fusion/internal/features/products/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const writeTimeout = 15 * time.Second

// ProductHandler handles HTTP requests for products and categories.
type ProductHandler struct {
	service ports.CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service ports.CatalogService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// VisibilityRequest is the body of a visibility toggle.
type VisibilityRequest struct {
	IsVisible bool `json:"isVisible"`
}

// CreateCategoryRequest is the body of a new category.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ListProducts handles GET /products.
// @Summary List visible products
// @Tags Products
// @Produce json
// @Success 200 {object} domain.ProductList
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	return h.list(c, false)
}

// ListAllProducts handles GET /admin/products.
// @Summary List all products, hidden ones included
// @Tags Products
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Success 200 {object} domain.ProductList
// @Failure 401 {object} server.ErrorResponse
// @Router /admin/products [get]
func (h *ProductHandler) ListAllProducts(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *ProductHandler) list(c *fiber.Ctx, includeHidden bool) error {
	list, err := h.service.ListProducts(c.UserContext(), includeHidden)
	if err != nil {
		return h.fail(c, "Failed to list products", err)
	}
	return c.JSON(list)
}

// GetProduct handles GET /products/:id.
// @Summary Get a product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.ProductResult
// @Failure 404 {object} server.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	res, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to fetch product", err)
	}
	return c.JSON(res)
}

// CreateProduct handles POST /admin/products.
// @Summary Create a product
// @Tags Products
// @Accept json
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param product body domain.ProductInput true "Product"
// @Success 201 {object} domain.ProductResult
// @Success 202 {object} domain.ProductResult
// @Failure 400 {object} server.ErrorResponse
// @Router /admin/products [post]
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := h.service.CreateProduct(ctx, in)
	if err != nil {
		return h.fail(c, "Failed to create product", err)
	}
	return c.Status(writeStatus(res.Offline, http.StatusCreated)).JSON(res)
}

// UpdateProduct handles PATCH /admin/products/:id.
// @Summary Update a product
// @Tags Products
// @Accept json
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param id path string true "Product ID"
// @Param product body domain.ProductInput true "Fields to change"
// @Success 200 {object} domain.ProductResult
// @Success 202 {object} domain.ProductResult
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /admin/products/{id} [patch]
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := h.service.UpdateProduct(ctx, c.Params("id"), in)
	if err != nil {
		return h.fail(c, "Failed to update product", err)
	}
	return c.Status(writeStatus(res.Offline, http.StatusOK)).JSON(res)
}

// SetVisibility handles PUT /admin/products/:id/visibility.
// @Summary Show or hide a product
// @Tags Products
// @Accept json
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param id path string true "Product ID"
// @Param visibility body VisibilityRequest true "Visibility"
// @Success 200 {object} domain.ProductResult
// @Success 202 {object} domain.ProductResult
// @Failure 404 {object} server.ErrorResponse
// @Router /admin/products/{id}/visibility [put]
func (h *ProductHandler) SetVisibility(c *fiber.Ctx) error {
	var req VisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := h.service.SetVisibility(ctx, c.Params("id"), req.IsVisible)
	if err != nil {
		return h.fail(c, "Failed to change product visibility", err)
	}
	return c.Status(writeStatus(res.Offline, http.StatusOK)).JSON(res)
}

// DeleteProduct handles DELETE /admin/products/:id.
// @Summary Delete a product
// @Tags Products
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]any
// @Success 202 {object} map[string]any
// @Failure 500 {object} server.ErrorResponse
// @Router /admin/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	offline, err := h.service.DeleteProduct(ctx, c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to delete product", err)
	}
	return c.Status(writeStatus(offline, http.StatusOK)).JSON(fiber.Map{
		"message": "Product deleted",
		"offline": offline,
	})
}

// ListCategories handles GET /categories.
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} domain.CategoryList
// @Router /categories [get]
func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	list, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return h.fail(c, "Failed to list categories", err)
	}
	return c.JSON(list)
}

// CreateCategory handles POST /admin/categories.
// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param category body CreateCategoryRequest true "Category"
// @Success 201 {object} domain.CategoryResult
// @Success 202 {object} domain.CategoryResult
// @Failure 400 {object} server.ErrorResponse
// @Router /admin/categories [post]
func (h *ProductHandler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := h.service.CreateCategory(ctx, req.Name, req.Image)
	if err != nil {
		return h.fail(c, "Failed to create category", err)
	}
	return c.Status(writeStatus(res.Offline, http.StatusCreated)).JSON(res)
}

func writeStatus(offline bool, online int) int {
	if offline {
		return http.StatusAccepted
	}
	return online
}

func (h *ProductHandler) fail(c *fiber.Ctx, logMsg string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return server.RespondError(c, http.StatusBadRequest, "Name is required")
	case errors.Is(err, domain.ErrProductNotFound):
		return server.RespondError(c, http.StatusNotFound, "Product not found")
	}

	logger.Get().Error(logMsg, zap.String("ray_id", server.RayID(c)), zap.Error(err))
	return server.RespondError(c, http.StatusInternalServerError, err.Error())
}
