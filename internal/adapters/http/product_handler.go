package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// ProductHandler handles product requests
type ProductHandler struct {
	productService *services.ProductService
	logger         *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *services.ProductService, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// List returns every product
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} entities.Product
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	items, err := h.productService.List(c.Request().Context())
	if err != nil {
		return errorFor(c, h.logger, "list products", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create adds a product
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param request body ports.CreateProductRequest true "Product data"
// @Success 201 {object} entities.Product
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req ports.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.productService.Create(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "create product", err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update replaces a product
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param request body ports.UpdateProductRequest true "Product data"
// @Success 200 {object} entities.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /products [put]
func (h *ProductHandler) Update(c echo.Context) error {
	var req ports.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.productService.Update(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "update product", err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete removes a product
// @Summary Delete product
// @Tags products
// @Accept json
// @Produce json
// @Param request body ports.DeleteRequest false "Record id, when not given in the path"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /products [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return err
	}

	resp, err := h.productService.Delete(c.Request().Context(), id)
	if err != nil {
		return errorFor(c, h.logger, "delete product", err)
	}
	return c.JSON(http.StatusOK, resp)
}
