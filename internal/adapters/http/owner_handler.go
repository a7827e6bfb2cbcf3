package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// OwnerHandler handles owner requests
type OwnerHandler struct {
	ownerService *services.OwnerService
	logger       *logger.Logger
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(ownerService *services.OwnerService, logger *logger.Logger) *OwnerHandler {
	return &OwnerHandler{
		ownerService: ownerService,
		logger:       logger,
	}
}

// List returns every owner
// @Summary List owners
// @Tags owners
// @Produce json
// @Success 200 {array} entities.Owner
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /owners [get]
func (h *OwnerHandler) List(c echo.Context) error {
	items, err := h.ownerService.List(c.Request().Context())
	if err != nil {
		return errorFor(c, h.logger, "list owners", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create adds a owner
// @Summary Create owner
// @Tags owners
// @Accept json
// @Produce json
// @Param request body ports.CreateOwnerRequest true "Owner data"
// @Success 201 {object} entities.Owner
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /owners [post]
func (h *OwnerHandler) Create(c echo.Context) error {
	var req ports.CreateOwnerRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.ownerService.Create(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "create owner", err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update replaces a owner
// @Summary Update owner
// @Tags owners
// @Accept json
// @Produce json
// @Param request body ports.UpdateOwnerRequest true "Owner data"
// @Success 200 {object} entities.Owner
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /owners [put]
func (h *OwnerHandler) Update(c echo.Context) error {
	var req ports.UpdateOwnerRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.ownerService.Update(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "update owner", err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete removes a owner
// @Summary Delete owner
// @Tags owners
// @Accept json
// @Produce json
// @Param request body ports.DeleteRequest false "Record id, when not given in the path"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /owners [delete]
func (h *OwnerHandler) Delete(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return err
	}

	resp, err := h.ownerService.Delete(c.Request().Context(), id)
	if err != nil {
		return errorFor(c, h.logger, "delete owner", err)
	}
	return c.JSON(http.StatusOK, resp)
}
