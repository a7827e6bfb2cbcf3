package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// MeditationHandler handles meditation requests
type MeditationHandler struct {
	meditationService *services.MeditationService
	logger            *logger.Logger
}

// NewMeditationHandler creates a new meditation handler
func NewMeditationHandler(meditationService *services.MeditationService, logger *logger.Logger) *MeditationHandler {
	return &MeditationHandler{
		meditationService: meditationService,
		logger:            logger,
	}
}

// List returns every meditation
// @Summary List meditations
// @Tags meditations
// @Produce json
// @Success 200 {array} entities.Meditation
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /meditations [get]
func (h *MeditationHandler) List(c echo.Context) error {
	items, err := h.meditationService.List(c.Request().Context())
	if err != nil {
		return errorFor(c, h.logger, "list meditations", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create adds a meditation
// @Summary Create meditation
// @Tags meditations
// @Accept json
// @Produce json
// @Param request body ports.CreateMeditationRequest true "Meditation data"
// @Success 201 {object} entities.Meditation
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /meditations [post]
func (h *MeditationHandler) Create(c echo.Context) error {
	var req ports.CreateMeditationRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.meditationService.Create(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "create meditation", err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update replaces a meditation
// @Summary Update meditation
// @Tags meditations
// @Accept json
// @Produce json
// @Param request body ports.UpdateMeditationRequest true "Meditation data"
// @Success 200 {object} entities.Meditation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /meditations [put]
func (h *MeditationHandler) Update(c echo.Context) error {
	var req ports.UpdateMeditationRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.meditationService.Update(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "update meditation", err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete removes a meditation
// @Summary Delete meditation
// @Tags meditations
// @Accept json
// @Produce json
// @Param request body ports.DeleteRequest false "Record id, when not given in the path"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /meditations [delete]
func (h *MeditationHandler) Delete(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return err
	}

	resp, err := h.meditationService.Delete(c.Request().Context(), id)
	if err != nil {
		return errorFor(c, h.logger, "delete meditation", err)
	}
	return c.JSON(http.StatusOK, resp)
}
