package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// PlayHandler handles daily play counters
type PlayHandler struct {
	playService *services.PlayService
	logger      *logger.Logger
}

// NewPlayHandler creates a new play handler
func NewPlayHandler(playService *services.PlayService, logger *logger.Logger) *PlayHandler {
	return &PlayHandler{
		playService: playService,
		logger:      logger,
	}
}

// List returns every daily play record
// @Summary List daily plays
// @Tags daily-play
// @Produce json
// @Success 200 {array} entities.DailyPlay
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /daily-play [get]
func (h *PlayHandler) List(c echo.Context) error {
	plays, err := h.playService.List(c.Request().Context())
	if err != nil {
		return errorFor(c, h.logger, "list daily plays", err)
	}
	return c.JSON(http.StatusOK, plays)
}

// RecordPlay counts one play
// @Summary Record a play
// @Description Increments the counter for the given date, creating it with one play if absent
// @Tags daily-play
// @Accept json
// @Produce json
// @Param request body ports.RecordPlayRequest true "Play"
// @Success 200 {object} entities.DailyPlay
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /daily-play [put]
func (h *PlayHandler) RecordPlay(c echo.Context) error {
	var req ports.RecordPlayRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	record, err := h.playService.RecordPlay(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "record play", err)
	}
	return c.JSON(http.StatusOK, record)
}
