package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// Context keys under which the auth middleware stores the caller.
const (
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string                `json:"message"`
	Errors  []entities.FieldError `json:"errors,omitempty"`
}

// errorFor maps service errors onto HTTP errors. Storage failures are logged
// here; their details are not sent to the client.
func errorFor(c echo.Context, log *logger.Logger, op string, err error) error {
	var verr *entities.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{
			Message: verr.Message,
			Errors:  verr.Fields,
		})
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrorResponse{Message: notFoundMessage(err)})
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials"})
	default:
		log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
			WithError(err).
			Errorw(op+" failed", "user", c.Get(ContextUserEmail), "role", c.Get(ContextUserRole))
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{Message: "Failed to " + op})
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, entities.ErrOwnerNotFound):
		return "Owner not found"
	case errors.Is(err, entities.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, entities.ErrMeditationNotFound):
		return "Meditation not found"
	default:
		return "Record not found"
	}
}

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Message: "Invalid request format"})
}

// deleteID reads the record id from the path, falling back to a {"id": ...} body.
func deleteID(c echo.Context) (string, error) {
	if id := c.Param("id"); id != "" {
		return id, nil
	}
	var req ports.DeleteRequest
	if err := c.Bind(&req); err != nil {
		return "", invalidBody()
	}
	return req.ID, nil
}

// AuthHandler handles dashboard login
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles administrator login
// @Summary Log in
// @Description Exchange administrator credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrUnauthorized) {
			h.logger.LogSecurityEvent("login_failed", req.Email, c.RealIP(), nil)
		}
		return errorFor(c, h.logger, "log in", err)
	}

	return c.JSON(http.StatusOK, response)
}

// DashboardHandler serves aggregated metrics
type DashboardHandler struct {
	dashboardService *services.DashboardService
	logger           *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Overview returns dashboard metrics
// @Summary Dashboard overview
// @Description Totals, play activity and user growth computed from every collection
// @Tags dashboard
// @Produce json
// @Success 200 {object} analytics.Overview
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c echo.Context) error {
	overview, err := h.dashboardService.Overview(c.Request().Context())
	if err != nil {
		return errorFor(c, h.logger, "load dashboard", err)
	}
	return c.JSON(http.StatusOK, overview)
}
