package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// UserHandler handles user requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List returns every user
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} entities.User
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	items, err := h.userService.List(c.Request().Context())
	if err != nil {
		return errorFor(c, h.logger, "list users", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create adds a user
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param request body ports.CreateUserRequest true "User data"
// @Success 201 {object} entities.User
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.userService.Create(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "create user", err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update replaces a user
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param request body ports.UpdateUserRequest true "User data"
// @Success 200 {object} entities.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req ports.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	item, err := h.userService.Update(c.Request().Context(), req)
	if err != nil {
		return errorFor(c, h.logger, "update user", err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete removes a user
// @Summary Delete user
// @Tags users
// @Accept json
// @Produce json
// @Param request body ports.DeleteRequest false "Record id, when not given in the path"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return err
	}

	resp, err := h.userService.Delete(c.Request().Context(), id)
	if err != nil {
		return errorFor(c, h.logger, "delete user", err)
	}
	return c.JSON(http.StatusOK, resp)
}
