package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// UserHandler handles user-related requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.WithComponent("user_handler"),
	}
}

// ListUsers godoc
// @Summary List accounts
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} UserResponse
// @Router /api/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListAll(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// CreateUser godoc
// @Summary Create an account
// @Description The password is optional; an account without one cannot log in.
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body ports.CreateUserRequest true "New account"
// @Success 201 {object} UserResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /api/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathUserID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Rename(c.Request().Context(), id, req.Username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteUser godoc
// @Summary Delete an account that owns no tasks
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathUserID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrUserHasTasks) {
			h.logger.Warnw("Refused to delete user with tasks", "user_id", id)
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func pathUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid user id %q", c.Param("id"))
	}
	return id, nil
}
