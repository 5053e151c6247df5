package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	metrics     *Metrics
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, metrics *Metrics, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     metrics,
		logger:      logger.WithComponent("auth_handler"),
	}
}

// Register godoc
// @Summary Register a new account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param credentials body ports.RegisterRequest true "Username and password"
// @Success 201 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Register(c.Request().Context(), req)
	h.metrics.authAttempt("register", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, response)
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param credentials body ports.LoginRequest true "Username and password"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	h.metrics.authAttempt("login", err)
	if err != nil {
		h.logger.LogSecurityEvent("login_failed", "", c.RealIP(), map[string]interface{}{
			"username": req.Username,
		})
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; the client discards its token.
// @Tags Authentication
// @Produce json
// @Success 200 {object} ports.MessageResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, h.authService.Logout())
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	return c.Validate(req)
}
