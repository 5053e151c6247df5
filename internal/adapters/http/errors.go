package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// statusBySentinel is checked in order; the first match wins.
var statusBySentinel = []struct {
	err    error
	status int
}{
	{entities.ErrValidation, http.StatusBadRequest},
	{entities.ErrTaskNotFound, http.StatusNotFound},
	{entities.ErrUserNotFound, http.StatusNotFound},
	{entities.ErrInvalidCredentials, http.StatusUnauthorized},
	{entities.ErrInvalidToken, http.StatusUnauthorized},
	{entities.ErrForbidden, http.StatusForbidden},
	{entities.ErrUserAlreadyExists, http.StatusConflict},
	{entities.ErrUserHasTasks, http.StatusBadRequest},
}

// badRequest reports a malformed request detected before reaching a service.
func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", entities.ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorHandler renders every error as ports.ErrorResponse. Unmapped errors are
// logged and reported as 500 without their text unless echo runs in debug mode.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err)
		if status == http.StatusInternalServerError {
			log.Errorw("Internal server error",
				"error", err,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			if c.Echo().Debug {
				message = err.Error()
			}
		}

		body := ports.ErrorResponse{
			Status:  status,
			Error:   http.StatusText(status),
			Message: message,
			Path:    c.Request().URL.Path,
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(status)
		} else {
			sendErr = c.JSON(status, body)
		}
		if sendErr != nil {
			log.Errorw("Error sending response", "error", sendErr)
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, describeValidation(ve)
	}

	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			if m.err == entities.ErrValidation {
				return m.status, err.Error()
			}
			return m.status, m.err.Error()
		}
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func describeValidation(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required", "notblank":
			parts = append(parts, fmt.Sprintf("%s must not be blank", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
