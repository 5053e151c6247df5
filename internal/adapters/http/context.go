package http

import (
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo/internal/domain/entities"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the authenticated account on the request.
func SetCurrentUser(c echo.Context, user *entities.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the account set by the auth middleware.
func CurrentUser(c echo.Context) (*entities.User, error) {
	user, ok := c.Get(currentUserKey).(*entities.User)
	if !ok || user == nil {
		return nil, entities.ErrInvalidToken
	}
	return user, nil
}
