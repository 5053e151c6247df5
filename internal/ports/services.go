package ports

import (
	"github.com/google/uuid"

	"github.com/taskmaster/todo/internal/domain/entities"
)

// Auth related types
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Message  string `json:"message,omitempty"`
}

// Claims is the authenticated identity carried by an access token.
type Claims struct {
	UserID   uuid.UUID
	Username string
}

// User related types
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
}

// Task related types
type TaskRequest struct {
	Title   string         `json:"title" validate:"required,notblank,max=255"`
	DueDate *entities.Date `json:"dueDate"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}
