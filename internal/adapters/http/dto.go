package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/todo/internal/domain/entities"
)

// TodoResponse is the wire form of a task.
type TodoResponse struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	DueDate   *entities.Date `json:"dueDate"`
	Completed bool           `json:"completed"`
	UserID    uuid.UUID      `json:"userId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// UserResponse is the wire form of an account. It never carries the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTodoResponse(t *entities.Task) TodoResponse {
	return TodoResponse{
		ID:        t.ID,
		Title:     t.Title,
		DueDate:   t.DueDate,
		Completed: t.Completed,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTodoResponses(tasks []*entities.Task) []TodoResponse {
	out := make([]TodoResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTodoResponse(t)
	}
	return out
}

func toUserResponse(u *entities.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
