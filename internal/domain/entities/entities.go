package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserHasTasks       = errors.New("user has existing tasks")
	ErrForbidden          = errors.New("not the owner of this task")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("validation failed")
)

// User represents an account in the system
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Task represents a single to-do item owned by exactly one user
type Task struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	DueDate   *Date     `json:"dueDate" db:"due_date"`
	Completed bool      `json:"completed" db:"completed"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsOwnedBy compares owners by identifier, never by reference.
func (t *Task) IsOwnedBy(user *User) bool {
	return user != nil && t.UserID == user.ID
}

func (t *Task) HasDueDate() bool {
	return t.DueDate != nil
}

// IsOverdue reports whether an incomplete task was due strictly before today.
func (t *Task) IsOverdue(today Date) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(today)
}

func (t *Task) Toggle() {
	t.Completed = !t.Completed
}

// Touch refreshes UpdatedAt. The new value is always strictly later than the
// previous one, even when the clock has not advanced past it.
func (t *Task) Touch(now time.Time) {
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}
