package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmaster/todo/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*entities.User, error)
}

// TaskRepository defines the interface for task data operations.
// Lists are returned in id order; ordering for callers is the engine's job.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	// GetByIDForUpdate locks the row for the rest of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)
	ListAll(ctx context.Context) ([]*entities.Task, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Transactor runs fn atomically. Repositories called with the context handed
// to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger reports storage liveness for the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by storage that can describe its current load.
// The readiness endpoint includes the figures when available.
type StatsReporter interface {
	Stats() map[string]interface{}
}
