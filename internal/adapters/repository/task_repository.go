package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/database"
	"github.com/taskmaster/todo/internal/ports"
)

const taskColumns = `id, title, due_date, completed, user_id, created_at, updated_at`

// TaskRepositoryImpl stores tasks in the todos table
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO todos (title, due_date, completed, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		task.Title, task.DueDate, task.Completed, task.UserID, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("create task: %w", translate(err, nil, entities.ErrUserNotFound))
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM todos WHERE id = $1`, id)
}

func (r *TaskRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM todos WHERE id = $1 FOR UPDATE`, id)
}

func (r *TaskRepositoryImpl) get(ctx context.Context, query string, id int64) (*entities.Task, error) {
	var task entities.Task
	err := r.db.Conn(ctx).GetContext(ctx, &task, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE todos
		SET title = $2, due_date = $3, completed = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.db.Conn(ctx).ExecContext(ctx, query,
		task.ID, task.Title, task.DueDate, task.Completed, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return expectOneRow(result, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return expectOneRow(result, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM todos WHERE user_id = $1 ORDER BY id`

	var tasks []*entities.Task
	if err := r.db.Conn(ctx).SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list tasks by user: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListAll(ctx context.Context) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM todos ORDER BY id`

	var tasks []*entities.Task
	if err := r.db.Conn(ctx).SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Conn(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM todos WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("count tasks by user: %w", err)
	}

	return count, nil
}
