package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// TaskService handles task-related operations and enforces task ownership.
type TaskService struct {
	taskRepo ports.TaskRepository
	tx       ports.Transactor
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, tx ports.Transactor, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		tx:       tx,
		logger:   logger.WithComponent("task_service"),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for timestamps and overdue checks.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// ListForUser returns every task owned by user in storage order.
func (s *TaskService) ListForUser(ctx context.Context, user *entities.User) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListWithFilterAndSort narrows the user's tasks by filter and orders them.
func (s *TaskService) ListWithFilterAndSort(ctx context.Context, user *entities.User, filter taskquery.Filter, order taskquery.Sort) ([]*entities.Task, error) {
	tasks, err := s.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return taskquery.Apply(tasks, filter, order), nil
}

// ListByCompletion returns the user's tasks whose completed flag equals completed.
func (s *TaskService) ListByCompletion(ctx context.Context, user *entities.User, completed bool) ([]*entities.Task, error) {
	tasks, err := s.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return taskquery.FilterTasks(tasks, taskquery.Filter{Completed: &completed}), nil
}

// FindOverdue returns incomplete tasks due strictly before today.
func (s *TaskService) FindOverdue(ctx context.Context, user *entities.User) ([]*entities.Task, error) {
	tasks, err := s.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}

	today := entities.DateOf(s.now())
	overdue := make([]*entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsOverdue(today) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

// SearchByKeyword matches titles case-insensitively within the user's tasks.
func (s *TaskService) SearchByKeyword(ctx context.Context, user *entities.User, keyword string) ([]*entities.Task, error) {
	tasks, err := s.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return taskquery.FilterTasks(tasks, taskquery.Filter{Keyword: &keyword}), nil
}

// ListDueOn returns the user's tasks due exactly on date.
func (s *TaskService) ListDueOn(ctx context.Context, user *entities.User, date entities.Date) ([]*entities.Task, error) {
	tasks, err := s.ListForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return taskquery.FilterTasks(tasks, taskquery.Filter{DueDateFrom: &date, DueDateTo: &date}), nil
}

// ListAll runs the engine over every task regardless of owner. Administrative use only.
func (s *TaskService) ListAll(ctx context.Context, filter taskquery.Filter, order taskquery.Sort) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return taskquery.Apply(tasks, filter, order), nil
}

// Get retrieves a task by ID without an ownership check.
func (s *TaskService) Get(ctx context.Context, id int64) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// GetOwned retrieves a task and checks that caller owns it.
func (s *TaskService) GetOwned(ctx context.Context, id int64, caller *entities.User) (*entities.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(caller) {
		return nil, fmt.Errorf("read task %d: %w", id, entities.ErrForbidden)
	}
	return task, nil
}

// Create stores a new incomplete task owned by user. The title is expected to
// have been validated by the caller.
func (s *TaskService) Create(ctx context.Context, user *entities.User, title string, dueDate *entities.Date) (*entities.Task, error) {
	now := s.now()
	task := &entities.Task{
		Title:     title,
		DueDate:   dueDate,
		Completed: false,
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "user_id", user.ID)
	return task, nil
}

// Update overwrites title and due date of a task owned by caller.
func (s *TaskService) Update(ctx context.Context, id int64, caller *entities.User, title string, dueDate *entities.Date) (*entities.Task, error) {
	task, err := s.mutateOwned(ctx, id, caller, "update", func(t *entities.Task) {
		t.Title = title
		t.DueDate = dueDate
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task updated", "task_id", id, "user_id", caller.ID)
	return task, nil
}

// Toggle flips the completed flag of a task owned by caller.
func (s *TaskService) Toggle(ctx context.Context, id int64, caller *entities.User) (*entities.Task, error) {
	task, err := s.mutateOwned(ctx, id, caller, "toggle", (*entities.Task).Toggle)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task toggled", "task_id", id, "user_id", caller.ID, "completed", task.Completed)
	return task, nil
}

// Delete permanently removes a task owned by caller.
func (s *TaskService) Delete(ctx context.Context, id int64, caller *entities.User) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		task, err := s.taskRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !task.IsOwnedBy(caller) {
			return entities.ErrForbidden
		}
		return s.taskRepo.Delete(ctx, id)
	})
	if err != nil {
		s.logDenied(err, caller, id, "delete")
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	s.logger.Infow("Task deleted", "task_id", id, "user_id", caller.ID)
	return nil
}

// mutateOwned performs an atomic read-check-modify-write on one task.
func (s *TaskService) mutateOwned(ctx context.Context, id int64, caller *entities.User, op string, apply func(*entities.Task)) (*entities.Task, error) {
	var result *entities.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		task, err := s.taskRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !task.IsOwnedBy(caller) {
			return entities.ErrForbidden
		}

		apply(task)
		task.Touch(s.now())

		if err := s.taskRepo.Update(ctx, task); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		s.logDenied(err, caller, id, op)
		return nil, fmt.Errorf("%s task %d: %w", op, id, err)
	}
	return result, nil
}

func (s *TaskService) logDenied(err error, caller *entities.User, id int64, op string) {
	if !errors.Is(err, entities.ErrForbidden) {
		return
	}
	s.logger.LogSecurityEvent("task_not_owned", caller.ID.String(), "", map[string]interface{}{
		"task_id":   id,
		"operation": op,
	})
}
