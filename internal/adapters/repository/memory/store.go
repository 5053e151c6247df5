// Package memory keeps users and tasks in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/ports"
)

type txKey struct{}

// Store holds both tables. Reads and writes take mu; transactions
// additionally hold txMu for their whole duration so that
// read-check-modify-write sequences never interleave.
type Store struct {
	txMu sync.Mutex

	mu     sync.RWMutex
	users  map[uuid.UUID]*entities.User
	tasks  map[int64]*entities.Task
	nextID int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*entities.User),
		tasks: make(map[int64]*entities.Task),
	}
}

// Users returns the store as a UserRepository
func (s *Store) Users() ports.UserRepository { return (*userRepo)(s) }

// Tasks returns the store as a TaskRepository
func (s *Store) Tasks() ports.TaskRepository { return (*taskRepo)(s) }

// WithinTransaction serializes fn against other transactions. There is no
// rollback: fn's writes stay applied when it fails.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, true))
}

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Stats reports how many rows each table holds.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"users": len(s.users),
		"tasks": len(s.tasks),
	}
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return entities.ErrUserAlreadyExists
		}
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *userRepo) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Username == user.Username {
			return entities.ErrUserAlreadyExists
		}
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return entities.ErrUserNotFound
	}
	for _, t := range r.tasks {
		if t.UserID == id {
			return entities.ErrUserHasTasks
		}
	}
	delete(r.users, id)
	return nil
}

func (r *userRepo) List(_ context.Context) ([]*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*entities.User, 0, len(r.users))
	for _, u := range r.users {
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

type taskRepo Store

func (r *taskRepo) Create(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[task.UserID]; !ok {
		return entities.ErrUserNotFound
	}
	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id int64) (*entities.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// GetByIDForUpdate needs no row lock; the transaction mutex already excludes
// other writers.
func (r *taskRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Task, error) {
	return r.GetByID(ctx, id)
}

func (r *taskRepo) Update(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *taskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *taskRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	return r.collect(func(t *entities.Task) bool { return t.UserID == userID }), nil
}

func (r *taskRepo) ListAll(_ context.Context) ([]*entities.Task, error) {
	return r.collect(func(*entities.Task) bool { return true }), nil
}

func (r *taskRepo) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, t := range r.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *taskRepo) collect(keep func(*entities.Task) bool) []*entities.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*entities.Task, 0)
	for _, t := range r.tasks {
		if keep(t) {
			tasks = append(tasks, t.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}
