package services

import (
	"context"
	"testing"
	"time"

	"github.com/taskmaster/todo/internal/adapters/repository/memory"
	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/config"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
)

// fakeClock returns a fixed instant until advanced.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store *memory.Store
	clock *fakeClock
	users *UserService
	tasks *TaskService
	auth  *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := &fakeClock{t: time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)}
	log := logger.NewNop()

	users := NewUserService(store.Users(), store.Tasks(), store, log)
	users.SetClock(clock.Now)
	tasks := NewTaskService(store.Tasks(), store, log)
	tasks.SetClock(clock.Now)
	auth := NewAuthService(users, config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Issuer:    "todo-test",
	}, log)
	auth.SetClock(clock.Now)

	return &fixture{store: store, clock: clock, users: users, tasks: tasks, auth: auth}
}

func (f *fixture) user(t *testing.T, name string) *entities.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, "")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f *fixture) task(t *testing.T, owner *entities.User, title, due string) *entities.Task {
	t.Helper()
	var d *entities.Date
	if due != "" {
		parsed := entities.MustParseDate(due)
		d = &parsed
	}
	task, err := f.tasks.Create(context.Background(), owner, title, d)
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

func titles(tasks []*entities.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
