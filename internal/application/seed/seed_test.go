package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/todo/internal/adapters/repository/memory"
	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
)

const sample = `
[[users]]
username = "demo"
password = "demo-password"

[[users.todos]]
title = "Learn Go"
due_in_days = 3

[[users.todos]]
title = "Project setup"
due_in_days = -2
completed = true

[[users.todos]]
title = "Write docs"

[[users]]
username = "test"

[[users.todos]]
title = "Code review"
due_date = "2024-06-10"
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newSeeder(t *testing.T) (*Seeder, *services.UserService, *services.TaskService) {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewNop()
	users := services.NewUserService(store.Users(), store.Tasks(), store, log)
	tasks := services.NewTaskService(store.Tasks(), store, log)
	s := NewSeeder(users, tasks, log)
	s.now = func() time.Time { return time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC) }
	return s, users, tasks
}

func TestLoadAndApply(t *testing.T) {
	f, err := LoadFile(writeSeed(t, sample))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	s, users, tasks := newSeeder(t)
	ctx := context.Background()

	res, err := s.Apply(ctx, f)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.UsersCreated != 2 || res.TodosCreated != 4 || res.UsersSkipped != 0 {
		t.Errorf("unexpected result: %+v", res)
	}

	demo, err := users.FindByName(ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if !demo.HasPassword() {
		t.Error("demo should be able to log in")
	}

	list, _ := tasks.ListWithFilterAndSort(ctx, demo, taskquery.Filter{},
		taskquery.Sort{Field: taskquery.SortByDueDate, Direction: taskquery.Ascending})
	if len(list) != 3 {
		t.Fatalf("demo tasks: got %d", len(list))
	}
	if list[0].Title != "Project setup" || !list[0].Completed || list[0].DueDate.String() != "2024-06-08" {
		t.Errorf("first task: %+v", list[0])
	}
	if list[1].DueDate.String() != "2024-06-13" {
		t.Errorf("relative due date: got %s", list[1].DueDate)
	}
	if list[2].DueDate != nil {
		t.Errorf("undated task got %s", list[2].DueDate)
	}

	testUser, _ := users.FindByName(ctx, "test")
	if testUser.HasPassword() {
		t.Error("test user was given no password")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f, err := LoadFile(writeSeed(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	s, _, _ := newSeeder(t)

	if _, err := s.Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	res, err := s.Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if res.UsersCreated != 0 || res.UsersSkipped != 2 || res.TodosCreated != 0 {
		t.Errorf("second run: %+v", res)
	}
}

func TestLoadFileRejectsBadFixtures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[[users]]\nusername = \"a\"\nemail = \"a@example.com\"\n", "unknown keys"},
		{"missing username", "[[users]]\npassword = \"x\"\n", "no username"},
		{"duplicate user", "[[users]]\nusername = \"a\"\n[[users]]\nusername = \"a\"\n", "twice"},
		{"blank title", "[[users]]\nusername = \"a\"\n[[users.todos]]\ntitle = \" \"\n", "no title"},
		{"both due fields", "[[users]]\nusername = \"a\"\n[[users.todos]]\ntitle = \"x\"\ndue_date = \"2024-01-01\"\ndue_in_days = 1\n", "both"},
		{"bad date", "[[users]]\nusername = \"a\"\n[[users.todos]]\ntitle = \"x\"\ndue_date = \"tomorrow\"\n", "invalid date"},
		{"not toml", "users = [", "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeSeed(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestValidationErrorsAreTyped(t *testing.T) {
	f := &File{Users: []User{{Username: ""}}}
	if err := f.Validate(); !errors.Is(err, entities.ErrValidation) {
		t.Errorf("got %v", err)
	}
}
