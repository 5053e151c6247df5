// Package seed loads sample users and tasks from a TOML fixture file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
)

// File is the fixture layout:
//
//	[[users]]
//	username = "demo"
//
//	[[users.todos]]
//	title = "Write docs"
//	due_in_days = 3
type File struct {
	Users []User `toml:"users"`
}

type User struct {
	Username string `toml:"username"`
	// Password may be empty; such an account owns tasks but cannot log in.
	Password string `toml:"password"`
	Todos    []Todo `toml:"todos"`
}

// Todo sets at most one of DueDate (YYYY-MM-DD) and DueInDays (relative to
// the day the seed runs).
type Todo struct {
	Title     string `toml:"title"`
	DueDate   string `toml:"due_date"`
	DueInDays *int   `toml:"due_in_days"`
	Completed bool   `toml:"completed"`
}

// Result summarizes one Apply run.
type Result struct {
	UsersCreated int
	UsersSkipped int
	TodosCreated int
}

// LoadFile decodes and validates a fixture file. Unknown keys are an error so
// that typos do not silently drop data.
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("seed file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the fixture before anything is written.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("%w: users[%d] has no username", entities.ErrValidation, i)
		}
		if seen[u.Username] {
			return fmt.Errorf("%w: user %q listed twice", entities.ErrValidation, u.Username)
		}
		seen[u.Username] = true

		for j, t := range u.Todos {
			if strings.TrimSpace(t.Title) == "" {
				return fmt.Errorf("%w: %s todo %d has no title", entities.ErrValidation, u.Username, j)
			}
			if t.DueDate != "" && t.DueInDays != nil {
				return fmt.Errorf("%w: %s todo %q sets both due_date and due_in_days", entities.ErrValidation, u.Username, t.Title)
			}
			if t.DueDate != "" {
				if _, err := entities.ParseDate(t.DueDate); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Seeder writes fixtures through the services so the usual invariants hold.
type Seeder struct {
	users  *services.UserService
	tasks  *services.TaskService
	logger *logger.Logger
	now    func() time.Time
}

func NewSeeder(users *services.UserService, tasks *services.TaskService, logger *logger.Logger) *Seeder {
	return &Seeder{
		users:  users,
		tasks:  tasks,
		logger: logger.WithComponent("seed"),
		now:    time.Now,
	}
}

// Apply creates every listed user that does not exist yet together with its
// todos. Existing users are left untouched, so running a seed twice is safe.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	today := entities.DateOf(s.now())

	for _, fu := range f.Users {
		_, err := s.users.FindByName(ctx, fu.Username)
		switch {
		case err == nil:
			s.logger.Infow("Seed user already exists, skipping", "username", fu.Username)
			res.UsersSkipped++
			continue
		case !errors.Is(err, entities.ErrUserNotFound):
			return res, err
		}

		user, err := s.users.Create(ctx, fu.Username, fu.Password)
		if err != nil {
			return res, err
		}
		res.UsersCreated++

		for _, ft := range fu.Todos {
			task, err := s.tasks.Create(ctx, user, ft.Title, ft.due(today))
			if err != nil {
				return res, err
			}
			if ft.Completed {
				if _, err := s.tasks.Toggle(ctx, task.ID, user); err != nil {
					return res, err
				}
			}
			res.TodosCreated++
		}
	}

	s.logger.Infow("Seed applied",
		"users_created", res.UsersCreated,
		"users_skipped", res.UsersSkipped,
		"todos_created", res.TodosCreated,
	)
	return res, nil
}

func (t Todo) due(today entities.Date) *entities.Date {
	switch {
	case t.DueInDays != nil:
		d := today.AddDays(*t.DueInDays)
		return &d
	case t.DueDate != "":
		d := entities.MustParseDate(t.DueDate)
		return &d
	default:
		return nil
	}
}
