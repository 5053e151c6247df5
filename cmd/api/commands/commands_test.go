package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taskmaster/todo/internal/infrastructure/config"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("output %q lacks version %q", out, Version)
	}
}

func TestUserCreate(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "user", "create", "--username", "alice", "--password", "pw")
	if err != nil {
		t.Fatalf("user create: %v", err)
	}
	if !strings.Contains(out, "Username: alice") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "cannot log in") {
		t.Errorf("user with password reported as unable to log in: %q", out)
	}

	out, err = run(t, "user", "create", "--username", "bob")
	if err != nil {
		t.Fatalf("user create without password: %v", err)
	}
	if !strings.Contains(out, "cannot log in") {
		t.Errorf("passwordless user not flagged: %q", out)
	}
}

func TestUserCreateRequiresUsername(t *testing.T) {
	memoryEnv(t)

	if _, err := run(t, "user", "create"); err == nil {
		t.Fatal("expected missing --username to fail")
	}
}

func TestMigrateNeedsPostgres(t *testing.T) {
	memoryEnv(t)

	for _, sub := range []string{"up", "down", "version"} {
		_, err := run(t, "migrate", sub)
		if !errors.Is(err, errNeedsPostgres) {
			t.Errorf("migrate %s: got %v, want errNeedsPostgres", sub, err)
		}
	}
}

func TestSeed(t *testing.T) {
	memoryEnv(t)

	path := filepath.Join(t.TempDir(), "seed.toml")
	fixture := `
[[users]]
username = "carol"
password = "secret"

  [[users.todos]]
  title = "Write report"
  due_in_days = 1

  [[users.todos]]
  title = "Archive inbox"
  completed = true
`
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "seed", "--file", path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Seeded 1 users (0 already present), 2 todos") {
		t.Errorf("unexpected summary %q", out)
	}
}

func TestSeedMissingFile(t *testing.T) {
	memoryEnv(t)

	if _, err := run(t, "seed", "--file", filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected an error for a missing seed file")
	}
}

func TestTodoListEmpty(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "todo", "list", "--sort-by", "TITLE", "--direction", "ASC")
	if err != nil {
		t.Fatalf("todo list: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 1 || !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("expected only the header, got %q", out)
	}
}

func TestTodoListFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "bad completed", args: []string{"--completed", "maybe"}, wantErr: true},
		{name: "bad due-from", args: []string{"--due-from", "06/01/2024"}, wantErr: true},
		{name: "bad no-due-date", args: []string{"--no-due-date", "sometimes"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewTodoCommand()
			list, _, err := cmd.Find([]string{"list"})
			if err != nil {
				t.Fatal(err)
			}
			if err := list.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			_, err = filterFromFlags(list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterFromFlags(t *testing.T) {
	cmd := NewTodoCommand()
	list, _, err := cmd.Find([]string{"list"})
	if err != nil {
		t.Fatal(err)
	}
	args := []string{"--completed", "false", "--keyword", "Go", "--due-from", "2024-06-01", "--due-to", "2024-06-30"}
	if err := list.ParseFlags(args); err != nil {
		t.Fatal(err)
	}

	f, err := filterFromFlags(list)
	if err != nil {
		t.Fatalf("filterFromFlags: %v", err)
	}
	if f.Completed == nil || *f.Completed {
		t.Errorf("Completed = %v, want false", f.Completed)
	}
	if f.Keyword == nil || *f.Keyword != "Go" {
		t.Errorf("Keyword = %v, want Go", f.Keyword)
	}
	if f.DueDateFrom == nil || f.DueDateFrom.String() != "2024-06-01" {
		t.Errorf("DueDateFrom = %v", f.DueDateFrom)
	}
	if f.DueDateTo == nil || f.DueDateTo.String() != "2024-06-30" {
		t.Errorf("DueDateTo = %v", f.DueDateTo)
	}
	if f.HasNoDueDate != nil {
		t.Errorf("HasNoDueDate should be unset, got %v", *f.HasNoDueDate)
	}
}

func TestMCPStopsAtEndOfInput(t *testing.T) {
	memoryEnv(t)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(""))
	root.SetOut(&out)
	root.SetArgs([]string{"mcp"})

	if err := root.Execute(); err != nil {
		t.Fatalf("mcp: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected protocol output: %q", out.String())
	}
}

func TestLogsOffStdout(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"stdout", "stderr"},
		{"", "stderr"},
		{"both", "stderr"},
		{"file", "file"},
	}
	for _, tt := range tests {
		cfg := &config.Config{Logger: config.LoggerConfig{Output: tt.output}}
		logsOffStdout(cfg)
		if cfg.Logger.Output != tt.want {
			t.Errorf("%q: got %q, want %q", tt.output, cfg.Logger.Output, tt.want)
		}
	}
}
