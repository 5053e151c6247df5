package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	task := f.task(t, alice, "Buy milk", "2024-06-12")

	if task.ID == 0 {
		t.Error("expected an assigned id")
	}
	if task.Completed {
		t.Error("new task must start incomplete")
	}
	if task.UserID != alice.ID {
		t.Error("owner not recorded")
	}
	if !task.CreatedAt.Equal(f.clock.Now()) || !task.UpdatedAt.Equal(task.CreatedAt) {
		t.Errorf("timestamps: created=%v updated=%v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	task := f.task(t, alice, "Walk dog", "")

	first, err := f.tasks.Toggle(ctx, task.ID, alice)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !first.Completed {
		t.Error("first toggle should complete the task")
	}

	second, err := f.tasks.Toggle(ctx, task.ID, alice)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.Completed {
		t.Error("second toggle should restore incomplete")
	}

	// The clock never moved, yet every mutation must advance updatedAt.
	if !first.UpdatedAt.After(task.UpdatedAt) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updatedAt not strictly increasing: %v, %v, %v", task.UpdatedAt, first.UpdatedAt, second.UpdatedAt)
	}
	if !second.CreatedAt.Equal(task.CreatedAt) {
		t.Error("createdAt changed on toggle")
	}
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	task := f.task(t, alice, "Draft", "2024-06-12")
	f.clock.Advance(time.Minute)

	updated, err := f.tasks.Update(ctx, task.ID, alice, "Final", nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Final" || updated.DueDate != nil {
		t.Errorf("got title=%q due=%v", updated.Title, updated.DueDate)
	}
	if !updated.UpdatedAt.Equal(f.clock.Now()) {
		t.Errorf("updatedAt: got %v, want %v", updated.UpdatedAt, f.clock.Now())
	}

	stored, _ := f.tasks.Get(ctx, task.ID)
	if stored.Title != "Final" {
		t.Error("update not persisted")
	}
}

func TestMutationsByNonOwnerAreForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	task := f.task(t, alice, "Alice's task", "")

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error {
			_, err := f.tasks.GetOwned(ctx, task.ID, bob)
			return err
		}},
		{"update", func() error {
			_, err := f.tasks.Update(ctx, task.ID, bob, "hijacked", nil)
			return err
		}},
		{"toggle", func() error {
			_, err := f.tasks.Toggle(ctx, task.ID, bob)
			return err
		}},
		{"delete", func() error {
			return f.tasks.Delete(ctx, task.ID, bob)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, entities.ErrForbidden) {
				t.Errorf("got %v, want ErrForbidden", err)
			}
		})
	}

	stored, err := f.tasks.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("task should still exist: %v", err)
	}
	if stored.Title != "Alice's task" || stored.Completed || !stored.UpdatedAt.Equal(task.UpdatedAt) {
		t.Errorf("task changed by non-owner: %+v", stored)
	}
}

func TestMissingTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	if _, err := f.tasks.Toggle(ctx, 42, alice); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("toggle: got %v", err)
	}
	if err := f.tasks.Delete(ctx, 42, alice); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("delete: got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	task := f.task(t, alice, "Temp", "")

	if err := f.tasks.Delete(ctx, task.ID, alice); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.tasks.Get(ctx, task.ID); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("after delete: got %v", err)
	}
}

func TestListsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.task(t, alice, "Buy milk", "")
	f.task(t, bob, "Buy MILK too", "")
	f.task(t, alice, "Buy eggs", "")

	got, err := f.tasks.SearchByKeyword(ctx, alice, "milk")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Buy milk"}; !sameStrings(titles(got), want) {
		t.Errorf("search milk: got %v, want %v", titles(got), want)
	}

	got, _ = f.tasks.SearchByKeyword(ctx, alice, "BUY")
	if want := []string{"Buy milk", "Buy eggs"}; !sameStrings(titles(got), want) {
		t.Errorf("search BUY: got %v, want %v", titles(got), want)
	}

	all, _ := f.tasks.ListForUser(ctx, bob)
	if want := []string{"Buy MILK too"}; !sameStrings(titles(all), want) {
		t.Errorf("bob's list: got %v", titles(all))
	}
}

func TestFindOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	f.task(t, alice, "yesterday", "2024-06-09")
	done := f.task(t, alice, "yesterday done", "2024-06-09")
	f.task(t, alice, "today", "2024-06-10")
	f.task(t, alice, "undated", "")
	f.task(t, alice, "last week", "2024-06-03")
	if _, err := f.tasks.Toggle(ctx, done.ID, alice); err != nil {
		t.Fatal(err)
	}

	got, err := f.tasks.FindOverdue(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"yesterday", "last week"}; !sameStrings(titles(got), want) {
		t.Errorf("overdue: got %v, want %v", titles(got), want)
	}
}

func TestListByCompletionAndDueOn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	a := f.task(t, alice, "a", "2024-06-11")
	f.task(t, alice, "b", "2024-06-11")
	f.task(t, alice, "c", "2024-06-12")
	if _, err := f.tasks.Toggle(ctx, a.ID, alice); err != nil {
		t.Fatal(err)
	}

	done, _ := f.tasks.ListByCompletion(ctx, alice, true)
	if want := []string{"a"}; !sameStrings(titles(done), want) {
		t.Errorf("completed: got %v", titles(done))
	}
	open, _ := f.tasks.ListByCompletion(ctx, alice, false)
	if want := []string{"b", "c"}; !sameStrings(titles(open), want) {
		t.Errorf("incomplete: got %v", titles(open))
	}

	due, _ := f.tasks.ListDueOn(ctx, alice, entities.MustParseDate("2024-06-11"))
	if want := []string{"a", "b"}; !sameStrings(titles(due), want) {
		t.Errorf("due on: got %v", titles(due))
	}
}

func TestListWithFilterAndSort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	f.task(t, alice, "Charlie", "2024-06-20")
	f.task(t, alice, "alpha", "")
	f.task(t, alice, "Bravo", "2024-06-15")
	f.task(t, bob, "Delta", "2024-06-01")

	incomplete := false
	got, err := f.tasks.ListWithFilterAndSort(ctx, alice,
		taskquery.Filter{Completed: &incomplete},
		taskquery.Sort{Field: taskquery.SortByTitle, Direction: taskquery.Ascending},
	)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Bravo", "Charlie", "alpha"}; !sameStrings(titles(got), want) {
		t.Errorf("title asc: got %v, want %v", titles(got), want)
	}

	all, _ := f.tasks.ListAll(ctx, taskquery.Filter{}, taskquery.Sort{Field: taskquery.SortByDueDate, Direction: taskquery.Ascending})
	if want := []string{"Delta", "Bravo", "Charlie", "alpha"}; !sameStrings(titles(all), want) {
		t.Errorf("all by due date: got %v, want %v", titles(all), want)
	}
}
