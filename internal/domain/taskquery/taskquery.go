// Package taskquery narrows and orders task lists. It is pure: no I/O and no
// mutation of the slices it is given.
package taskquery

import (
	"sort"
	"strings"

	"github.com/taskmaster/todo/internal/domain/entities"
)

// SortField selects the task attribute used for ordering.
type SortField string

const (
	SortByTitle     SortField = "TITLE"
	SortByDueDate   SortField = "DUE_DATE"
	SortByCreatedAt SortField = "CREATED_AT"
	SortByUpdatedAt SortField = "UPDATED_AT"
	SortByCompleted SortField = "COMPLETED"
)

// SortDirection is ASC or DESC.
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// Filter is a conjunction of optional predicates. A nil field places no constraint.
type Filter struct {
	Completed    *bool
	DueDateFrom  *entities.Date
	DueDateTo    *entities.Date
	Keyword      *string
	HasNoDueDate *bool
}

// Sort is a field and direction pair. The zero value behaves like DefaultSort.
type Sort struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSort orders newest tasks first.
func DefaultSort() Sort {
	return Sort{Field: SortByCreatedAt, Direction: Descending}
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.Completed == nil && f.DueDateFrom == nil && f.DueDateTo == nil &&
		f.Keyword == nil && f.HasNoDueDate == nil
}

// Matches reports whether a single task satisfies every set predicate.
func (f Filter) Matches(t *entities.Task) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.DueDateFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueDateFrom)) {
		return false
	}
	if f.DueDateTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueDateTo)) {
		return false
	}
	if f.Keyword != nil && !ContainsFold(t.Title, *f.Keyword) {
		return false
	}
	if f.HasNoDueDate != nil && *f.HasNoDueDate == t.HasDueDate() {
		return false
	}
	return true
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Apply filters tasks and then stable-sorts the survivors.
func Apply(tasks []*entities.Task, filter Filter, order Sort) []*entities.Task {
	if filter.IsZero() {
		return SortTasks(tasks, order)
	}
	return SortTasks(FilterTasks(tasks, filter), order)
}

// FilterTasks returns the tasks matching filter, in input order.
func FilterTasks(tasks []*entities.Task, filter Filter) []*entities.Task {
	out := make([]*entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortTasks returns a stably sorted copy of tasks.
func SortTasks(tasks []*entities.Task, order Sort) []*entities.Task {
	order = order.normalized()

	out := make([]*entities.Task, len(tasks))
	copy(out, tasks)

	cmp := comparator(order.Field)
	desc := order.Direction == Descending

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		// Undated tasks trail dated ones whatever the direction.
		if order.Field == SortByDueDate && (a.DueDate == nil || b.DueDate == nil) {
			return a.DueDate != nil && b.DueDate == nil
		}

		c := cmp(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func (s Sort) normalized() Sort {
	def := DefaultSort()
	if !s.Field.IsValid() {
		s.Field = def.Field
	}
	if !s.Direction.IsValid() {
		s.Direction = def.Direction
	}
	return s
}

func comparator(field SortField) func(a, b *entities.Task) int {
	switch field {
	case SortByTitle:
		return func(a, b *entities.Task) int { return strings.Compare(a.Title, b.Title) }
	case SortByDueDate:
		return func(a, b *entities.Task) int { return a.DueDate.Compare(*b.DueDate) }
	case SortByUpdatedAt:
		return func(a, b *entities.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortByCompleted:
		return func(a, b *entities.Task) int { return compareBool(a.Completed, b.Completed) }
	default:
		return func(a, b *entities.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
