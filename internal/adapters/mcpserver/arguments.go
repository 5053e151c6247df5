package mcpserver

import (
	"fmt"
	"strconv"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
)

// filterFromArguments maps search_todos arguments onto the engine filter.
// Absent or null arguments leave the predicate unset.
func filterFromArguments(args map[string]any) (taskquery.Filter, error) {
	var (
		f   taskquery.Filter
		err error
	)
	if f.Completed, err = boolArgument(args, "completed"); err != nil {
		return f, err
	}
	if f.HasNoDueDate, err = boolArgument(args, "hasNoDueDate"); err != nil {
		return f, err
	}
	if f.DueDateFrom, err = dateArgument(args, "dueDateFrom"); err != nil {
		return f, err
	}
	if f.DueDateTo, err = dateArgument(args, "dueDateTo"); err != nil {
		return f, err
	}
	if kw := stringArgument(args, "keyword"); kw != "" {
		f.Keyword = &kw
	}
	return f, nil
}

func boolArgument(args map[string]any, name string) (*bool, error) {
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case bool:
		return &v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", name, v)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
}

func dateArgument(args map[string]any, name string) (*entities.Date, error) {
	raw := stringArgument(args, name)
	if raw == "" {
		return nil, nil
	}
	d, err := entities.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD form, got %q", name, raw)
	}
	return &d, nil
}

func stringArgument(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}
