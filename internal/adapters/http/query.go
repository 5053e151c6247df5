package http

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/domain/taskquery"
)

// parseFilter reads the optional filter parameters of GET /api/todos. An
// absent or empty parameter leaves the criterion unset.
func parseFilter(c echo.Context) (taskquery.Filter, error) {
	var (
		f   taskquery.Filter
		err error
	)

	if f.Completed, err = optionalBool(c, "completed"); err != nil {
		return f, err
	}
	if f.HasNoDueDate, err = optionalBool(c, "hasNoDueDate"); err != nil {
		return f, err
	}
	if f.DueDateFrom, err = optionalDate(c, "dueDateFrom"); err != nil {
		return f, err
	}
	if f.DueDateTo, err = optionalDate(c, "dueDateTo"); err != nil {
		return f, err
	}
	if kw := c.QueryParam("keyword"); kw != "" {
		f.Keyword = &kw
	}

	return f, nil
}

func parseSort(c echo.Context) taskquery.Sort {
	return taskquery.ParseSort(c.QueryParam("sortBy"), c.QueryParam("sortDirection"))
}

func optionalBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("%s must be true or false, got %q", name, raw)
	}
	return &v, nil
}

func optionalDate(c echo.Context, name string) (*entities.Date, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := entities.ParseDate(raw)
	if err != nil {
		return nil, badRequest("%s must be a date in YYYY-MM-DD form, got %q", name, raw)
	}
	return &d, nil
}

func pathTaskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid task id %q", c.Param("id"))
	}
	return id, nil
}
