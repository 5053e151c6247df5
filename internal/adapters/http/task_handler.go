package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// TaskHandler serves /api/todos. Every route runs behind the auth middleware.
type TaskHandler struct {
	taskService *services.TaskService
	metrics     *Metrics
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, metrics *Metrics, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		metrics:     metrics,
		logger:      logger.WithComponent("task_handler"),
	}
}

// ListTasks godoc
// @Summary List the caller's tasks
// @Description All filters are optional and combine with AND.
// @Tags Todos
// @Security BearerAuth
// @Produce json
// @Param completed query bool false "Completion state"
// @Param dueDateFrom query string false "Earliest due date (YYYY-MM-DD)"
// @Param dueDateTo query string false "Latest due date (YYYY-MM-DD)"
// @Param keyword query string false "Case-insensitive title substring"
// @Param hasNoDueDate query bool false "Only undated (true) or only dated (false)"
// @Param sortBy query string false "TITLE, DUE_DATE, CREATED_AT, UPDATED_AT or COMPLETED"
// @Param sortDirection query string false "ASC or DESC"
// @Success 200 {array} TodoResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /api/todos [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	order := parseSort(c)
	h.logger.Debugw("Listing tasks", "user_id", user.ID, "sort_by", order.Field, "direction", order.Direction)

	tasks, err := h.taskService.ListWithFilterAndSort(c.Request().Context(), user, filter, order)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponses(tasks))
}

func (h *TaskHandler) ListCompleted(c echo.Context) error {
	return h.listByCompletion(c, true)
}

func (h *TaskHandler) ListActive(c echo.Context) error {
	return h.listByCompletion(c, false)
}

func (h *TaskHandler) listByCompletion(c echo.Context, completed bool) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListByCompletion(c.Request().Context(), user, completed)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponses(tasks))
}

// ListOverdue godoc
// @Summary Incomplete tasks due before today
// @Tags Todos
// @Security BearerAuth
// @Produce json
// @Success 200 {array} TodoResponse
// @Router /api/todos/overdue [get]
func (h *TaskHandler) ListOverdue(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.FindOverdue(c.Request().Context(), user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponses(tasks))
}

func (h *TaskHandler) Search(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	keyword := c.QueryParam("keyword")
	if strings.TrimSpace(keyword) == "" {
		return badRequest("keyword is required")
	}

	tasks, err := h.taskService.SearchByKeyword(c.Request().Context(), user, keyword)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponses(tasks))
}

// ListDueOn godoc
// @Summary Tasks due on one date
// @Tags Todos
// @Security BearerAuth
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {array} TodoResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /api/todos/due [get]
func (h *TaskHandler) ListDueOn(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	date, err := optionalDate(c, "date")
	if err != nil {
		return err
	}
	if date == nil {
		return badRequest("date is required")
	}

	tasks, err := h.taskService.ListDueOn(c.Request().Context(), user, *date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponses(tasks))
}

func (h *TaskHandler) GetTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetOwned(c.Request().Context(), id, user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponse(task))
}

// CreateTask godoc
// @Summary Create a task owned by the caller
// @Tags Todos
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param todo body ports.TaskRequest true "Title and optional due date"
// @Success 201 {object} TodoResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /api/todos [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req ports.TaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Create(c.Request().Context(), user, req.Title, req.DueDate)
	if err != nil {
		return err
	}
	h.metrics.taskMutated("create")

	return c.JSON(http.StatusCreated, toTodoResponse(task))
}

func (h *TaskHandler) UpdateTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathTaskID(c)
	if err != nil {
		return err
	}

	var req ports.TaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Update(c.Request().Context(), id, user, req.Title, req.DueDate)
	if err != nil {
		return err
	}
	h.metrics.taskMutated("update")

	return c.JSON(http.StatusOK, toTodoResponse(task))
}

// ToggleTask godoc
// @Summary Flip the completed flag
// @Tags Todos
// @Security BearerAuth
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} TodoResponse
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /api/todos/{id}/toggle [patch]
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Toggle(c.Request().Context(), id, user)
	if err != nil {
		return err
	}
	h.metrics.taskMutated("toggle")

	return c.JSON(http.StatusOK, toTodoResponse(task))
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathTaskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), id, user); err != nil {
		return err
	}
	h.metrics.taskMutated("delete")

	return c.NoContent(http.StatusNoContent)
}
