package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskmaster/todo/internal/adapters/repository/memory"
	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/config"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// testUserHeader names the account a request acts as. It stands in for the
// bearer-token middleware, which lives with the server.
const testUserHeader = "X-Test-User"

type harness struct {
	e       *echo.Echo
	users   *services.UserService
	tasks   *services.TaskService
	metrics *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logger.NewNop()
	store := memory.NewStore()
	users := services.NewUserService(store.Users(), store.Tasks(), store, log)
	tasks := services.NewTaskService(store.Tasks(), store, log)
	tasks.SetClock(func() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) })
	auth := services.NewAuthService(users, config.JWTConfig{Secret: "s", ExpiresIn: time.Hour, Issuer: "test"}, log)
	metrics := NewMetrics(prometheus.NewRegistry())

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log)

	authHandler := NewAuthHandler(auth, metrics, log)
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)
	e.POST("/api/auth/logout", authHandler.Logout)

	actAs := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := users.FindByName(c.Request().Context(), c.Request().Header.Get(testUserHeader))
			if err != nil {
				return entities.ErrInvalidToken
			}
			SetCurrentUser(c, u)
			return next(c)
		}
	}

	th := NewTaskHandler(tasks, metrics, log)
	todos := e.Group("/api/todos", actAs)
	todos.GET("", th.ListTasks)
	todos.POST("", th.CreateTask)
	todos.GET("/completed", th.ListCompleted)
	todos.GET("/active", th.ListActive)
	todos.GET("/overdue", th.ListOverdue)
	todos.GET("/search", th.Search)
	todos.GET("/due", th.ListDueOn)
	todos.GET("/:id", th.GetTask)
	todos.PUT("/:id", th.UpdateTask)
	todos.PATCH("/:id/toggle", th.ToggleTask)
	todos.DELETE("/:id", th.DeleteTask)

	uh := NewUserHandler(users, log)
	usersGroup := e.Group("/api/users", actAs)
	usersGroup.GET("", uh.ListUsers)
	usersGroup.POST("", uh.CreateUser)
	usersGroup.GET("/:id", uh.GetUser)
	usersGroup.PUT("/:id", uh.UpdateUser)
	usersGroup.DELETE("/:id", uh.DeleteUser)

	return &harness{e: e, users: users, tasks: tasks, metrics: metrics}
}

func (h *harness) user(t *testing.T, name string) *entities.User {
	t.Helper()
	u, err := h.users.Create(context.Background(), name, "")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (h *harness) do(t *testing.T, method, target, as string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != "" {
		req.Header.Set(testUserHeader, as)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, path string) ports.ErrorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[ports.ErrorResponse](t, rec)
	if body.Status != status || body.Error != http.StatusText(status) || body.Path != path || body.Message == "" {
		t.Errorf("unexpected error body: %+v", body)
	}
	return body
}
