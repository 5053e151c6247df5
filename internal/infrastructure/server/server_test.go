package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/todo/internal/adapters/repository/memory"
	"github.com/taskmaster/todo/internal/infrastructure/config"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "todo", Version: "test", Environment: "test"},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080, RequestTimeout: 5 * time.Second, BodyLimit: "1M"},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "todo-test"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func memoryStorage() Storage {
	store := memory.NewStore()
	return Storage{Users: store.Users(), Tasks: store.Tasks(), Tx: store, Health: store}
}

func newTestServer(t *testing.T, cfg *config.Config, storage Storage) *Server {
	t.Helper()
	srv, err := New(cfg, storage, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func call(srv *Server, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, srv *Server, username string) string {
	t.Helper()
	rec := call(srv, http.MethodPost, "/api/auth/register", "", `{"username":"`+username+`","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp ports.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func TestBearerFlow(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())
	token := register(t, srv, "alice")

	rec := call(srv, http.MethodPost, "/api/todos", token, `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec = call(srv, http.MethodGet, "/api/todos", token, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Buy milk") {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFailures(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())
	token := register(t, srv, "alice")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"garbage token", "Bearer not.a.token"},
		{"empty token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d", rec.Code)
			}
			var body ports.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Status != http.StatusUnauthorized || body.Path != "/api/todos" {
				t.Errorf("unexpected body: %+v", body)
			}
		})
	}
}

func TestTokenOfDeletedUserIsRejected(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())
	aliceToken := register(t, srv, "alice")
	bobToken := register(t, srv, "bob")

	bobID := userID(t, srv, aliceToken, "bob")

	if rec := call(srv, http.MethodDelete, "/api/users/"+bobID, aliceToken, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete bob: %d %s", rec.Code, rec.Body.String())
	}
	if rec := call(srv, http.MethodGet, "/api/todos", bobToken, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted user's token: got %d", rec.Code)
	}
}

func userID(t *testing.T, srv *Server, token, username string) string {
	t.Helper()
	rec := call(srv, http.MethodGet, "/api/users", token, "")
	var users []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if u.Username == username {
			return u.ID
		}
	}
	t.Fatalf("user %s not listed", username)
	return ""
}

func TestTokenDoesNotFollowReusedName(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())
	aliceToken := register(t, srv, "alice")
	bobToken := register(t, srv, "bob")

	aliceID := userID(t, srv, bobToken, "alice")
	if rec := call(srv, http.MethodPut, "/api/users/"+aliceID, bobToken, `{"username":"alice2"}`); rec.Code != http.StatusOK {
		t.Fatalf("rename alice: %d %s", rec.Code, rec.Body.String())
	}

	carolToken := register(t, srv, "alice")
	if rec := call(srv, http.MethodPost, "/api/todos", carolToken, `{"title":"carol secret"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec := call(srv, http.MethodGet, "/api/todos", aliceToken, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old token: got %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "carol secret") {
		t.Error("old token leaked the new account's tasks")
	}

	rec = call(srv, http.MethodGet, "/api/todos", carolToken, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "carol secret") {
		t.Errorf("new account: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())

	if rec := call(srv, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("health: %d", rec.Code)
	}
	register(t, srv, "alice")
	rec := call(srv, http.MethodGet, "/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("ready: %d", rec.Code)
	}
	var ready struct {
		Status  string         `json:"status"`
		Storage map[string]int `json:"storage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ready); err != nil {
		t.Fatal(err)
	}
	if ready.Status != "ready" || ready.Storage["users"] != 1 || ready.Storage["tasks"] != 0 {
		t.Errorf("unexpected readiness body: %s", rec.Body.String())
	}

	storage := memoryStorage()
	storage.Health = failingPinger{}
	down := newTestServer(t, testConfig(), storage)
	if rec := call(down, http.MethodGet, "/ready", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with failing store: %d", rec.Code)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())
	token := register(t, srv, "alice")
	call(srv, http.MethodPost, "/api/todos", token, `{"title":"counted"}`)

	rec := call(srv, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`todo_task_mutations_total{operation="create"} 1`,
		`todo_auth_attempts_total{operation="register",result="success"} 1`,
		`http_requests_total{method="POST",path="/api/todos",status="201"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	srv := newTestServer(t, cfg, memoryStorage())

	if rec := call(srv, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("metrics should be absent, got %d", rec.Code)
	}
	// Handlers must cope with the missing collectors.
	token := register(t, srv, "alice")
	if rec := call(srv, http.MethodPost, "/api/todos", token, `{"title":"x"}`); rec.Code != http.StatusCreated {
		t.Errorf("create without metrics: %d", rec.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, testConfig(), memoryStorage())

	rec := call(srv, http.MethodGet, "/health", "", "")
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitRequests = 2
	cfg.Security.RateLimitWindow = time.Minute
	srv := newTestServer(t, cfg, memoryStorage())

	body := `{"username":"nobody","password":"password123"}`
	for i := 0; i < 2; i++ {
		if rec := call(srv, http.MethodPost, "/api/auth/login", "", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
	if rec := call(srv, http.MethodPost, "/api/auth/login", "", body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d", rec.Code)
	}
	// Ops endpoints are not limited.
	if rec := call(srv, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("health under limit: got %d", rec.Code)
	}
}

func TestStaticClient(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>todo</html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Server.StaticDir = dir
	srv := newTestServer(t, cfg, memoryStorage())

	for _, path := range []string{"/", "/todos/42"} {
		rec := call(srv, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "todo") {
			t.Errorf("%s: %d %q", path, rec.Code, rec.Body.String())
		}
	}

	if rec := call(srv, http.MethodGet, "/api/todos", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("api must not fall through to the client: %d", rec.Code)
	}
}
