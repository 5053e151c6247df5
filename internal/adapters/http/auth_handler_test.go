package http

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/taskmaster/todo/internal/ports"
)

func TestRegisterEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"alice","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[ports.AuthResponse](t, rec)
	if resp.Token == "" || resp.Username != "alice" || resp.Message == "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	expectError(t, h.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"alice","password":"password123"}`),
		http.StatusConflict, "/api/auth/register")

	tests := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"al","password":"password123"}`},
		{"short password", `{"username":"bobby","password":"short"}`},
		{"missing password", `{"username":"bobby"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, h.do(t, http.MethodPost, "/api/auth/register", "", tt.body), http.StatusBadRequest, "/api/auth/register")
		})
	}

	if got := testutil.ToFloat64(h.metrics.authAttempts.WithLabelValues("register", "success")); got != 1 {
		t.Errorf("register success counter: got %v", got)
	}
	if got := testutil.ToFloat64(h.metrics.authAttempts.WithLabelValues("register", "failure")); got != 1 {
		t.Errorf("register failure counter: got %v", got)
	}
}

func TestLoginEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/auth/register", "", `{"username":"alice","password":"password123"}`)

	rec := h.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	if decode[ports.AuthResponse](t, rec).Token == "" {
		t.Error("missing token")
	}

	expectError(t, h.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong-password"}`),
		http.StatusUnauthorized, "/api/auth/login")
	expectError(t, h.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"nobody","password":"password123"}`),
		http.StatusUnauthorized, "/api/auth/login")

	if got := testutil.ToFloat64(h.metrics.authAttempts.WithLabelValues("login", "failure")); got != 2 {
		t.Errorf("login failure counter: got %v", got)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if decode[ports.MessageResponse](t, rec).Message == "" {
		t.Error("expected a message")
	}
}
