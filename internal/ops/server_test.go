package ops

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockPinger struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doHealthRequest(t *testing.T, checks ...Check) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()

	handler := healthHandler(time.Second, checks)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	return rec, resp
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	rec, resp := doHealthRequest(t,
		Check{Name: "postgres", Pinger: &mockPinger{}},
		Check{Name: "minio", Pinger: &mockPinger{}},
	)

	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.Checks["postgres"] != "ok" || resp.Checks["minio"] != "ok" {
		t.Errorf("checks = %v, want all ok", resp.Checks)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q, want application/json", got)
	}
}

func TestHealthHandler_DependencyDown(t *testing.T) {
	failing := &mockPinger{
		pingFunc: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}
	rec, resp := doHealthRequest(t,
		Check{Name: "postgres", Pinger: &mockPinger{}},
		Check{Name: "rabbitmq", Pinger: failing},
	)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want %q", resp.Status, "degraded")
	}
	if resp.Checks["postgres"] != "ok" {
		t.Errorf("postgres check = %q, want ok", resp.Checks["postgres"])
	}
	if resp.Checks["rabbitmq"] == "ok" {
		t.Error("rabbitmq check reported ok, want error")
	}
}

func TestHealthHandler_NoChecks(t *testing.T) {
	rec, resp := doHealthRequest(t)

	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
}

func TestNewServer_MetricsRoute(t *testing.T) {
	srv := NewServer(DefaultServerConfig(), discardLogger(), Check{Name: "postgres", Pinger: &mockPinger{}})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("metrics status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}
