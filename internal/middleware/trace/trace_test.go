package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	applog "extrato/internal/log"
)

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(applog.New(applog.Config{Output: &buf}), func(*http.Request) string { return "10.1.1.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/statement", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a UUID: %v", seen, err)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "client_ip=10.1.1.1") {
		t.Errorf("unexpected log output: %s", out)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("TotalRequests = %d", m.GetMetrics().TotalRequests)
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	m := NewMiddleware(applog.New(applog.Config{Output: &bytes.Buffer{}}), nil)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "upstream-id" {
		t.Errorf("request id = %q, want upstream-id", seen)
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID() = %q", id)
	}
}
