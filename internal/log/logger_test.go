package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, Output: &buf})

	logger.Info("Month loaded", FieldMonth, 3)
	logger.WithComponent(ComponentSheets).Debug("exported")

	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "month=3") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "component=sheets") {
		t.Errorf("component override missing: %s", out)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}),
	))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("request id missing: %s", buf.String())
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("component = %q", l.Component())
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	req := httptest.NewRequest(http.MethodPut, "/api/statement/month", nil)

	sl.LogHTTPEnd(context.Background(), req, 400, 3, "127.0.0.1")
	sl.LogError(context.Background(), "load failed", errors.New("boom"), ComponentAggregator, OpLoad, nil)

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=400") {
		t.Errorf("missing warn record: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error=boom") {
		t.Errorf("missing error record: %s", out)
	}
}

func TestForComponentFollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf}))

	ForComponent(ComponentView).Info("Month load failed", FieldOperation, OpSelect)

	out := buf.String()
	if !strings.Contains(out, "component=month_view") || !strings.Contains(out, "operation=select_month") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "component=app") {
		t.Errorf("default component leaked into output: %s", out)
	}
}
