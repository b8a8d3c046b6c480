package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewLoggerFormats(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	newLogger(&buf, "prod", "warn").Info("hidden")
	newLogger(&buf, "prod", "warn").Warn("shown", "k", "v")
	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("info leaked through warn level: %s", line)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", line, err)
	}
	if entry["msg"] != "shown" || entry["k"] != "v" {
		t.Fatalf("unexpected entry %v", entry)
	}

	buf.Reset()
	newLogger(&buf, "dev", "debug").Debug("colored")
	if !strings.Contains(buf.String(), "colored") || json.Valid(buf.Bytes()) {
		t.Fatalf("expected text output, got %q", buf.String())
	}
	if ParseLevel("nonsense") != slog.LevelInfo {
		t.Fatalf("unknown levels default to info")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	mw := Middleware{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	router := gin.New()
	router.Use(mw.RequestID(), mw.LoggerMiddleware())
	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if seen != "req-42" || rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Fatalf("request id missing from log: %s", buf.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestReadyzReportsFailingChecks(t *testing.T) {
	t.Parallel()
	health := HealthHandlers{Checks: map[string]Check{
		"db":    func(context.Context) error { return nil },
		"mongo": func(context.Context) error { return errors.New("connection refused") },
	}}
	router := gin.New()
	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("unexpected readyz response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("livez = %d", rec.Code)
	}
}
