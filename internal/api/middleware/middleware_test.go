package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newEngine(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/echo", func(c *gin.Context) {
		LoggerFromContext(c).Info("inside handler")
		c.String(http.StatusOK, GetCorrelationID(c))
	})
	return r
}

func TestCorrelationID_KeepsValidHeader(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Body.String(); got != "abc-123" {
		t.Fatalf("expected correlation id to be kept, got %q", got)
	}
	if got := w.Header().Get(CorrelationHeader); got != "abc-123" {
		t.Fatalf("expected response header, got %q", got)
	}
	if !strings.Contains(buf.String(), `"correlation_id":"abc-123"`) {
		t.Fatalf("expected request log to carry correlation id, got %s", buf.String())
	}
}

func TestCorrelationID_ReplacesInvalidHeader(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(CorrelationHeader, "bad id with spaces\n")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Body.String()
	if got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected generated correlation id, got %q", got)
	}
}

func TestSlogLogger_QuietRoutes(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if strings.Contains(buf.String(), "request completed") {
		t.Fatalf("health checks should not be logged at info level: %s", buf.String())
	}
}
