package logging

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
	"time"
)

// captureLogOutput redirects the global logger to a buffer for the duration
// of f.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	old := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	defer func() { defaultLogger = old }()
	f()
	return buf.String()
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn, FormatJSON)
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	m := decode(t, out)
	if m["msg"] != "shown" {
		t.Errorf("msg = %v", m["msg"])
	}
	if ts, ok := m["time"].(string); !ok {
		t.Error("missing time")
	} else if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339", ts)
	}
}

func TestInitLoggerTo(t *testing.T) {
	old := defaultLogger
	defer func() {
		defaultLogger = old
		slog.SetDefault(old)
	}()

	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelDebug, FormatText)
	Debug("debug message", "k", "v")
	if GetLogger() != defaultLogger {
		t.Error("GetLogger() is not the initialized logger")
	}
	if out := buf.String(); !strings.Contains(out, "debug message") || !strings.Contains(out, "k=v") {
		t.Errorf("text output = %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty) = %q", got)
	}
	out := captureLogOutput(func() { InfoContext(ctx, "hello") })
	if decode(t, out)["request_id"] != "abc" {
		t.Errorf("request_id missing: %s", out)
	}
}

func TestConversion(t *testing.T) {
	ctx := WithRequestID(context.Background(), "r1")
	out := captureLogOutput(func() {
		Conversion(ctx, "c1", "forward", 1500*time.Millisecond, 2, "extra", "x")
	})
	m := decode(t, out)
	want := map[string]any{
		"msg":           "conversion",
		"conversion_id": "c1",
		"direction":     "forward",
		"duration_ms":   float64(1500),
		"warnings":      float64(2),
		"extra":         "x",
		"request_id":    "r1",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
}

func TestConversionError(t *testing.T) {
	out := captureLogOutput(func() {
		ConversionError(context.Background(), "reverse", errors.New("rule failed"))
	})
	m := decode(t, out)
	if m["level"] != "ERROR" || m["error"] != "rule failed" || m["direction"] != "reverse" {
		t.Errorf("log = %v", m)
	}
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		msg  string
		key  string
		want any
	}{
		{"websocket", func() { WebSocketEvent("connect", 3) }, "websocket_event", "client_count", float64(3)},
		{"startup", func() { ServerStartup("api", "http", 8080) }, "server_startup", "port", float64(8080)},
		{"warn", func() { Warn("careful", "n", 1) }, "careful", "level", "WARN"},
		{"error", func() { Error("broken") }, "broken", "level", "ERROR"},
		{"info", func() { Info("fine") }, "fine", "level", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, captureLogOutput(tt.fn))
			if m["msg"] != tt.msg {
				t.Errorf("msg = %v, want %v", m["msg"], tt.msg)
			}
			if m[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, m[tt.key], tt.want)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusTeapot || rec.Code != http.StatusTeapot {
		t.Errorf("status = %d/%d, want first WriteHeader to win", rw.statusCode, rec.Code)
	}

	rec = httptest.NewRecorder()
	rw = &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	if _, err := rw.Write([]byte("ok")); err != nil {
		t.Fatal(err)
	}
	if !rw.written || rec.Body.String() != "ok" {
		t.Error("Write did not pass through")
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap() did not return the wrapped writer")
	}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Hijack() on a recorder should fail")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("generated id %q, header %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "given" {
		t.Errorf("request id = %q, want the incoming header", seen)
	}
}

func TestCombinedMiddleware(t *testing.T) {
	h := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	out := captureLogOutput(func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/convert/forward", nil))
	})
	m := decode(t, out)
	if m["msg"] != "http_request" || m["path"] != "/convert/forward" || m["status_code"] != float64(http.StatusAccepted) {
		t.Errorf("log = %v", m)
	}
	if id, _ := m["request_id"].(string); id == "" {
		t.Error("request_id not logged")
	}
}
