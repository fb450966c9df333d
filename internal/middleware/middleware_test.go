package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-editor/internal/logging"
	"media-editor/internal/metrics"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return &buf
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+">")
				next.ServeHTTP(w, r)
				order = append(order, "<"+name)
			})
		}
	}

	base := NewChain(tag("a"), tag("b"))
	extended := base.Append(tag("c"))

	h := extended.ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := "a> b> c> handler <c <b <a"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if len(base) != 2 {
		t.Errorf("Append modified the original chain: len = %d", len(base))
	}
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newStatusRecorder(w)

	if rw.statusCode != http.StatusOK || rw.wroteHeader {
		t.Fatalf("unexpected initial state: %+v", rw)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", rw.statusCode)
	}

	n, err := rw.Write([]byte("test data"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if rw.bytesWritten != int64(n) {
		t.Errorf("bytesWritten = %d, want %d", rw.bytesWritten, n)
	}

	rw.Flush()
	if !w.Flushed {
		t.Error("Flush should reach the underlying writer")
	}
	if rw.Unwrap() != w {
		t.Error("Unwrap should return the wrapped writer")
	}
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestStatusRecorderHijack(t *testing.T) {
	rw := newStatusRecorder(httptest.NewRecorder())
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Hijack on a non-hijackable writer should fail")
	}

	inner := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = newStatusRecorder(inner)
	conn, _, err := rw.Hijack()
	if err != nil {
		t.Fatalf("Hijack() error = %v", err)
	}
	defer conn.Close()

	if !inner.hijacked || !rw.hijacked {
		t.Error("Hijack should reach the underlying writer")
	}
	if rw.statusCode != http.StatusSwitchingProtocols {
		t.Errorf("statusCode after hijack = %d, want 101", rw.statusCode)
	}
}

func TestRecover(t *testing.T) {
	captureLog(t)

	h := Recover()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/login", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %q, want a JSON error", rec.Body.String())
	}
}

func TestRecoverRepanicsAbortHandler(t *testing.T) {
	h := Recover()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{"wildcard", []string{"*"}, "https://app.example", http.MethodPost, false, "*", http.StatusOK},
		{"listed origin", []string{"https://app.example"}, "https://app.example", http.MethodPost, false, "https://app.example", http.StatusOK},
		{"unlisted origin", []string{"https://app.example"}, "https://evil.example", http.MethodPost, false, "", http.StatusOK},
		{"no origin", []string{"*"}, "", http.MethodGet, false, "", http.StatusOK},
		{"preflight", []string{"*"}, "https://app.example", http.MethodOptions, true, "*", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCORSConfig()
			config.AllowedOrigins = tt.origins
			h := CORS(config)(okHandler("ok"))

			req := httptest.NewRequest(tt.method, "/api/process-image", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" && !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
				t.Error("Allow-Headers should include Authorization")
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	got := ParseOrigins(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("ParseOrigins() = %v", got)
	}
	if got := ParseOrigins(""); len(got) != 0 {
		t.Errorf("ParseOrigins(\"\") = %v, want empty", got)
	}
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("read error = %v, want *http.MaxBytesError", readErr)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	if readErr != nil {
		t.Errorf("read within limit error = %v", readErr)
	}
}

func TestLoggerWritesW3CLine(t *testing.T) {
	buf := captureLog(t)

	h := Logger(DefaultLoggingConfig())(okHandler("hello"))
	req := httptest.NewRequest(http.MethodGet, "/ws?token=secret.jwt.value&x=1", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11)")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{"203.0.113.9", "GET", "/ws", "token=REDACTED", " 200 5 ", `"Mozilla/5.0 (X11)"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "secret.jwt.value") {
		t.Errorf("log line leaks the token: %q", line)
	}
}

func TestLoggerSkips(t *testing.T) {
	buf := captureLog(t)

	config := DefaultLoggingConfig()
	config.LogHealthChecks = false
	h := Logger(config)(okHandler("ok"))

	for _, path := range []string{"/healthz", "/assets/app.js", "/favicon.ico"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output, got %q", buf.String())
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"cr\rlf", "cr lf"},
		{"esc\x1b[31mred", "esc[31mred"},
		{"nul\x00byte", "nulbyte"},
		{"tab\tok", "tab\tok"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactQuery(t *testing.T) {
	if got := redactQuery("a=1&b=2", []string{"token"}); got != "a=1&b=2" {
		t.Errorf("redactQuery without token = %q", got)
	}
	if got := redactQuery("token=abc", []string{"token"}); got != "token=REDACTED" {
		t.Errorf("redactQuery = %q", got)
	}
}

func TestFormatW3C(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	rw := newStatusRecorder(httptest.NewRecorder())
	rw.WriteHeader(http.StatusBadRequest)

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := formatW3C(now, req, rw, 42*time.Millisecond, nil)
	want := "2026-03-04 05:06:07 192.0.2.1 POST /api/login - 400 0 42 - -"
	if got != want {
		t.Errorf("formatW3C() = %q, want %q", got, want)
	}
}

func TestNormalizePath(t *testing.T) {
	routes := map[string]struct{}{"/api/login": {}, "/ws": {}}

	tests := []struct {
		path, want string
	}{
		{"/api/login", "/api/login"},
		{"/api/login/", "/api/login"},
		{"/ws", "/ws"},
		{"/", "/"},
		{"/assets/app.3f9a.js", "other"},
		{"/api/unknown", "other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path, routes); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	h := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/verifyToken", "401")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/verifyToken", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v after request, want 0", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	h := Metrics(DefaultMetricsConfig())(okHandler("ok"))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "other", "200")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(counter) - before; got != 0 {
		t.Errorf("health check was recorded (delta %v)", got)
	}
}
