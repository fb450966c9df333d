package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"media-editor/internal/auth"
	"media-editor/internal/filesystem"
	"media-editor/internal/streaming"
	"media-editor/internal/transcoder"
	"media-editor/internal/upload"
	"media-editor/internal/users"
)

const testMaxBytes = 1 << 20

type testEnv struct {
	h       *Handlers
	auth    *auth.Service
	scratch *filesystem.Scratch
}

// newTestEnv builds handlers backed by an in-memory user store and a scratch
// area under t.TempDir. ffmpegPath may point at a script from fakeFFmpeg.
func newTestEnv(t *testing.T, ffmpegPath string, maxBytes int64) *testEnv {
	t.Helper()

	root := t.TempDir()
	scratch, err := filesystem.NewScratch(filepath.Join(root, "uploads"), filepath.Join(root, "processed"))
	if err != nil {
		t.Fatalf("NewScratch failed: %v", err)
	}

	issuer, err := auth.NewTokenIssuer("test-secret", 0)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	svc := auth.NewService(users.NewMemoryRepository(), issuer)

	if ffmpegPath == "" {
		ffmpegPath = filepath.Join(root, "no-such-ffmpeg")
	}

	h := New(Options{
		Auth:            svc,
		Receiver:        upload.NewReceiver(scratch, maxBytes),
		Transcoder:      transcoder.New(ffmpegPath, scratch),
		Streaming:       streaming.DefaultConfig(),
		AllowedOrigins:  []string{"*"},
		FFmpegAvailable: true,
	})
	return &testEnv{h: h, auth: svc, scratch: scratch}
}

// fakeFFmpeg writes an executable shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script encoder fakes require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return path
}

// token registers a user and returns a valid access token for it.
func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	creds := auth.Credentials{Email: "editor@example.com", Password: "s3cret-pass"}
	if _, err := e.auth.Register(t.Context(), creds); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token, err := e.auth.Login(t.Context(), creds)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return token
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

type filePart struct {
	field       string
	filename    string
	contentType string
	body        []byte
}

func uploadRequest(t *testing.T, target string, parts ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			hdr.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		if _, err := w.Write(p.body); err != nil {
			t.Fatalf("part write failed: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) failed: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected %s to be empty, found %v", dir, names)
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"wildcard", []string{"*"}, "http://evil.test", true},
		{"listed origin", []string{"http://app.test"}, "http://app.test", true},
		{"unlisted origin", []string{"http://app.test"}, "http://evil.test", false},
		{"no origin header", []string{"http://app.test"}, "", true},
		{"empty allow list", nil, "http://app.test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.allowed)(req); got != tt.want {
				t.Errorf("originChecker(%v)(%q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
			}
		})
	}
}

func TestRequestLimitLeavesRoomForMultipartFraming(t *testing.T) {
	env := newTestEnv(t, "", testMaxBytes)
	if got := env.h.requestLimit(); got <= testMaxBytes {
		t.Errorf("requestLimit() = %d, want more than the file ceiling %d", got, testMaxBytes)
	}
}
