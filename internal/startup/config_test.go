package startup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-editor/internal/logging"
)

var configKeys = []string{
	"PORT", "JWT_SECRET", "EMAIL", "PASSWORD", "TOKEN_TTL",
	"UPLOAD_DIR", "PROCESSED_DIR", "STATIC_DIR", "MAX_UPLOAD_BYTES",
	"FFMPEG_PATH", "CORS_ORIGINS", "SCRATCH_MAX_AGE", "SHUTDOWN_TIMEOUT",
	"VIPS_CONCURRENCY", "MEMORY_LIMIT", "MEMORY_RATIO",
	"METRICS_PORT", "METRICS_ENABLED",
	"LOG_STATIC_FILES", "LOG_HEALTH_CHECKS", "LOG_LEVEL", "DEBUG",
}

// isolateEnv unsets every configuration variable and moves into a fresh
// working directory. Both are restored when the test ends.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "3000" {
		t.Errorf("Port = %q, want 3000", config.Port)
	}
	if config.JWTSecret != "test-secret" {
		t.Errorf("JWTSecret = %q", config.JWTSecret)
	}
	if config.TokenTTL != 0 {
		t.Errorf("TokenTTL = %v, want 0", config.TokenTTL)
	}
	if config.MaxUploadBytes != 20*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", config.MaxUploadBytes)
	}
	if config.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q", config.FFmpegPath)
	}
	if len(config.CORSOrigins) != 1 || config.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", config.CORSOrigins)
	}
	if config.ScratchMaxAge != time.Hour || config.ShutdownTimeout != 30*time.Second {
		t.Errorf("durations = %v / %v", config.ScratchMaxAge, config.ShutdownTimeout)
	}
	if config.VipsConcurrency != 0 {
		t.Errorf("VipsConcurrency = %d, want 0 (auto)", config.VipsConcurrency)
	}
	if config.MemoryLimit != 0 || config.MemoryRatio != 0.75 {
		t.Errorf("memory = %d / %v", config.MemoryLimit, config.MemoryRatio)
	}
	if !config.MetricsEnabled || config.LogStaticFiles || !config.LogHealthChecks {
		t.Errorf("unexpected flags: %+v", config)
	}

	// Paths are resolved against the working directory.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	for name, path := range map[string]string{
		"uploads":   config.UploadDir,
		"processed": config.ProcessedDir,
	} {
		got, err := filepath.EvalSymlinks(path)
		if err != nil {
			t.Fatalf("%s directory not created: %v", name, err)
		}
		if got != filepath.Join(resolved, name) {
			t.Errorf("%s dir = %q", name, got)
		}
	}
	if config.StaticEnabled {
		t.Error("Expected static serving disabled without a public directory")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := isolateEnv(t)
	if err := os.Mkdir(filepath.Join(dir, "dist"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("STATIC_DIR", "dist")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("EMAIL", "admin@example.com")
	t.Setenv("PASSWORD", "hunter2")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("VIPS_CONCURRENCY", "3")
	t.Setenv("MEMORY_LIMIT", "1073741824")
	t.Setenv("MEMORY_RATIO", "0.5")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "8080" || config.TokenTTL != 15*time.Minute || config.MaxUploadBytes != 1024 {
		t.Errorf("overrides not applied: %+v", config)
	}
	if len(config.CORSOrigins) != 2 || config.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", config.CORSOrigins)
	}
	if config.SeedEmail != "admin@example.com" || config.SeedPassword != "hunter2" {
		t.Errorf("seed = %q / %q", config.SeedEmail, config.SeedPassword)
	}
	if config.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
	if config.VipsConcurrency != 3 || config.MemoryLimit != 1<<30 || config.MemoryRatio != 0.5 {
		t.Errorf("tuning = %d / %d / %v", config.VipsConcurrency, config.MemoryLimit, config.MemoryRatio)
	}
	if !config.StaticEnabled {
		t.Error("Expected static serving enabled")
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolateEnv(t)
	content := "JWT_SECRET=from-file\nPORT=4000\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// Process environment wins over the file.
	t.Setenv("PORT", "5000")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.JWTSecret != "from-file" {
		t.Errorf("JWTSecret = %q, want from-file", config.JWTSecret)
	}
	if config.Port != "5000" {
		t.Errorf("Port = %q, want 5000", config.Port)
	}
}

func TestLoadConfigDotEnvSetsLogLevel(t *testing.T) {
	dir := isolateEnv(t)
	original := logging.GetLevel()
	t.Cleanup(func() { logging.SetLevel(original) })

	content := "JWT_SECRET=from-file\nLOG_LEVEL=error\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got := logging.GetLevel(); got != logging.LevelError {
		t.Errorf("logger level = %v, want %v from .env", got, logging.LevelError)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing secret",
			env:     map[string]string{},
			wantErr: "failed to read environment",
		},
		{
			name:    "zero upload limit",
			env:     map[string]string{"JWT_SECRET": "s", "MAX_UPLOAD_BYTES": "0"},
			wantErr: "MAX_UPLOAD_BYTES",
		},
		{
			name:    "negative ttl",
			env:     map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "-1m"},
			wantErr: "TOKEN_TTL",
		},
		{
			name:    "email without password",
			env:     map[string]string{"JWT_SECRET": "s", "EMAIL": "a@b.test"},
			wantErr: "EMAIL and PASSWORD",
		},
		{
			name:    "negative vips concurrency",
			env:     map[string]string{"JWT_SECRET": "s", "VIPS_CONCURRENCY": "-2"},
			wantErr: "VIPS_CONCURRENCY",
		},
		{
			name:    "negative memory limit",
			env:     map[string]string{"JWT_SECRET": "s", "MEMORY_LIMIT": "-1"},
			wantErr: "MEMORY_LIMIT",
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"JWT_SECRET": "s", "SCRATCH_MAX_AGE": "soon"},
			wantErr: "environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigUploadDirIsFile(t *testing.T) {
	dir := isolateEnv(t)
	if err := os.WriteFile(filepath.Join(dir, "uploads"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "s")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected error when upload path is a file")
	}
}
