package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"media-editor/internal/logging"
)

// Config holds all application configuration
type Config struct {
	Port            string        `env:"PORT" env-default:"3000" env-description:"HTTP server port"`
	JWTSecret       string        `env:"JWT_SECRET" env-required:"true" env-description:"token signing secret"`
	SeedEmail       string        `env:"EMAIL" env-description:"email of the account created at start-up"`
	SeedPassword    string        `env:"PASSWORD" env-description:"password or bcrypt hash of the start-up account"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" env-default:"0s" env-description:"access token lifetime, 0 for none"`
	UploadDir       string        `env:"UPLOAD_DIR" env-default:"uploads" env-description:"upload scratch directory"`
	ProcessedDir    string        `env:"PROCESSED_DIR" env-default:"processed" env-description:"encoded video scratch directory"`
	StaticDir       string        `env:"STATIC_DIR" env-default:"public" env-description:"client assets directory"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" env-default:"20971520" env-description:"per-file upload ceiling"`
	FFmpegPath      string        `env:"FFMPEG_PATH" env-default:"ffmpeg" env-description:"encoder binary"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" env-default:"*" env-separator:"," env-description:"allowed browser origins"`
	ScratchMaxAge   time.Duration `env:"SCRATCH_MAX_AGE" env-default:"1h" env-description:"age after which scratch files are swept"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"30s" env-description:"grace period for in-flight requests"`
	VipsConcurrency int           `env:"VIPS_CONCURRENCY" env-default:"0" env-description:"libvips worker threads, 0 for one per CPU"`
	MemoryLimit     int64         `env:"MEMORY_LIMIT" env-default:"0" env-description:"container memory limit in bytes"`
	MemoryRatio     float64       `env:"MEMORY_RATIO" env-default:"0.75" env-description:"share of MEMORY_LIMIT given to the Go heap"`
	MetricsPort     string        `env:"METRICS_PORT" env-default:"9090" env-description:"Prometheus metrics port"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" env-default:"true" env-description:"serve Prometheus metrics"`
	LogStaticFiles  bool          `env:"LOG_STATIC_FILES" env-default:"false" env-description:"log static file requests"`
	LogHealthChecks bool          `env:"LOG_HEALTH_CHECKS" env-default:"true" env-description:"log health check requests"`

	// StaticEnabled is false when StaticDir does not exist.
	StaticEnabled bool
}

// LoadConfig loads and validates configuration from the environment
func LoadConfig() (*Config, error) {
	// .env may set LOG_LEVEL, so it is read before anything is logged.
	loaded, dotEnvErr := loadDotEnv(".env")
	logging.ReloadLevel()

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if dotEnvErr != nil {
		return nil, dotEnvErr
	}
	if loaded {
		logging.Info("  Loaded environment from .env")
	} else {
		logging.Debug("  No .env file found, using process environment")
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	config.logSummary()

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	for _, dir := range []struct {
		name string
		path *string
	}{
		{"upload", &config.UploadDir},
		{"processed", &config.ProcessedDir},
		{"static", &config.StaticDir},
	} {
		if *dir.path, err = filepath.Abs(*dir.path); err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		logging.Info("  %s directory (absolute): %s", dir.name, *dir.path)
	}

	for _, dir := range []struct{ name, path string }{
		{"upload", config.UploadDir},
		{"processed", config.ProcessedDir},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", dir.name)
	}

	config.StaticEnabled = isDirectory(config.StaticDir)
	if !config.StaticEnabled {
		logging.Warn("  Static directory %s not found, client UI will not be served", config.StaticDir)
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Client UI:   %s", enabledString(config.StaticEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))
	logging.Info("    Seed user:   %s", enabledString(config.SeedEmail != "" && config.SeedPassword != ""))

	return &config, nil
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) (bool, error) {
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
}

func (c *Config) validate() error {
	var problems []string
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.TokenTTL < 0 {
		problems = append(problems, "TOKEN_TTL must not be negative")
	}
	if c.VipsConcurrency < 0 {
		problems = append(problems, "VIPS_CONCURRENCY must not be negative")
	}
	if c.MemoryLimit < 0 {
		problems = append(problems, "MEMORY_LIMIT must not be negative")
	}
	if (c.SeedEmail == "") != (c.SeedPassword == "") {
		problems = append(problems, "EMAIL and PASSWORD must be set together")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) logSummary() {
	logging.Info("  PORT:              %s", c.Port)
	logging.Info("  JWT_SECRET:        %s", maskSecret(c.JWTSecret))
	logging.Info("  EMAIL:             %s", valueOrUnset(c.SeedEmail))
	logging.Info("  TOKEN_TTL:         %s", ttlString(c.TokenTTL))
	logging.Info("  UPLOAD_DIR:        %s", c.UploadDir)
	logging.Info("  PROCESSED_DIR:     %s", c.ProcessedDir)
	logging.Info("  STATIC_DIR:        %s", c.StaticDir)
	logging.Info("  MAX_UPLOAD_BYTES:  %d (%s)", c.MaxUploadBytes, formatBytes(c.MaxUploadBytes))
	logging.Info("  FFMPEG_PATH:       %s", c.FFmpegPath)
	logging.Info("  CORS_ORIGINS:      %s", strings.Join(c.CORSOrigins, ","))
	logging.Info("  SCRATCH_MAX_AGE:   %s", c.ScratchMaxAge)
	logging.Info("  SHUTDOWN_TIMEOUT:  %s", c.ShutdownTimeout)
	logging.Info("  VIPS_CONCURRENCY:  %s", concurrencyString(c.VipsConcurrency))
	logging.Info("  MEMORY_LIMIT:      %s", memoryString(c.MemoryLimit))
	logging.Info("  MEMORY_RATIO:      %.2f", c.MemoryRatio)
	logging.Info("  METRICS_PORT:      %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:   %v", c.MetricsEnabled)
	logging.Info("  LOG_STATIC_FILES:  %v", c.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS: %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())
}

func concurrencyString(n int) string {
	if n == 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", n)
}

func memoryString(n int64) string {
	if n == 0 {
		return "(not set)"
	}
	return formatBytes(n)
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", 6) + fmt.Sprintf(" (%d chars)", len(s))
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func ttlString(d time.Duration) string {
	if d == 0 {
		return "no expiry"
	}
	return d.String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
