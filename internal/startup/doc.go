// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] first loads a .env file from the working directory when one
// exists, then binds environment variables into [Config]:
//
//   - PORT: HTTP server port (default: 3000)
//   - JWT_SECRET: token signing secret (required)
//   - EMAIL, PASSWORD: account created at start-up; PASSWORD may be a bcrypt hash
//   - TOKEN_TTL: access token lifetime as Go duration, 0 for no expiry (default: 0)
//   - UPLOAD_DIR: scratch directory for uploads (default: uploads)
//   - PROCESSED_DIR: scratch directory for encoded videos (default: processed)
//   - STATIC_DIR: built client assets served at / (default: public)
//   - MAX_UPLOAD_BYTES: per-file upload ceiling (default: 20971520)
//   - FFMPEG_PATH: encoder binary (default: ffmpeg)
//   - CORS_ORIGINS: comma separated allowed origins, * for any (default: *)
//   - SCRATCH_MAX_AGE: scratch files older than this are swept at start-up (default: 1h)
//   - SHUTDOWN_TIMEOUT: grace period for in-flight requests (default: 30s)
//   - VIPS_CONCURRENCY: libvips worker threads, 0 for one per CPU up to 4 (default: 0)
//   - MEMORY_LIMIT: container memory limit in bytes, used to derive GOMEMLIMIT (default: unset)
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default: 0.75)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The upload and processed directories are created when missing and must be
// writable. A missing static directory only disables the client UI.
//
// # Logging
//
// Start-up and shutdown progress is logged in banner sections so the
// sequence is easy to follow in container logs.
package startup
