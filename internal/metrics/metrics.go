package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_editor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_editor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // "success", "not_found", "invalid_password", "error"
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"}, // "success", "duplicate", "invalid", "error"
	)

	TokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_token_verifications_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"status"}, // "valid", "missing", "invalid"
	)

	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_editor_users",
			Help: "Number of registered users held in memory",
		},
	)
)

// Upload metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_uploads_total",
			Help: "Total number of uploads by kind and outcome",
		},
		[]string{"kind", "status"}, // status: "accepted", "too_large", "unsupported_type", "no_file", "error"
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_editor_upload_bytes",
			Help:    "Size of accepted uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
		},
	)
)

// Image metrics
var (
	ImageJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_image_jobs_total",
			Help: "Total number of image filter chain runs",
		},
		[]string{"backend", "status"},
	)

	ImageJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_editor_image_job_duration_seconds",
			Help:    "Image filter chain duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_transcoder_jobs_total",
			Help: "Total number of video encode jobs",
		},
		[]string{"status"},
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_editor_transcoder_job_duration_seconds",
			Help:    "Video encode duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_editor_transcoder_jobs_in_progress",
			Help: "Number of video encode jobs currently in progress",
		},
	)

	StreamSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_editor_stream_sessions_active",
			Help: "Number of live WebSocket streaming encoder sessions",
		},
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_stream_bytes_total",
			Help: "Bytes piped through streaming sessions",
		},
		[]string{"direction"}, // "in", "out"
	)
)

// Cleanup metrics
var (
	ScratchRemovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_editor_scratch_removals_total",
			Help: "Total number of scratch file removals by outcome",
		},
		[]string{"status"}, // "success", "missing", "error"
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_editor_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
