package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"media-editor/internal/auth"
	"media-editor/internal/filesystem"
	"media-editor/internal/handlers"
	"media-editor/internal/logging"
	"media-editor/internal/media"
	"media-editor/internal/memory"
	"media-editor/internal/metrics"
	"media-editor/internal/middleware"
	"media-editor/internal/startup"
	"media-editor/internal/streaming"
	"media-editor/internal/transcoder"
	"media-editor/internal/upload"
	"media-editor/internal/users"
	"media-editor/internal/workers"

	"github.com/gorilla/mux"
)

// maxVipsConcurrency caps automatic libvips sizing.
const maxVipsConcurrency = 4

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memory.Apply(config.MemoryLimit, config.MemoryRatio)

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	// Image pipeline
	vipsConfig := media.DefaultVipsConfig()
	vipsConfig.Concurrency = workers.Resolve(config.VipsConcurrency, maxVipsConcurrency)
	vipsErr := media.InitVips(vipsConfig)
	startup.LogImageInit(string(media.SelectBackend()), vipsErr)

	// Scratch space
	scratch, err := filesystem.NewScratch(config.UploadDir, config.ProcessedDir)
	if err != nil {
		startup.LogFatal("Failed to initialize scratch directories: %v", err)
	}
	removed, sweepErr := scratch.Sweep(config.ScratchMaxAge)
	startup.LogScratchSweep(removed, config.ScratchMaxAge, sweepErr)

	// Accounts and tokens
	issuer, err := auth.NewTokenIssuer(config.JWTSecret, config.TokenTTL)
	if err != nil {
		startup.LogFatal("Failed to initialize token issuer: %v", err)
	}
	repo := users.NewMemoryRepository()
	authService := auth.NewService(repo, issuer)
	if err := authService.Seed(context.Background(), config.SeedEmail, config.SeedPassword); err != nil {
		startup.LogFatal("Failed to create seed user: %v", err)
	}
	userCount, _ := repo.Count(context.Background())
	startup.LogAuthInit(config.TokenTTL, users.NormalizeEmail(config.SeedEmail), userCount)

	// Transcoder
	trans := transcoder.New(config.FFmpegPath, scratch)
	ffmpegAvailable := startup.LogTranscoderInit(trans)

	origins := middleware.ParseOrigins(strings.Join(config.CORSOrigins, ","))

	// Initialize handlers
	h := handlers.New(handlers.Options{
		Auth:            authService,
		Receiver:        upload.NewReceiver(scratch, config.MaxUploadBytes),
		Transcoder:      trans,
		Streaming:       streaming.DefaultConfig(),
		AllowedOrigins:  origins,
		FFmpegAvailable: ffmpegAvailable,
	})

	// Setup router
	router := setupRouter(h, config.StaticDir, config.StaticEnabled)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           buildHandler(router, config, origins),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      0, // downloads and WebSocket streams are long-lived
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h.MetricsHandler())
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, h, trans, config.ShutdownTimeout)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for it to finish.
	<-shutdownDone
}

var shutdownDone = make(chan struct{})

func setupRouter(h *handlers.Handlers, staticDir string, staticEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Account routes
	api.HandleFunc("/register", h.Register).Methods("POST")
	api.HandleFunc("/login", h.Login).Methods("POST")
	api.HandleFunc("/verifyToken", h.VerifyToken).Methods("POST")

	// Protected upload routes
	protected := h.ProtectedChain()
	api.Handle("/process-image", protected.ThenFunc(h.ProcessImage)).Methods("POST")
	api.Handle("/process-video", protected.ThenFunc(h.ProcessVideo)).Methods("POST")

	// Live encoding; the token is checked before the upgrade
	r.HandleFunc("/ws", h.Stream).Methods("GET")

	// Client UI
	if staticEnabled {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	return r
}

// buildHandler wraps the router with the global interceptors. The first
// entry is the outermost.
func buildHandler(router http.Handler, config *startup.Config, origins []string) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = origins

	return middleware.NewChain(
		middleware.Recover(),
		middleware.Logger(loggingConfig),
		middleware.Metrics(middleware.DefaultMetricsConfig()),
		middleware.CORS(corsConfig),
	).Then(router)
}

func newMetricsServer(port string, handler http.Handler) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", handler)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, h *handlers.Handlers, trans *transcoder.Transcoder, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(srv, metricsSrv, h, trans, timeout)
	close(shutdownDone)
}

func shutdown(srv, metricsSrv *http.Server, h *handlers.Handlers, trans *transcoder.Transcoder, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	h.SetDraining()
	startup.LogShutdownStepComplete("Readiness probe set to draining")

	startup.LogShutdownStep("Stopping encoders")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Encoders stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Releasing libvips")
	media.ShutdownVips()
	startup.LogShutdownStepComplete("libvips released")

	startup.LogShutdownComplete()
}
