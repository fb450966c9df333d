package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"media-editor/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// VipsConfig tunes libvips at start-up.
type VipsConfig struct {
	Concurrency int
	MaxCacheMem int
}

// DefaultVipsConfig returns conservative settings for a request-per-goroutine
// server.
func DefaultVipsConfig() VipsConfig {
	return VipsConfig{
		Concurrency: 1,
		MaxCacheMem: 50 * 1024 * 1024,
	}
}

// vipsLogSettings maps the application log level to the libvips threshold
// and the handler that forwards libvips messages into our log.
func vipsLogSettings(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(domain string, lvl vips.LogLevel, msg string) {
		switch lvl {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}

	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward
	case logging.LevelInfo, logging.LevelWarn:
		return vips.LogLevelWarning, forward
	case logging.LevelError:
		return vips.LogLevelError, forward
	default:
		return vips.LogLevelCritical, forward
	}
}

// InitVips starts libvips. It must be called once before ProcessImage can use
// the libvips backend; later calls are no-ops.
func InitVips(cfg VipsConfig) error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup.
	threshold, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, threshold)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: cfg.Concurrency,
		MaxCacheMem:      cfg.MaxCacheMem,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips. libvips cannot be restarted afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// filterWithVips runs the chain with libvips and writes JPEG to w.
func filterWithVips(ctx context.Context, path string, params FilterParams, w io.Writer) error {
	if !IsVipsAvailable() {
		return fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d", filepath.Base(path), ref.Width(), ref.Height())

	steps := []struct {
		name string
		run  func() error
	}{
		{"flatten", func() error { return flattenVips(ref) }},
		{"grayscale", func() error { return ref.ToColorSpace(vips.InterpretationBW) }},
		{"brightness", func() error { return ref.Linear1(params.Brightness, 0) }},
		{"cast", func() error { return ref.Cast(vips.BandFormatUchar) }},
		{"sharpen", func() error { return ref.Sharpen(params.Sharpness, 2, 2) }},
		{"gamma", func() error { return ref.Gamma(params.Contrast) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.run(); err != nil {
			return fmt.Errorf("vips %s failed: %w", step.name, err)
		}
	}

	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        JPEGQuality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return fmt.Errorf("vips export failed: %w", err)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write jpeg: %w", err)
	}
	return nil
}

// flattenVips removes the alpha band by compositing over white, so the
// linear brightness step only scales luminance.
func flattenVips(ref *vips.ImageRef) error {
	if !ref.HasAlpha() {
		return nil
	}
	return ref.Flatten(&vips.Color{R: 255, G: 255, B: 255})
}
