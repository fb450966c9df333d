package media

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"media-editor/internal/logging"
	"media-editor/internal/metrics"
)

// Backend names an implementation of the filter chain.
type Backend string

const (
	BackendVips    Backend = "vips"
	BackendImaging Backend = "imaging"
)

// SelectBackend returns libvips when it is initialized, otherwise the pure-Go
// backend.
func SelectBackend() Backend {
	if IsVipsAvailable() {
		return BackendVips
	}
	return BackendImaging
}

// ProcessImage runs the filter chain over the image at path and returns the
// result as JPEG bytes.
func ProcessImage(ctx context.Context, path string, params FilterParams) ([]byte, error) {
	return processWith(ctx, SelectBackend(), path, params.Clamp())
}

func processWith(ctx context.Context, backend Backend, path string, params FilterParams) ([]byte, error) {
	start := time.Now()
	logging.Debug("Filtering %s with %s (brightness=%.2f sharpness=%.2f contrast=%.2f)",
		filepath.Base(path), backend, params.Brightness, params.Sharpness, params.Contrast)

	var buf bytes.Buffer
	var err error
	switch backend {
	case BackendVips:
		err = filterWithVips(ctx, path, params, &buf)
	case BackendImaging:
		err = filterWithImaging(ctx, path, params, &buf)
	default:
		err = fmt.Errorf("unknown image backend %q", backend)
	}

	metrics.ImageJobDuration.WithLabelValues(string(backend)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ImageJobsTotal.WithLabelValues(string(backend), "error").Inc()
		return nil, err
	}

	metrics.ImageJobsTotal.WithLabelValues(string(backend), "success").Inc()
	logging.Debug("Filtered %s in %v (%d bytes)", filepath.Base(path), time.Since(start), buf.Len())
	return buf.Bytes(), nil
}
