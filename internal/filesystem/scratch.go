package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-editor/internal/logging"
	"media-editor/internal/metrics"

	"github.com/google/uuid"
)

// Scratch owns the upload and processed directories.
type Scratch struct {
	uploadDir    string
	processedDir string
	retry        RetryConfig
	remove       func(string) error
}

// NewScratch creates both directories if needed and returns a Scratch
// rooted at them.
func NewScratch(uploadDir, processedDir string) (*Scratch, error) {
	for _, dir := range []string{uploadDir, processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
		}
	}

	return &Scratch{
		uploadDir:    uploadDir,
		processedDir: processedDir,
		retry:        DefaultRetryConfig(),
		remove:       os.Remove,
	}, nil
}

// UploadDir returns the directory holding received uploads.
func (s *Scratch) UploadDir() string {
	return s.uploadDir
}

// ProcessedDir returns the directory holding encoder output.
func (s *Scratch) ProcessedDir() string {
	return s.processedDir
}

// NewUploadPath returns a fresh, unused path in the upload directory.
func (s *Scratch) NewUploadPath(ext string) string {
	return filepath.Join(s.uploadDir, uniqueName(ext))
}

// NewProcessedPath returns a fresh, unused path in the processed directory.
func (s *Scratch) NewProcessedPath(ext string) string {
	return filepath.Join(s.processedDir, uniqueName(ext))
}

func uniqueName(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return uuid.NewString() + ext
}

// Remove deletes a scratch file. It never fails from the caller's point of
// view; problems are logged and counted.
func (s *Scratch) Remove(path string) {
	if path == "" {
		return
	}

	err := withRetry("remove", path, s.retry, func() error {
		return s.remove(path)
	})

	switch {
	case err == nil:
		metrics.ScratchRemovalsTotal.WithLabelValues("success").Inc()
		logging.Debug("Removed scratch file %s", path)
	case errors.Is(err, fs.ErrNotExist):
		metrics.ScratchRemovalsTotal.WithLabelValues("missing").Inc()
		logging.Debug("Scratch file already gone: %s", path)
	default:
		metrics.ScratchRemovalsTotal.WithLabelValues("error").Inc()
		logging.Warn("Failed to remove scratch file %s: %v", path, err)
	}
}

// Sweep removes regular files older than maxAge from both scratch
// directories and returns how many were removed.
func (s *Scratch) Sweep(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, dir := range []string{s.uploadDir, s.processedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to read scratch directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				logging.Warn("failed to get info for %s: %v", entry.Name(), err)
				continue
			}

			if info.ModTime().After(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := s.remove(path); err != nil && !os.IsNotExist(err) {
				logging.Warn("failed to sweep %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		logging.Info("Swept %d orphaned scratch files", removed)
	}
	return removed, nil
}
