package streaming

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strconv"

	"media-editor/internal/logging"
)

// ErrFileUnavailable is returned when the file could not be opened. Nothing
// has been written to the response in that case.
var ErrFileUnavailable = errors.New("file unavailable")

// ServeAttachment sends the file at path as a download named filename.
// Headers are only written once the file has been opened, so an error
// before any body byte leaves the response untouched for the caller.
func ServeAttachment(ctx context.Context, w http.ResponseWriter, path, filename, contentType string, config Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileUnavailable, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileUnavailable, err)
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	n, err := Copy(ctx, w, f, config)
	if err != nil {
		return fmt.Errorf("download interrupted after %d of %d bytes: %w", n, info.Size(), err)
	}
	return nil
}
