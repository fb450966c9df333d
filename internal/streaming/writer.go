package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"media-editor/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a chunk could not be written within
	// the configured timeout, usually because the client reads too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the
	// stream completed.
	ErrClientGone = errors.New("client disconnected")
)

// Config configures a Writer.
type Config struct {
	// WriteTimeout bounds each chunk write (0 = no deadline).
	WriteTimeout time.Duration
	// ChunkSize splits large writes (0 = write as received).
	ChunkSize int
	// OnProgress is called after every chunk with the running total.
	OnProgress func(bytesWritten int64, elapsed time.Duration)
}

// DefaultConfig returns settings suited to video downloads.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    256 * 1024,
	}
}

// Writer writes to an http.ResponseWriter chunk by chunk under a per-chunk
// deadline.
type Writer struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	ctx     context.Context
	config  Config
	start   time.Time
	written int64

	deadlines bool
}

// NewWriter wraps w. ctx is normally the request context.
func NewWriter(ctx context.Context, w http.ResponseWriter, config Config) *Writer {
	return &Writer{
		w:         w,
		rc:        http.NewResponseController(w),
		ctx:       ctx,
		config:    config,
		start:     time.Now(),
		deadlines: config.WriteTimeout > 0,
	}
}

// Write implements io.Writer.
func (sw *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if sw.ctx.Err() != nil {
			return total, ErrClientGone
		}

		chunk := p
		if sw.config.ChunkSize > 0 && len(chunk) > sw.config.ChunkSize {
			chunk = chunk[:sw.config.ChunkSize]
		}

		n, err := sw.writeChunk(chunk)
		total += n
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}

func (sw *Writer) writeChunk(chunk []byte) (int, error) {
	if sw.deadlines {
		if err := sw.rc.SetWriteDeadline(time.Now().Add(sw.config.WriteTimeout)); err != nil {
			if !errors.Is(err, http.ErrNotSupported) {
				return 0, err
			}
			sw.deadlines = false
		}
	}

	n, err := sw.w.Write(chunk)
	sw.written += int64(n)
	if err != nil {
		return n, sw.classify(err)
	}

	if err := sw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return n, sw.classify(err)
	}

	if sw.config.OnProgress != nil {
		sw.config.OnProgress(sw.written, time.Since(sw.start))
	}
	return n, nil
}

func (sw *Writer) classify(err error) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrWriteTimeout
	case sw.ctx.Err() != nil:
		return ErrClientGone
	default:
		return err
	}
}

// Stats returns the bytes written so far and the time since creation.
func (sw *Writer) Stats() (bytesWritten int64, elapsed time.Duration) {
	return sw.written, time.Since(sw.start)
}

// Copy streams r into w through a Writer.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, config Config) (int64, error) {
	sw := NewWriter(ctx, w, config)
	n, err := io.Copy(sw, r)

	written, elapsed := sw.Stats()
	logging.Debug("Stream completed: %d bytes in %v", written, elapsed)
	return n, err
}
