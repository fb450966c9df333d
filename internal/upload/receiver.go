package upload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"media-editor/internal/filesystem"
	"media-editor/internal/logging"
	"media-editor/internal/mediatypes"
	"media-editor/internal/metrics"
)

// FieldName is the multipart form field carrying the file.
const FieldName = "file"

// DefaultMaxBytes is the upload ceiling used when none is configured.
const DefaultMaxBytes int64 = 20 * 1024 * 1024

// sniffLen is how much of the part is inspected when its type is not declared.
const sniffLen = 512

var (
	// ErrNoFile means the request carried no file part.
	ErrNoFile = errors.New("no file uploaded")
	// ErrUnsupportedType means the file's MIME type is not accepted.
	ErrUnsupportedType = errors.New("invalid file type")
	// ErrPayloadTooLarge means the file exceeds the byte ceiling.
	ErrPayloadTooLarge = errors.New("file too large")
)

// Upload is a received file waiting to be transformed.
type Upload struct {
	Path         string
	OriginalName string
	MIMEType     string
	Size         int64
	Kind         mediatypes.FileType
}

// Receiver stores uploads in scratch space.
type Receiver struct {
	scratch  *filesystem.Scratch
	maxBytes int64
}

// NewReceiver returns a Receiver enforcing maxBytes per file. A
// non-positive maxBytes selects DefaultMaxBytes.
func NewReceiver(scratch *filesystem.Scratch, maxBytes int64) *Receiver {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Receiver{
		scratch:  scratch,
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the per-file ceiling.
func (rc *Receiver) MaxBytes() int64 {
	return rc.maxBytes
}

// Receive reads the request body and persists the first part named
// FieldName. Only files of the given kind are accepted.
func (rc *Receiver) Receive(r *http.Request, accept mediatypes.FileType) (*Upload, error) {
	u, err := rc.receive(r, accept)
	metrics.UploadsTotal.WithLabelValues(string(accept), uploadStatus(err)).Inc()
	if err != nil {
		return nil, err
	}

	metrics.UploadBytes.Observe(float64(u.Size))
	logging.Debug("Received %s upload %q (%s, %d bytes) -> %s", u.Kind, u.OriginalName, u.MIMEType, u.Size, u.Path)
	return u, nil
}

// Release removes the upload's scratch file.
func (rc *Receiver) Release(u *Upload) {
	if u == nil {
		return
	}
	rc.scratch.Remove(u.Path)
}

func (rc *Receiver) receive(r *http.Request, accept mediatypes.FileType) (*Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoFile
		}
		if err != nil {
			if isTooLarge(err) {
				return nil, ErrPayloadTooLarge
			}
			return nil, fmt.Errorf("failed to read multipart body: %w", err)
		}

		if part.FormName() != FieldName || part.FileName() == "" {
			if err := drain(part); err != nil {
				return nil, err
			}
			continue
		}

		u, err := rc.store(part, accept)
		if closeErr := part.Close(); closeErr != nil {
			logging.Debug("failed to close multipart part: %v", closeErr)
		}
		return u, err
	}
}

func (rc *Receiver) store(part *multipart.Part, accept mediatypes.FileType) (*Upload, error) {
	br := bufio.NewReaderSize(part, sniffLen)

	contentType := mediatypes.NormalizeMIME(part.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		head, err := br.Peek(sniffLen)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			if isTooLarge(err) {
				return nil, ErrPayloadTooLarge
			}
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		contentType = mediatypes.NormalizeMIME(http.DetectContentType(head))
	}

	kind, ok := mediatypes.KindForMIME(contentType)
	if !ok || (accept != "" && kind != accept) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	path := rc.scratch.NewUploadPath(mediatypes.ExtensionForMIME(contentType))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(br, rc.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		rc.scratch.Remove(path)
		if isTooLarge(copyErr) {
			return nil, ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("failed to store upload: %w", copyErr)
	case n > rc.maxBytes:
		rc.scratch.Remove(path)
		return nil, ErrPayloadTooLarge
	case closeErr != nil:
		rc.scratch.Remove(path)
		return nil, fmt.Errorf("failed to store upload: %w", closeErr)
	}

	return &Upload{
		Path:         path,
		OriginalName: filepath.Base(part.FileName()),
		MIMEType:     contentType,
		Size:         n,
		Kind:         kind,
	}, nil
}

func drain(part *multipart.Part) error {
	defer func() {
		if err := part.Close(); err != nil {
			logging.Debug("failed to close multipart part: %v", err)
		}
	}()

	if _, err := io.Copy(io.Discard, part); err != nil {
		if isTooLarge(err) {
			return ErrPayloadTooLarge
		}
		return fmt.Errorf("failed to read multipart body: %w", err)
	}
	return nil
}

// isTooLarge reports whether err came from an http.MaxBytesReader limit.
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func uploadStatus(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrNoFile):
		return "no_file"
	default:
		return "error"
	}
}
