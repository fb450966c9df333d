package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-editor/internal/filesystem"
	"media-editor/internal/mediatypes"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestReceiver(t *testing.T, maxBytes int64) (*Receiver, *filesystem.Scratch) {
	t.Helper()
	root := t.TempDir()
	scratch, err := filesystem.NewScratch(filepath.Join(root, "uploads"), filepath.Join(root, "processed"))
	if err != nil {
		t.Fatalf("NewScratch() error = %v", err)
	}
	return NewReceiver(scratch, maxBytes), scratch
}

type formPart struct {
	field       string
	filename    string
	contentType string
	body        []byte
}

func newMultipartRequest(t *testing.T, parts ...formPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		disposition := `form-data; name="` + p.field + `"`
		if p.filename != "" {
			disposition += `; filename="` + p.filename + `"`
		}
		h.Set("Content-Disposition", disposition)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		if _, err := w.Write(p.body); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/process-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error = %v", dir, err)
	}
	return len(entries)
}

func TestReceiveStoresAcceptedFile(t *testing.T) {
	rc, scratch := newTestReceiver(t, 1024)
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 32)...)

	req := newMultipartRequest(t, formPart{field: "file", filename: "photo.png", contentType: "image/png", body: body})
	u, err := rc.Receive(req, mediatypes.FileTypeImage)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}

	if u.Kind != mediatypes.FileTypeImage {
		t.Errorf("Kind = %q, want image", u.Kind)
	}
	if u.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", u.MIMEType)
	}
	if u.OriginalName != "photo.png" {
		t.Errorf("OriginalName = %q, want photo.png", u.OriginalName)
	}
	if u.Size != int64(len(body)) {
		t.Errorf("Size = %d, want %d", u.Size, len(body))
	}
	if filepath.Dir(u.Path) != scratch.UploadDir() {
		t.Errorf("Path %s is not inside %s", u.Path, scratch.UploadDir())
	}
	if !strings.HasSuffix(u.Path, ".png") {
		t.Errorf("Path %s should keep the .png extension", u.Path)
	}

	stored, err := os.ReadFile(u.Path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(stored, body) {
		t.Error("stored content differs from uploaded content")
	}

	rc.Release(u)
	if _, err := os.Stat(u.Path); !os.IsNotExist(err) {
		t.Errorf("Release should remove %s", u.Path)
	}
}

func TestReceiveSkipsOtherFields(t *testing.T) {
	rc, _ := newTestReceiver(t, 1024)

	req := newMultipartRequest(t,
		formPart{field: "brightness", body: []byte("1.2")},
		formPart{field: "file", filename: "clip.mp4", contentType: "video/mp4", body: []byte("not really a video")},
	)
	u, err := rc.Receive(req, mediatypes.FileTypeVideo)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	defer rc.Release(u)

	if u.Kind != mediatypes.FileTypeVideo {
		t.Errorf("Kind = %q, want video", u.Kind)
	}
	if !strings.HasSuffix(u.Path, ".mp4") {
		t.Errorf("Path %s should end in .mp4", u.Path)
	}
}

func TestReceiveSniffsUndeclaredType(t *testing.T) {
	rc, _ := newTestReceiver(t, 1024)

	for _, declared := range []string{"", "application/octet-stream"} {
		req := newMultipartRequest(t, formPart{field: "file", filename: "upload", contentType: declared, body: pngHeader})
		u, err := rc.Receive(req, mediatypes.FileTypeImage)
		if err != nil {
			t.Fatalf("Receive() with declared %q error = %v", declared, err)
		}
		if u.MIMEType != "image/png" {
			t.Errorf("declared %q: MIMEType = %q, want image/png", declared, u.MIMEType)
		}
		rc.Release(u)
	}
}

func TestReceiveRejections(t *testing.T) {
	tests := []struct {
		name    string
		accept  mediatypes.FileType
		parts   []formPart
		wantErr error
	}{
		{
			name:    "unsupported type",
			accept:  mediatypes.FileTypeImage,
			parts:   []formPart{{field: "file", filename: "anim.gif", contentType: "image/gif", body: []byte("GIF89a")}},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "video on image endpoint",
			accept:  mediatypes.FileTypeImage,
			parts:   []formPart{{field: "file", filename: "clip.mov", contentType: "video/quicktime", body: []byte("moov")}},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "image on video endpoint",
			accept:  mediatypes.FileTypeVideo,
			parts:   []formPart{{field: "file", filename: "photo.jpg", contentType: "image/jpeg", body: []byte("\xff\xd8\xff")}},
			wantErr: ErrUnsupportedType,
		},
		{
			name:    "too large",
			accept:  mediatypes.FileTypeImage,
			parts:   []formPart{{field: "file", filename: "big.png", contentType: "image/png", body: bytes.Repeat([]byte{1}, 64)}},
			wantErr: ErrPayloadTooLarge,
		},
		{
			name:    "no file part",
			accept:  mediatypes.FileTypeImage,
			parts:   []formPart{{field: "brightness", body: []byte("2")}},
			wantErr: ErrNoFile,
		},
		{
			name:    "wrong field name",
			accept:  mediatypes.FileTypeImage,
			parts:   []formPart{{field: "image", filename: "photo.png", contentType: "image/png", body: pngHeader}},
			wantErr: ErrNoFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, scratch := newTestReceiver(t, 32)

			u, err := rc.Receive(newMultipartRequest(t, tt.parts...), tt.accept)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Receive() error = %v, want %v", err, tt.wantErr)
			}
			if u != nil {
				t.Errorf("Receive() returned upload %+v on error", u)
			}
			if n := countFiles(t, scratch.UploadDir()); n != 0 {
				t.Errorf("upload dir holds %d files after rejection, want 0", n)
			}
		})
	}
}

func TestReceiveExactlyAtLimit(t *testing.T) {
	rc, _ := newTestReceiver(t, int64(len(pngHeader)))

	req := newMultipartRequest(t, formPart{field: "file", filename: "edge.png", contentType: "image/png", body: pngHeader})
	u, err := rc.Receive(req, mediatypes.FileTypeImage)
	if err != nil {
		t.Fatalf("Receive() at the limit error = %v", err)
	}
	rc.Release(u)
}

func TestReceiveBodyLimitMapsToTooLarge(t *testing.T) {
	rc, scratch := newTestReceiver(t, 1<<20)

	req := newMultipartRequest(t, formPart{field: "file", filename: "photo.png", contentType: "image/png", body: bytes.Repeat([]byte{2}, 4096)})
	req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 1024)

	_, err := rc.Receive(req, mediatypes.FileTypeImage)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("Receive() error = %v, want ErrPayloadTooLarge", err)
	}
	if n := countFiles(t, scratch.UploadDir()); n != 0 {
		t.Errorf("upload dir holds %d files, want 0", n)
	}
}

func TestReceiveRequiresMultipart(t *testing.T) {
	rc, _ := newTestReceiver(t, 1024)

	req := httptest.NewRequest(http.MethodPost, "/process-image", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	if _, err := rc.Receive(req, mediatypes.FileTypeImage); !errors.Is(err, ErrNoFile) {
		t.Errorf("Receive() error = %v, want ErrNoFile", err)
	}
}

func TestNewReceiverDefaultsLimit(t *testing.T) {
	rc, _ := newTestReceiver(t, 0)
	if rc.MaxBytes() != DefaultMaxBytes {
		t.Errorf("MaxBytes() = %d, want %d", rc.MaxBytes(), DefaultMaxBytes)
	}
}
