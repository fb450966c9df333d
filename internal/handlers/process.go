package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"media-editor/internal/logging"
	"media-editor/internal/media"
	"media-editor/internal/mediatypes"
	"media-editor/internal/streaming"
	"media-editor/internal/upload"
)

// ProcessImage runs the filter chain over an uploaded image and responds
// with the JPEG result. Query parameters brightness, sharpness and contrast
// tune the chain.
func (h *Handlers) ProcessImage(w http.ResponseWriter, r *http.Request) {
	params, err := media.ParseFilterParams(r.URL.Query())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, ok := h.receive(w, r, mediatypes.FileTypeImage)
	if !ok {
		return
	}
	defer h.receiver.Release(u)

	out, err := media.ProcessImage(r.Context(), u.Path, params)
	if err != nil {
		logging.Error("Image processing failed for %q: %v", u.OriginalName, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		logging.Debug("failed to write processed image: %v", err)
	}
}

// ProcessVideo re-encodes an uploaded video with the desaturating color mix
// and returns it as an MP4 download. Both scratch files are removed once the
// response has been sent.
func (h *Handlers) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	u, ok := h.receive(w, r, mediatypes.FileTypeVideo)
	if !ok {
		return
	}
	defer h.receiver.Release(u)

	res := h.transcoder.Encode(r.Context(), u.Path)
	if !res.OK() {
		logging.Error("Video processing failed for %q: %v", u.OriginalName, res.Err)
		writeJSONError(w, res.Err.Error(), http.StatusInternalServerError)
		return
	}
	defer h.transcoder.Release(res)

	name := downloadName(u.OriginalName)
	err := streaming.ServeAttachment(r.Context(), w, res.Path, name, "video/mp4", h.streaming)
	if errors.Is(err, streaming.ErrFileUnavailable) {
		logging.Error("Encoded video for %q is missing: %v", u.OriginalName, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err != nil {
		logging.Warn("Video download of %s failed: %v", name, err)
	}
}

// receive stores the request's upload and writes the error response when it
// is rejected.
func (h *Handlers) receive(w http.ResponseWriter, r *http.Request, kind mediatypes.FileType) (*upload.Upload, bool) {
	u, err := h.receiver.Receive(r, kind)
	if err == nil {
		return u, true
	}

	switch {
	case errors.Is(err, upload.ErrNoFile):
		writeJSONError(w, "No file uploaded", http.StatusBadRequest)
	case errors.Is(err, upload.ErrPayloadTooLarge):
		writeJSONError(w, "File too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, upload.ErrUnsupportedType):
		writeJSONError(w, "Invalid file type", http.StatusUnsupportedMediaType)
	default:
		logging.Warn("Upload failed: %v", err)
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	}
	return nil, false
}

// downloadName derives the attachment name from the uploaded file name.
func downloadName(original string) string {
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "video"
	}
	return stem + "-processed.mp4"
}
