package mediatypes

import (
	"mime"
	"strings"
)

// FileType represents the broad kind of an uploaded media file.
type FileType string

const (
	// FileTypeImage represents a still image.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents anything outside the allow-list.
	FileTypeOther FileType = "other"
)

// AllowedMIMETypes maps every accepted MIME type to its kind.
var AllowedMIMETypes = map[string]FileType{
	"image/jpeg":      FileTypeImage,
	"image/png":       FileTypeImage,
	"video/mp4":       FileTypeVideo,
	"video/quicktime": FileTypeVideo,
}

// Extensions maps accepted MIME types to the extension used on disk.
var Extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

// NormalizeMIME lower-cases a Content-Type and strips its parameters.
func NormalizeMIME(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// KindForMIME returns the kind for an allowed MIME type. ok is false for
// anything outside the allow-list.
func KindForMIME(contentType string) (kind FileType, ok bool) {
	kind, ok = AllowedMIMETypes[NormalizeMIME(contentType)]
	if !ok {
		return FileTypeOther, false
	}
	return kind, true
}

// ExtensionForMIME returns the on-disk extension for an allowed MIME type,
// or "" when the type is not allowed.
func ExtensionForMIME(contentType string) string {
	return Extensions[NormalizeMIME(contentType)]
}
