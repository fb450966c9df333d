// Package mediatypes holds the upload allow-list shared by the upload
// receiver and the transform handlers.
//
// It is a dependency-free leaf package so both sides can import it without
// cycles.
//
// # Allow-list
//
// Exactly four MIME types are accepted:
//
//	image/jpeg, image/png        -> FileTypeImage
//	video/mp4, video/quicktime   -> FileTypeVideo
//
// Use KindForMIME to classify a declared Content-Type (parameters such as
// "; charset=" are ignored) and ExtensionForMIME to pick the scratch file
// extension.
package mediatypes
