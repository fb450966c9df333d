// Package upload receives a single media file from a multipart request and
// stores it in scratch space.
//
// The multipart body is consumed as a stream. The file part's type is
// checked against the mediatypes allow-list before a single byte is written,
// and the size ceiling is enforced while copying, so rejected uploads never
// reach the transform stage and never linger on disk.
package upload
