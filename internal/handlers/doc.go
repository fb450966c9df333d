// Package handlers provides HTTP request handlers for the media editor API.
//
// It includes handlers for:
//   - Account registration, login and token verification
//   - Image filtering and video re-encoding of uploaded files
//   - Live video encoding over a WebSocket
//   - Health checks and build information
//
// Upload endpoints are wrapped by [Handlers.ProtectedChain], which checks the
// bearer token before any part of the request body is read.
package handlers
