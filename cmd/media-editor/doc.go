// Package main provides the entry point for the Media Editor server.
//
// Media Editor is a small self-hosted backend for a browser-based media
// editor. Signed-in users upload an image or a video and receive an edited
// copy: images pass through a fixed filter chain and come back as JPEG,
// videos are desaturated and re-encoded to H.264 MP4. Video can also be
// streamed through the encoder live over a WebSocket.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads .env and environment variables, checks scratch directories
//  2. Component Initialization:
//     - Image pipeline: libvips when available, pure Go filters otherwise
//     - Scratch space: stale uploads and encodes are swept
//     - Accounts: in-memory user store, optional seed user, token issuer
//     - Transcoder: FFmpeg probe and process table
//  3. HTTP Server Setup: Configures routes, middleware, and starts server
//  4. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 3000):
//     - POST /api/register, /api/login, /api/verifyToken
//     - POST /api/process-image, /api/process-video (bearer token)
//     - GET /ws live encoding (token in header or query)
//     - Health, readiness and version endpoints
//     - Static client UI from STATIC_DIR
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Graceful Shutdown
//
//  1. Mark the service as draining so /readyz fails
//  2. Kill running FFmpeg processes
//  3. Shutdown main HTTP server (SHUTDOWN_TIMEOUT)
//  4. Shutdown metrics server (if running)
//  5. Release libvips
//
// # Build Requirements
//
// libvips is linked through cgo; FFmpeg must be on PATH or named by
// FFMPEG_PATH at run time.
//
//	go build -ldflags "-X media-editor/internal/startup.Version=1.0.0" -o media-editor ./cmd/media-editor
//
// # Related Packages
//
//   - [media-editor/internal/auth]: Credentials, password hashing and tokens
//   - [media-editor/internal/handlers]: HTTP request handlers
//   - [media-editor/internal/media]: Image filter chain
//   - [media-editor/internal/middleware]: HTTP middleware (recover, logging, metrics, CORS)
//   - [media-editor/internal/startup]: Configuration and initialization
//   - [media-editor/internal/transcoder]: FFmpeg encoding and live sessions
//   - [media-editor/internal/upload]: Streaming multipart upload receiver
package main
