// Package middleware provides the HTTP interceptors of the media editor.
//
// It includes:
//   - Chain, an ordered list of interceptors applied outermost first
//   - Panic recovery
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - CORS headers and preflight handling
//   - Request body size limits
//
// Authentication lives with the handlers because it needs the token issuer.
package middleware
