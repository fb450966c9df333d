// Package metrics provides Prometheus instrumentation for the media editor.
//
// All metrics are prefixed with "media_editor_" and registered through
// promauto at package init, so importing the package is enough to export
// them from the default registry.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Authentication Metrics
//
//   - AuthAttemptsTotal: login attempts by outcome
//   - RegistrationsTotal: registrations by outcome
//   - TokenVerificationsTotal: bearer token checks by outcome
//
// ## Upload Metrics
//
//   - UploadsTotal: received uploads by kind and outcome
//   - UploadBytes: size distribution of accepted uploads
//
// ## Image Metrics
//
//   - ImageJobsTotal: filter chain runs by backend and outcome
//   - ImageJobDuration: filter chain duration by backend
//
// ## Transcoder Metrics
//
//   - TranscoderJobsTotal: video encodes by outcome
//   - TranscoderJobDuration: video encode duration
//   - TranscoderJobsInProgress: encodes currently running
//   - StreamSessionsActive: live WebSocket encoder sessions
//   - StreamBytesTotal: bytes piped through streaming sessions by direction
//
// ## Cleanup Metrics
//
//   - ScratchRemovalsTotal: scratch file removals by outcome
//
// # Usage
//
// Metrics are exposed on the dedicated metrics port at /metrics:
//
//	curl http://localhost:9090/metrics
package metrics
