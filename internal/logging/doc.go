// Package logging provides the leveled logger used across the media editor.
//
// Levels, from most to least verbose:
//   - DEBUG: request-level detail, encoder arguments, libvips chatter
//   - INFO: lifecycle and per-job summaries
//   - WARN: recoverable problems such as failed scratch cleanup
//   - ERROR: failed transforms and server errors
//   - FATAL: start-up failures that terminate the process
//
// The level is read once from DEBUG or LOG_LEVEL and can be overridden
// with SetLevel.
package logging
