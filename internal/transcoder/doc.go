// Package transcoder re-encodes video with FFmpeg.
//
// Two modes share one color-mix filter and encoding profile:
//   - Encode converts an uploaded file into an MP4 in the processed
//     directory and reports the outcome as a Result.
//   - Session pipes chunks received over a connection into a dedicated
//     FFmpeg process and hands the fragmented MP4 output to a sink.
//
// Every running FFmpeg process is tracked so Cleanup can kill them at
// shutdown. FFmpeg must be installed; its path is configurable.
package transcoder
