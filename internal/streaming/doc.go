/*
Package streaming sends large response bodies without letting a slow or
departed client pin the handler.

A Writer wraps an http.ResponseWriter. Each chunk is written under its own
write deadline, set through http.ResponseController, and flushed straight
away. A stalled client therefore fails with ErrWriteTimeout and a
disconnected one with ErrClientGone, instead of blocking forever.

ServeAttachment builds on the Writer to deliver a file as a download:

	err := streaming.ServeAttachment(r.Context(), w, path, "edited.mp4", "video/mp4", streaming.DefaultConfig())
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("download failed: %v", err)
	}

Writers that do not support deadlines, such as httptest.ResponseRecorder,
are written to without one.
*/
package streaming
