package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, s := range []string{"success", "not_found", "invalid_password", "error"} {
		AuthAttemptsTotal.WithLabelValues(s)
	}

	for _, s := range []string{"success", "duplicate", "invalid", "error"} {
		RegistrationsTotal.WithLabelValues(s)
	}

	for _, s := range []string{"valid", "missing", "invalid"} {
		TokenVerificationsTotal.WithLabelValues(s)
	}

	for _, kind := range []string{"image", "video"} {
		for _, s := range []string{"accepted", "too_large", "unsupported_type", "no_file", "error"} {
			UploadsTotal.WithLabelValues(kind, s)
		}
	}

	for _, backend := range []string{"vips", "imaging"} {
		ImageJobsTotal.WithLabelValues(backend, "success")
		ImageJobsTotal.WithLabelValues(backend, "error")
		ImageJobDuration.WithLabelValues(backend)
	}

	TranscoderJobsTotal.WithLabelValues("success")
	TranscoderJobsTotal.WithLabelValues("error")

	StreamBytesTotal.WithLabelValues("in")
	StreamBytesTotal.WithLabelValues("out")

	for _, s := range []string{"success", "missing", "error"} {
		ScratchRemovalsTotal.WithLabelValues(s)
	}
}
