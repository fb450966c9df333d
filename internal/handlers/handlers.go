package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"media-editor/internal/auth"
	"media-editor/internal/middleware"
	"media-editor/internal/streaming"
	"media-editor/internal/transcoder"
	"media-editor/internal/upload"

	"github.com/gorilla/websocket"
)

// Options carries the collaborators a Handlers value needs.
type Options struct {
	Auth       *auth.Service
	Receiver   *upload.Receiver
	Transcoder *transcoder.Transcoder
	Streaming  streaming.Config

	// AllowedOrigins restricts WebSocket upgrades. "*" allows any origin.
	AllowedOrigins []string

	// FFmpegAvailable is the result of the start-up encoder probe.
	FFmpegAvailable bool
}

type Handlers struct {
	auth       *auth.Service
	receiver   *upload.Receiver
	transcoder *transcoder.Transcoder
	streaming  streaming.Config
	upgrader   websocket.Upgrader

	ffmpegAvailable bool
	startTime       time.Time
	draining        atomic.Bool
}

func New(opts Options) *Handlers {
	h := &Handlers{
		auth:            opts.Auth,
		receiver:        opts.Receiver,
		transcoder:      opts.Transcoder,
		streaming:       opts.Streaming,
		ffmpegAvailable: opts.FFmpegAvailable,
		startTime:       time.Now(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

// SetDraining marks the service as shutting down. Readiness probes fail from
// then on so load balancers stop routing new traffic.
func (h *Handlers) SetDraining() {
	h.draining.Store(true)
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browser requests from an allowed origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ProtectedChain returns the per-route interceptors for authenticated upload
// endpoints.
func (h *Handlers) ProtectedChain() middleware.Chain {
	return middleware.NewChain(h.RequireToken, middleware.MaxBytes(h.requestLimit()))
}

// requestLimit bounds a whole multipart request. It leaves room for part
// headers and boundaries on top of the file ceiling so that an oversized
// file is reported by the receiver rather than by a truncated body.
func (h *Handlers) requestLimit() int64 {
	const multipartOverhead = 64 * 1024
	return h.receiver.MaxBytes() + multipartOverhead
}
