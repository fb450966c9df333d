package middleware

import (
	"net/http"
	"runtime/debug"

	"media-editor/internal/logging"
)

// Recover turns a panic in a handler into a 500 response and logs the
// stack.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logging.Error("Panic recovered: %v (method=%s path=%s remote=%s)\n%s",
					rec, r.Method, sanitizeLogField(r.URL.Path), r.RemoteAddr, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal Server Error"}` + "\n"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
