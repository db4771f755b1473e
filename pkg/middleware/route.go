package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SessionParam is the chi URL parameter holding the visitor session ID.
const SessionParam = "sessionID"

// statusRecorder captures the status code and body size written by the
// next handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// routeInfo is what chi learned about a request while routing it. It is
// only complete after the next handler returns.
type routeInfo struct {
	pattern string
	session string
}

func routeOf(r *http.Request) routeInfo {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return routeInfo{}
	}
	return routeInfo{pattern: rctx.RoutePattern(), session: rctx.URLParam(SessionParam)}
}

// isProbe reports whether path is a health or metrics endpoint polled by
// infrastructure.
func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health/") || path == "/metrics"
}
