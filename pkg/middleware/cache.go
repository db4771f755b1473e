package middleware

import (
	"net/http"
)

// CacheControl sets the Cache-Control header on every response. Session
// routes use "no-store" since they return per-visitor state.
func CacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
