// Package shield provides HTTP hardening middleware for the capture API:
// security headers, request body caps, trace IDs with per-request loggers,
// per-IP rate limiting, and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.HeadToGet)
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBytes(1 << 20))
//	r.Use(shield.TraceID)
//	r.Use(shield.NewRateLimiter(limits).Middleware)
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// HeadToGet converts HEAD requests to GET so that handlers registered with
// r.Get() answer load-balancer probes with 200 instead of 405. Go's net/http
// automatically strips the body for HEAD responses.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
