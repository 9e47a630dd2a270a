package shield

import "net/http"

// MaxBytes returns middleware that caps the request body size. Reads past
// the limit fail with *http.MaxBytesError inside the handler, which the
// JSON layer maps to 413.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
