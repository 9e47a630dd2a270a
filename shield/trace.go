package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/domsnap/idgen"
	"github.com/hazyhaar/domsnap/kit"
)

var traceIDs = idgen.NanoID(12)

// TraceID assigns a trace ID to each request and injects it into the
// context, the response headers, and a per-request structured logger.
// An inbound X-Trace-ID header is honored so proxies can correlate;
// anything oversized is replaced. The ID is stored under kit.TraceIDKey
// and the logger under LoggerKey.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" || len(traceID) > 64 {
			traceID = traceIDs()
		}
		ip := ExtractIP(r)

		ctx := kit.WithTraceID(r.Context(), traceID)
		ctx = kit.WithRemoteAddr(ctx, ip)
		w.Header().Set("X-Trace-ID", traceID)

		logger := slog.Default().With(
			"trace_id", traceID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", ip,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
