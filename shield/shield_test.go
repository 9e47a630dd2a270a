package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/domsnap/kit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(DefaultHeaders())(okHandler())
	req := httptest.NewRequest("GET", "/api/captures", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Errorf("CSP: got %q", got)
	}
	if got := w.Header().Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy: got %q", got)
	}
}

func TestSecurityHeaders_EmptyFieldsSkipped(t *testing.T) {
	handler := SecurityHeaders(HeaderConfig{XFrameOptions: "DENY"})(okHandler())
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("expected no CSP header, got %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
}

func TestHeadToGet(t *testing.T) {
	var seenMethod string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenMethod = r.Method
		w.WriteHeader(http.StatusOK)
	})

	handler := HeadToGet(inner)
	req := httptest.NewRequest("HEAD", "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seenMethod != http.MethodGet {
		t.Errorf("expected GET after rewrite, got %q", seenMethod)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestMaxBytes(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := MaxBytes(8)(inner)

	req := httptest.NewRequest("POST", "/api/capture", strings.NewReader("tiny"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("small body: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/capture", strings.NewReader(strings.Repeat("x", 100)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: expected 413, got %d", w.Code)
	}
}

func TestTraceID_Generated(t *testing.T) {
	var gotCtx string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = kit.GetTraceID(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("expected a request logger in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := TraceID(inner)
	req := httptest.NewRequest("GET", "/api/captures", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotCtx == "" {
		t.Fatal("expected a generated trace ID in context")
	}
	if hdr := w.Header().Get("X-Trace-ID"); hdr != gotCtx {
		t.Errorf("header/context mismatch: %q vs %q", hdr, gotCtx)
	}
	if len(gotCtx) != 12 {
		t.Errorf("expected 12-char trace ID, got %q", gotCtx)
	}
}

func TestTraceID_InboundHonored(t *testing.T) {
	var gotCtx string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = kit.GetTraceID(r.Context())
	})

	handler := TraceID(inner)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-ID", "upstream-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotCtx != "upstream-42" {
		t.Errorf("expected inbound trace ID to be kept, got %q", gotCtx)
	}
}

func TestTraceID_OversizedInboundReplaced(t *testing.T) {
	var gotCtx string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = kit.GetTraceID(r.Context())
	})

	handler := TraceID(inner)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-ID", strings.Repeat("a", 65))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(gotCtx) != 12 {
		t.Errorf("expected a regenerated trace ID, got %q", gotCtx)
	}
}

func TestTraceID_RemoteAddrInContext(t *testing.T) {
	var gotAddr string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddr = kit.GetRemoteAddr(r.Context())
	})

	handler := TraceID(inner)
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotAddr != "203.0.113.9" {
		t.Errorf("expected bare IP in context, got %q", gotAddr)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(Limits{})
	handler := rl.Middleware(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("GET", "/api/captures", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 with limiter disabled, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_Blocks(t *testing.T) {
	rl := NewRateLimiter(Limits{MaxRequests: 3, Window: time.Minute, Enabled: true})
	handler := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/captures", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/captures", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "60" {
		t.Errorf("expected Retry-After: 60, got %q", ra)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error, got %q", ct)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(Limits{MaxRequests: 1, Window: time.Minute, Enabled: true})
	handler := rl.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:1"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first IP: expected 200, got %d", w.Code)
	}

	// A different client is unaffected by the first one's bucket.
	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.8:1"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("second IP: expected 200, got %d", w.Code)
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := NewRateLimiter(Limits{MaxRequests: 1, Window: time.Minute, Enabled: true})
	base := time.Now()
	rl.now = func() time.Time { return base }

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request in window should be blocked")
	}

	rl.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !rl.allow("10.0.0.1") {
		t.Fatal("request after window expiry should pass")
	}
}

func TestRateLimiter_ExcludedPrefix(t *testing.T) {
	rl := NewRateLimiter(Limits{MaxRequests: 1, Window: time.Minute, Enabled: true}, "/healthz")
	handler := rl.Middleware(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.RemoteAddr = "198.51.100.7:1"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("healthz %d: expected bypass, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_GC(t *testing.T) {
	rl := NewRateLimiter(Limits{MaxRequests: 1, Window: time.Millisecond, Enabled: true})
	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")

	time.Sleep(5 * time.Millisecond)
	rl.gc()

	count := 0
	rl.buckets.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != 0 {
		t.Errorf("expected all buckets collected, %d remain", count)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		remote string
		want   string
	}{
		{"remote addr with port", "", "192.0.2.1:8080", "192.0.2.1"},
		{"remote addr without port", "", "192.0.2.1", "192.0.2.1"},
		{"single forwarded", "203.0.113.5", "10.0.0.1:1", "203.0.113.5"},
		{"forwarded chain takes first", "203.0.113.5, 10.0.0.2, 10.0.0.3", "10.0.0.1:1", "203.0.113.5"},
		{"forwarded with spaces", "  203.0.113.5  ", "10.0.0.1:1", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ExtractIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
