package capture

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/domsnap/capture/internal/guard"
	"github.com/hazyhaar/domsnap/domclone"
	"github.com/hazyhaar/domsnap/shield"
)

// Handler builds the HTTP API router: shield middleware, /healthz, and
// the authenticated /api routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(shield.HeadToGet)
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxBytes(s.cfg.Capture.MaxBody))
	r.Use(shield.TraceID)
	r.Use(s.limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/api/capture", s.handleCapture)
		r.Post("/api/inspect", s.handleInspect)
		r.Get("/api/captures", s.handleList)
		r.Get("/api/captures/{id}", s.handleGet)
		r.Get("/api/captures/{id}/artifact/{format}", s.handleArtifact)
		r.Delete("/api/captures/{id}", s.handleDelete)
		r.Get("/api/stats", s.handleStats)
	})

	return r
}

// requireAuth enforces the configured bearer token. An empty TokenHash
// leaves the API open.
func (s *Service) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Auth.TokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		const prefix = "Bearer "
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, prefix) ||
			bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.TokenHash), []byte(authz[len(prefix):])) != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.Capture(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, rec)
}

func (s *Service) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req InspectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.Inspect(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.ListCaptures(r.Context(), ListOptions{
		URL:   r.URL.Query().Get("url"),
		Limit: queryInt(r, "limit", 0),
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, records)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.GetCapture(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, rec)
}

var artifactContentTypes = map[string]string{
	FormatPNG:      "image/png",
	FormatJPEG:     "image/jpeg",
	FormatPDF:      "application/pdf",
	FormatMarkdown: "text/markdown; charset=utf-8",
}

func (s *Service) handleArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	path, err := s.ArtifactPath(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if ct, ok := artifactContentTypes[format]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeFile(w, r, path)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteCapture(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Stats(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, stats)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, domclone.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownFormat), errors.Is(err, ErrUnknownPlacement),
		errors.Is(err, guard.ErrSchemeNotAllowed), errors.Is(err, guard.ErrPrivateAddress),
		errors.Is(err, guard.ErrNoHost), errors.Is(err, guard.ErrUserinfo),
		errors.Is(err, guard.ErrUnsafePath):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoRenderer):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody decodes a JSON request body, writing the error response
// itself. A body over the shield.MaxBytes cap maps to 413.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
