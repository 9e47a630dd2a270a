// Package capture is the domsnap capture service.
//
// It drives the clone-and-normalize pipeline against live pages and
// turns the results into durable records: open a page in a headless
// browser, clone the target element, strip its scroll limits, measure
// the unclipped content and render artifacts (png, jpeg, pdf,
// markdown) from the clone. Records and the artifact index live in
// SQLite; artifact files live on disk.
//
// Usage:
//
//	svc, err := capture.New(cfg, capture.WithRenderer(capture.NewBrowserRenderer(mgr)))
//	defer svc.Close()
//	svc.RegisterMCP(mcpServer)
//	svc.Start(ctx)
//	http.ListenAndServe(cfg.Listen, svc.Handler())
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/domsnap/capture/internal/guard"
	"github.com/hazyhaar/domsnap/capture/internal/store"
	"github.com/hazyhaar/domsnap/domclone"
	"github.com/hazyhaar/domsnap/idgen"
	"github.com/hazyhaar/domsnap/shield"
)

// Service is the capture orchestrator: renderer + store + artifact
// pipeline.
type Service struct {
	cfg      *Config
	store    *store.Store
	renderer Renderer
	builder  *artifactBuilder
	limiter  *shield.RateLimiter
	logger   *slog.Logger
	newID    idgen.Generator
	now      func() time.Time
}

// Option customises New.
type Option func(*Service)

// WithLogger sets the service logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderer sets the page renderer. Without one, operations that
// need a live page return ErrNoRenderer; store-only operations still
// work.
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithIDGenerator sets the capture ID generator. Default: "cap_" +
// UUIDv7.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock sets the time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. Opens the SQLite database and the artifact
// directory under cfg.DataDir.
func New(cfg *Config, opts ...Option) (*Service, error) {
	cfg.defaults()
	s := &Service{
		cfg:    cfg,
		logger: slog.Default(),
		newID:  idgen.Prefixed("cap_", idgen.UUIDv7()),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.builder = newArtifactBuilder(cfg.Capture.JPEGQuality)
	s.limiter = shield.NewRateLimiter(shield.Limits{
		Enabled:     cfg.RateLimit.Enabled,
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}, "/healthz")

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	s.store = st

	if err := os.MkdirAll(cfg.ArtifactDir(), 0o755); err != nil {
		st.Close()
		return nil, fmt.Errorf("artifact dir: %w", err)
	}
	return s, nil
}

// Start launches background goroutines: the retention sweeper when
// retention is configured, and the rate limiter GC.
func (s *Service) Start(ctx context.Context) {
	if s.cfg.Retention.MaxAge > 0 {
		go s.sweep(ctx)
	}
	s.limiter.StartGC(ctx.Done())
	s.logger.Info("capture: started", "db", s.cfg.DBPath(), "artifacts", s.cfg.ArtifactDir())
}

// Close shuts down the service and closes the database.
func (s *Service) Close() error {
	return s.store.Close()
}

// Render loads the page, clones and normalizes the target, measures
// the unclipped content and renders the requested artifacts in
// memory. Nothing is persisted and no clone is left in the page.
func (s *Service) Render(ctx context.Context, req Request) (*Rendered, error) {
	if s.renderer == nil {
		return nil, ErrNoRenderer
	}
	placement, err := parsePlacement(req.Placement)
	if err != nil {
		return nil, err
	}
	formats, err := normalizeFormats(req.Formats, s.cfg.Capture.DefaultFormats)
	if err != nil {
		return nil, err
	}
	if err := guard.ValidateURL(req.URL, s.cfg.Capture.AllowPrivate); err != nil {
		return nil, err
	}

	sess, err := s.renderer.Open(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", req.URL, err)
	}
	defer sess.Close()

	doc := sess.Document()
	target, err := resolveTarget(doc, req.TargetID, req.Selector)
	if err != nil {
		return nil, err
	}

	limits, err := domclone.QueryScrollLimits(doc, target)
	if err != nil {
		return nil, err
	}

	managed, err := domclone.Attach(doc, target, domclone.Options{
		Placement: placement,
		Styles:    req.Styles,
	})
	if err != nil {
		return nil, err
	}
	defer managed.Release()

	dims := managed.Measure()
	artifacts, err := s.builder.build(ctx, sess, managed.Element(), req.URL, formats)
	if err != nil {
		return nil, err
	}
	if err := docErr(doc); err != nil {
		return nil, err
	}

	return &Rendered{
		URL:        req.URL,
		Target:     targetLabel(req.TargetID, req.Selector),
		Placement:  placement.String(),
		Dimensions: dims,
		Limits:     limits,
		Artifacts:  artifacts,
	}, nil
}

// Capture renders the request and persists the result: artifact files
// under the artifact dir, record plus artifact index in the store.
func (s *Service) Capture(ctx context.Context, req Request) (*Record, error) {
	rendered, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	now := s.now().UnixMilli()
	rec := &Record{
		ID:         id,
		URL:        rendered.URL,
		Target:     rendered.Target,
		Placement:  rendered.Placement,
		Dimensions: rendered.Dimensions,
		Limits:     rendered.Limits,
		CreatedAt:  now,
	}

	var written []string
	cleanup := func() {
		for _, p := range written {
			os.Remove(p)
		}
	}

	for _, a := range rendered.Artifacts {
		path, err := guard.SafePath(s.cfg.ArtifactDir(), id+"."+extFor(a.Format))
		if err != nil {
			cleanup()
			return nil, err
		}
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			cleanup()
			return nil, fmt.Errorf("write artifact: %w", err)
		}
		written = append(written, path)
		rec.Artifacts = append(rec.Artifacts, Artifact{
			Format:    a.Format,
			Path:      path,
			Bytes:     int64(len(a.Data)),
			CreatedAt: now,
		})
	}

	if err := s.store.Put(ctx, &store.Capture{
		ID:         id,
		URL:        rec.URL,
		Target:     rec.Target,
		Placement:  rec.Placement,
		Dimensions: rec.Dimensions,
		Limits:     rec.Limits,
		CreatedAt:  now,
	}); err != nil {
		cleanup()
		return nil, err
	}
	for _, a := range rec.Artifacts {
		if err := s.store.AddArtifact(ctx, &store.Artifact{
			CaptureID: id,
			Format:    a.Format,
			Path:      a.Path,
			Bytes:     a.Bytes,
			CreatedAt: a.CreatedAt,
		}); err != nil {
			s.store.Delete(ctx, id)
			cleanup()
			return nil, err
		}
	}

	s.logger.Info("capture: stored",
		"id", id, "url", rec.URL, "target", rec.Target,
		"formats", len(rec.Artifacts),
		"scroll_height", rec.Dimensions.ScrollHeight)
	return rec, nil
}

// Inspect reports the scroll-limit state of a live element without
// mutating the page or persisting anything.
func (s *Service) Inspect(ctx context.Context, req InspectRequest) (*InspectResult, error) {
	if s.renderer == nil {
		return nil, ErrNoRenderer
	}
	if err := guard.ValidateURL(req.URL, s.cfg.Capture.AllowPrivate); err != nil {
		return nil, err
	}

	sess, err := s.renderer.Open(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", req.URL, err)
	}
	defer sess.Close()

	doc := sess.Document()
	target, err := resolveTarget(doc, req.TargetID, req.Selector)
	if err != nil {
		return nil, err
	}

	limits, err := domclone.QueryScrollLimits(doc, target)
	if err != nil {
		return nil, err
	}
	dims, err := domclone.QueryFullDimensions(doc, target, domclone.Options{})
	if err != nil {
		return nil, err
	}

	declared := make(map[string]bool, 3)
	for _, prop := range []string{"max-height", "overflow", "overflow-y"} {
		set, err := domclone.HasStyleSet(doc, target, prop)
		if err != nil {
			return nil, err
		}
		declared[prop] = set
	}
	if err := docErr(doc); err != nil {
		return nil, err
	}

	return &InspectResult{
		URL:        req.URL,
		Target:     targetLabel(req.TargetID, req.Selector),
		Limits:     limits,
		Dimensions: dims,
		Declared:   declared,
	}, nil
}

// GetCapture returns a stored capture with its artifact index.
func (s *Service) GetCapture(ctx context.Context, id string) (*Record, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	arts, err := s.store.ArtifactsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordFrom(c, arts), nil
}

// ListOptions filters ListCaptures.
type ListOptions struct {
	URL   string `json:"url,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ListCaptures returns stored captures newest first, without their
// artifact indexes.
func (s *Service) ListCaptures(ctx context.Context, opts ListOptions) ([]*Record, error) {
	captures, err := s.store.List(ctx, store.ListOptions{URL: opts.URL, Limit: opts.Limit})
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(captures))
	for _, c := range captures {
		records = append(records, recordFrom(c, nil))
	}
	return records, nil
}

// DeleteCapture removes a capture record and its artifact files.
func (s *Service) DeleteCapture(ctx context.Context, id string) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	arts, err := s.store.ArtifactsFor(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range arts {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("capture: removing artifact file", "path", a.Path, "error", err)
		}
	}
	return s.store.Delete(ctx, id)
}

// ArtifactPath returns the on-disk path of a stored artifact.
func (s *Service) ArtifactPath(ctx context.Context, id, format string) (string, error) {
	a, err := s.store.Artifact(ctx, id, format)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", ErrNotFound
	}
	return a.Path, nil
}

// Prune deletes captures older than the retention window. Returns the
// number removed. A zero MaxAge means retention is off.
func (s *Service) Prune(ctx context.Context) (int, error) {
	if s.cfg.Retention.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.Retention.MaxAge).UnixMilli()
	ids, err := s.store.IDsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		if err := s.DeleteCapture(ctx, id); err != nil {
			s.logger.Warn("capture: prune", "id", id, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("capture: pruned", "removed", removed)
	}
	return removed, nil
}

// Stats holds capture store counts.
type Stats struct {
	Captures  int `json:"captures"`
	Artifacts int `json:"artifacts"`
}

// Stats returns current store statistics.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	captures, err := s.store.CountCaptures(ctx)
	if err != nil {
		return nil, err
	}
	artifacts, err := s.store.CountArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Captures: captures, Artifacts: artifacts}, nil
}

func (s *Service) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Retention.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx); err != nil {
				s.logger.Warn("capture: retention sweep", "error", err)
			}
		}
	}
}

// recordFrom converts a store row (plus optional artifact rows) to the
// public Record shape.
func recordFrom(c *store.Capture, arts []*store.Artifact) *Record {
	rec := &Record{
		ID:         c.ID,
		URL:        c.URL,
		Target:     c.Target,
		Placement:  c.Placement,
		Dimensions: c.Dimensions,
		Limits:     c.Limits,
		CreatedAt:  c.CreatedAt,
	}
	for _, a := range arts {
		rec.Artifacts = append(rec.Artifacts, Artifact{
			Format:    a.Format,
			Path:      a.Path,
			Bytes:     a.Bytes,
			CreatedAt: a.CreatedAt,
		})
	}
	return rec
}

// docErr surfaces the sticky error of fallible document bindings. The
// in-memory document has none; the browser binding records its first
// CDP failure there.
func docErr(doc domclone.Document) error {
	if ec, ok := doc.(interface{ Err() error }); ok {
		return ec.Err()
	}
	return nil
}
