package capture

import (
	"context"

	"github.com/hazyhaar/domsnap/browser"
	"github.com/hazyhaar/domsnap/domclone"
)

// Session is one loaded page: a DOM to clone from and a way to render
// elements out of it. Sessions are not safe for concurrent use.
type Session interface {
	// Document returns the page DOM.
	Document() domclone.Document
	// RasterPNG renders el as a PNG image.
	RasterPNG(ctx context.Context, el domclone.Element) ([]byte, error)
	// RasterJPEG renders el as a JPEG image at the given quality (1-100).
	RasterJPEG(ctx context.Context, el domclone.Element, quality int) ([]byte, error)
	// HTML returns the outer HTML of el.
	HTML(ctx context.Context, el domclone.Element) (string, error)
	// Close releases the page.
	Close() error
}

// Renderer opens pages for capture. The production implementation
// drives a headless browser; tests substitute an in-memory one.
type Renderer interface {
	Open(ctx context.Context, pageURL string) (Session, error)
}

// NewBrowserRenderer wraps a started browser.Manager as a Renderer.
func NewBrowserRenderer(m *browser.Manager) Renderer {
	return &browserRenderer{manager: m}
}

type browserRenderer struct {
	manager *browser.Manager
}

func (r *browserRenderer) Open(ctx context.Context, pageURL string) (Session, error) {
	tab, err := r.manager.Open(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return &browserSession{tab: tab}, nil
}

type browserSession struct {
	tab *browser.Tab
}

func (s *browserSession) Document() domclone.Document { return s.tab.Document() }

func (s *browserSession) RasterPNG(ctx context.Context, el domclone.Element) ([]byte, error) {
	return s.tab.Rasterize(ctx, el, browser.RasterPNG, 0)
}

func (s *browserSession) RasterJPEG(ctx context.Context, el domclone.Element, quality int) ([]byte, error) {
	return s.tab.Rasterize(ctx, el, browser.RasterJPEG, quality)
}

func (s *browserSession) HTML(ctx context.Context, el domclone.Element) (string, error) {
	return s.tab.HTML(ctx, el)
}

func (s *browserSession) Close() error { return s.tab.Close() }
