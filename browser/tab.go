package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/domsnap/domclone"
)

// Tab is one open page. It is bound to the context passed to Open and
// must be closed by the caller.
type Tab struct {
	page *rod.Page
	url  string
	doc  *Document
	cfg  *Config
}

// Open creates a tab, navigates it, and waits for the load event. The
// tab's page work is bounded by ctx plus the configured TabTimeout.
func (m *Manager) Open(ctx context.Context, pageURL string) (*Tab, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	var page *rod.Page
	var err error
	if m.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	page = page.Context(ctx)

	if len(m.cfg.BlockResources) > 0 {
		blockResources(page, m.cfg.BlockResources)
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.TabTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	t := &Tab{page: page, url: pageURL, cfg: &m.cfg}
	t.doc = newDocument(page)
	return t, nil
}

// URL returns the navigated URL.
func (t *Tab) URL() string { return t.url }

// Document returns the tab's document for the domclone pipeline.
func (t *Tab) Document() *Document { return t.doc }

// RasterFormat selects the screenshot encoding.
type RasterFormat string

const (
	RasterPNG  RasterFormat = "png"
	RasterJPEG RasterFormat = "jpeg"
)

// Rasterize screenshots one element of this tab. The element must come
// from this tab's document.
func (t *Tab) Rasterize(ctx context.Context, el domclone.Element, format RasterFormat, quality int) ([]byte, error) {
	be, ok := el.(*Element)
	if !ok || be.el == nil {
		return nil, fmt.Errorf("browser: rasterize: element is not a live browser element")
	}
	rel := be.el.Context(ctx)

	switch format {
	case RasterJPEG:
		if quality <= 0 || quality > 100 {
			quality = 85
		}
		return rel.Screenshot(proto.PageCaptureScreenshotFormatJpeg, quality)
	case RasterPNG, "":
		return rel.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	}
	return nil, fmt.Errorf("browser: rasterize: unknown format %q", format)
}

// HTML returns the outer HTML of one element of this tab.
func (t *Tab) HTML(ctx context.Context, el domclone.Element) (string, error) {
	be, ok := el.(*Element)
	if !ok || be.el == nil {
		return "", fmt.Errorf("browser: html: element is not a live browser element")
	}
	res, err := be.el.Context(ctx).Eval(`() => this.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: outer html: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the tab's page.
func (t *Tab) Close() error {
	if t.page == nil {
		return nil
	}
	return t.page.Close()
}

// blockResources drops configured resource types during page load.
func blockResources(page *rod.Page, types []string) {
	blockSet := make(map[string]bool, len(types))
	for _, t := range types {
		blockSet[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlock(blockSet, string(h.Request.Type())) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}

// shouldBlock maps CDP resource type names onto config names, which are
// plural ("images") where CDP is singular ("Image").
func shouldBlock(blockSet map[string]bool, resType string) bool {
	lower := strings.ToLower(resType)
	switch lower {
	case "image":
		return blockSet["images"]
	case "font":
		return blockSet["fonts"]
	case "media":
		return blockSet["media"]
	case "stylesheet":
		return blockSet["stylesheets"]
	}
	return blockSet[lower]
}
