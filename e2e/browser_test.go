package e2e

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"testing"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/domsnap/browser"
	"github.com/hazyhaar/domsnap/capture"
)

// browserManager starts a local Chrome, skipping the test when none is
// installed or it will not launch. The manager outlives the Start
// context, so it gets the background one.
func browserManager(t *testing.T) *browser.Manager {
	t.Helper()
	if _, has := launcher.LookPath(); !has {
		t.Skip("no local Chrome/Chromium found")
	}
	mgr := browser.NewManager(browser.Config{})
	if err := mgr.Start(context.Background()); err != nil {
		t.Skipf("chrome start: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

const browserPage = `<!DOCTYPE html><html><head><style>
	* { margin: 0; padding: 0; }
	#feed { max-height: 300px; overflow: hidden; }
	.item { height: 200px; width: 400px; }
</style></head><body>
<div id="feed">
	<div class="item">first</div>
	<div class="item">second</div>
	<div class="item">third</div>
</div>
</body></html>`

func TestE2E_BrowserCapture(t *testing.T) {
	// WHAT: capture a clipped element from a real Chrome page.
	// WHY: validates the CDP binding end to end — computed styles, clone
	// scripting, measurement and screenshotting against a live layout.
	mgr := browserManager(t)
	page := pageServer(t, browserPage)

	cfg := &capture.Config{DataDir: t.TempDir()}
	cfg.Capture.AllowPrivate = true
	svc, err := capture.New(cfg, capture.WithRenderer(capture.NewBrowserRenderer(mgr)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	rec, err := svc.Capture(context.Background(), capture.Request{
		URL:      page.URL,
		TargetID: "feed",
		Formats:  []string{"png"},
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if !rec.Limits.Limited || rec.Limits.MaxHeight != "300px" {
		t.Errorf("limits: %+v", rec.Limits)
	}
	if rec.Dimensions.ScrollHeight != 600 {
		t.Errorf("scroll height: got %d, want 600", rec.Dimensions.ScrollHeight)
	}
	if rec.Dimensions.OffsetWidth != 400 {
		t.Errorf("offset width: got %d, want 400", rec.Dimensions.OffsetWidth)
	}

	data, err := os.ReadFile(rec.Artifacts[0].Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Errorf("empty screenshot: %v", img.Bounds())
	}
}

func TestE2E_BrowserInspect(t *testing.T) {
	// WHAT: inspect a live page without touching it.
	// WHY: the read-only path must report limits from real computed
	// styles and leave no clone behind.
	mgr := browserManager(t)
	page := pageServer(t, browserPage)

	cfg := &capture.Config{DataDir: t.TempDir()}
	cfg.Capture.AllowPrivate = true
	svc, err := capture.New(cfg, capture.WithRenderer(capture.NewBrowserRenderer(mgr)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	res, err := svc.Inspect(context.Background(), capture.InspectRequest{URL: page.URL, TargetID: "feed"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !res.Limits.Limited || res.Limits.Overflow != "hidden" {
		t.Errorf("limits: %+v", res.Limits)
	}
	if !res.Declared["max-height"] {
		t.Errorf("declared: %+v", res.Declared)
	}
	if res.Dimensions.ScrollHeight != 600 {
		t.Errorf("scroll height: got %d, want 600", res.Dimensions.ScrollHeight)
	}
}
