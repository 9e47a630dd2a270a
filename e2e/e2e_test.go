// Package e2e tests cross-package integration chains: a renderer that
// fetches real HTTP pages into in-memory documents, the capture service
// on top of it, and the HTTP API surface — the production wiring with
// only the browser swapped out.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/domsnap/capture"
	"github.com/hazyhaar/domsnap/domclone"
	"github.com/hazyhaar/domsnap/memdom"

	_ "modernc.org/sqlite"
)

// --- test helpers ---

// httpRenderer fetches pages over HTTP and parses them into in-memory
// documents. Rasters are synthetic; layout comes from the parsed CSS.
type httpRenderer struct {
	client *http.Client
}

func (r *httpRenderer) Open(ctx context.Context, pageURL string) (capture.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	doc, err := memdom.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return &httpSession{doc: doc}, nil
}

type httpSession struct {
	doc *memdom.Document
}

func (s *httpSession) Document() domclone.Document { return s.doc }

func (s *httpSession) RasterPNG(_ context.Context, _ domclone.Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *httpSession) RasterJPEG(_ context.Context, _ domclone.Element, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *httpSession) HTML(_ context.Context, el domclone.Element) (string, error) {
	return el.(*memdom.Element).OuterHTML(), nil
}

func (s *httpSession) Close() error { return nil }

const clippedPage = `<html><head><style>
	#feed { max-height: 300px; overflow: hidden; }
	.item { height: 200px; width: 400px; }
</style></head><body>
<div id="feed">
	<div class="item">first</div>
	<div class="item">second</div>
	<div class="item">third</div>
</div>
</body></html>`

func pageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T) *capture.Service {
	t.Helper()
	cfg := &capture.Config{DataDir: t.TempDir()}
	cfg.Capture.AllowPrivate = true // pages are served from 127.0.0.1
	svc, err := capture.New(cfg, capture.WithRenderer(&httpRenderer{client: http.DefaultClient}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// --- tests ---

func TestE2E_CaptureCycle(t *testing.T) {
	// WHAT: fetch a clipped page → capture over the HTTP API → download
	// the artifact → delete.
	// WHY: end-to-end validation of the fetch, clone, persist, serve chain.
	page := pageServer(t, clippedPage)
	svc := newService(t)
	api := httptest.NewServer(svc.Handler())
	defer api.Close()

	body, _ := json.Marshal(capture.Request{
		URL:      page.URL,
		TargetID: "feed",
		Formats:  []string{"png", "md"},
	})
	resp, err := http.Post(api.URL+"/api/capture", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post capture: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("capture status: %d", resp.StatusCode)
	}
	var rec capture.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}

	// The 300px clamp is gone from the measured clone.
	if rec.Dimensions.ScrollHeight != 600 || rec.Dimensions.OffsetHeight != 600 {
		t.Errorf("dimensions: %+v, want 600 heights", rec.Dimensions)
	}
	if !rec.Limits.Limited || rec.Limits.MaxHeight != "300px" {
		t.Errorf("limits: %+v", rec.Limits)
	}

	// Artifact downloads as a decodable PNG.
	resp2, err := http.Get(api.URL + "/api/captures/" + rec.ID + "/artifact/png")
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("artifact status: %d", resp2.StatusCode)
	}
	if ct := resp2.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("artifact content type: %q", ct)
	}
	if _, err := png.Decode(resp2.Body); err != nil {
		t.Errorf("decode artifact: %v", err)
	}

	// Delete and verify gone.
	req, _ := http.NewRequest(http.MethodDelete, api.URL+"/api/captures/"+rec.ID, nil)
	resp3, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp3.StatusCode)
	}
	resp4, err := http.Get(api.URL + "/api/captures/" + rec.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	resp4.Body.Close()
	if resp4.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d", resp4.StatusCode)
	}
}

func TestE2E_InspectMatchesCapture(t *testing.T) {
	// WHAT: inspect a clipped element, then capture it; inspection
	// reports the limits the capture then strips.
	// WHY: the two operations must agree on what the page declares.
	page := pageServer(t, clippedPage)
	svc := newService(t)
	ctx := context.Background()

	ins, err := svc.Inspect(ctx, capture.InspectRequest{URL: page.URL, TargetID: "feed"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !ins.Limits.Limited || !ins.Declared["max-height"] {
		t.Fatalf("inspect: %+v", ins)
	}

	rec, err := svc.Capture(ctx, capture.Request{URL: page.URL, TargetID: "feed"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if rec.Limits != ins.Limits {
		t.Errorf("limits drifted: inspect %+v, capture %+v", ins.Limits, rec.Limits)
	}
	if rec.Dimensions != ins.Dimensions {
		t.Errorf("dimensions drifted: inspect %+v, capture %+v", ins.Dimensions, rec.Dimensions)
	}
}

func TestE2E_UnclippedElement(t *testing.T) {
	// WHAT: capture an element with no scroll limits.
	// WHY: the pipeline must pass unclipped content through unchanged.
	const plainPage = `<html><head><style>
	.item { height: 150px; width: 300px; }
</style></head><body>
<div id="list">
	<div class="item">one</div>
	<div class="item">two</div>
</div>
</body></html>`
	page := pageServer(t, plainPage)
	svc := newService(t)

	rec, err := svc.Capture(context.Background(), capture.Request{URL: page.URL, TargetID: "list"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if rec.Limits.Limited {
		t.Errorf("unclipped element reported limited: %+v", rec.Limits)
	}
	if rec.Dimensions.ScrollHeight != 300 {
		t.Errorf("dimensions: %+v, want 300 height", rec.Dimensions)
	}
}
