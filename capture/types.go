package capture

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/domsnap/domclone"
)

// Output formats.
const (
	FormatPNG      = "png"
	FormatJPEG     = "jpeg"
	FormatPDF      = "pdf"
	FormatMarkdown = "md"
)

// Request describes a capture: which page, which element, how to place
// the clone and which artifacts to render.
//
// TargetID wins over Selector when both are set. With neither, the
// whole body is captured.
type Request struct {
	URL       string            `json:"url"`
	TargetID  string            `json:"target_id,omitempty"`
	Selector  string            `json:"selector,omitempty"`
	Placement string            `json:"placement,omitempty"` // "offscreen" (default), "visible", "unset"
	Styles    map[string]string `json:"styles,omitempty"`
	Formats   []string          `json:"formats,omitempty"`
}

// InspectRequest describes an inspection: which page and which element.
type InspectRequest struct {
	URL      string `json:"url"`
	TargetID string `json:"target_id,omitempty"`
	Selector string `json:"selector,omitempty"`
}

// InspectResult reports the scroll-limit state of a live element: the
// computed-style limit report, the dimensions a normalized clone would
// measure, and which limiting properties are declared for the element
// anywhere in the document (inline or stylesheet).
type InspectResult struct {
	URL        string               `json:"url"`
	Target     string               `json:"target,omitempty"`
	Limits     domclone.LimitReport `json:"limits"`
	Dimensions domclone.Dimensions  `json:"dimensions"`
	Declared   map[string]bool      `json:"declared"`
}

// Record is a stored capture with its artifact index.
type Record struct {
	ID         string               `json:"id"`
	URL        string               `json:"url"`
	Target     string               `json:"target,omitempty"`
	Placement  string               `json:"placement"`
	Dimensions domclone.Dimensions  `json:"dimensions"`
	Limits     domclone.LimitReport `json:"limits"`
	Artifacts  []Artifact           `json:"artifacts,omitempty"`
	CreatedAt  int64                `json:"created_at"`
}

// Artifact describes one rendered output of a stored capture.
type Artifact struct {
	Format    string `json:"format"`
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
}

// Rendered is the in-memory result of rendering a page element, before
// any persistence.
type Rendered struct {
	URL        string
	Target     string
	Placement  string
	Dimensions domclone.Dimensions
	Limits     domclone.LimitReport
	Artifacts  []RenderedArtifact
}

// RenderedArtifact is one rendered output held in memory.
type RenderedArtifact struct {
	Format string
	Data   []byte
}

func parsePlacement(s string) (domclone.Placement, error) {
	switch s {
	case "", "offscreen":
		return domclone.PlaceOffScreen, nil
	case "visible":
		return domclone.PlaceVisible, nil
	case "unset":
		return domclone.PlaceUnset, nil
	}
	return domclone.PlaceOffScreen, fmt.Errorf("%w: %q", ErrUnknownPlacement, s)
}

// normalizeFormats lowercases, resolves aliases, dedupes and validates
// the requested formats. Empty input falls back to defaults.
func normalizeFormats(requested, defaults []string) ([]string, error) {
	if len(requested) == 0 {
		requested = defaults
	}
	var out []string
	seen := make(map[string]bool, len(requested))
	for _, f := range requested {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "jpg":
			f = FormatJPEG
		case "markdown":
			f = FormatMarkdown
		}
		switch f {
		case FormatPNG, FormatJPEG, FormatPDF, FormatMarkdown:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// extFor maps a format to its artifact file extension.
func extFor(format string) string {
	if format == FormatJPEG {
		return "jpg"
	}
	return format
}

// selectorQuerier is implemented by documents that resolve CSS
// selectors, such as the browser-backed document.
type selectorQuerier interface {
	QuerySelector(selector string) (domclone.Element, bool)
}

// resolveTarget picks the capture target: explicit ID first, then CSS
// selector, then the document body.
func resolveTarget(doc domclone.Document, targetID, selector string) (domclone.Target, error) {
	switch {
	case targetID != "":
		return domclone.ByID(targetID), nil
	case selector != "":
		q, ok := doc.(selectorQuerier)
		if !ok {
			return domclone.Target{}, fmt.Errorf("capture: selector %q: %w", selector, domclone.ErrTargetNotFound)
		}
		el, ok := q.QuerySelector(selector)
		if !ok {
			return domclone.Target{}, fmt.Errorf("capture: selector %q: %w", selector, domclone.ErrTargetNotFound)
		}
		return domclone.OfElement(el), nil
	}
	return domclone.OfElement(doc.Body()), nil
}

// targetLabel is the human-readable target stored and reported for a
// capture: "#id", the selector, or "" for the whole body.
func targetLabel(targetID, selector string) string {
	switch {
	case targetID != "":
		return "#" + targetID
	case selector != "":
		return selector
	}
	return ""
}
