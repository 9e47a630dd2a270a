// Package domclone captures the full content of a DOM element by cloning
// it, stripping scroll-limiting styles from every node of the clone, and
// measuring the normalized clone after attaching it to the document body.
//
// Scroll clipping (max-height, overflow, overflow-y) hides content from
// measurement and rasterization. Instead of scrolling and stitching, the
// pipeline deep-clones the target, rewrites those three properties on every
// node of the clone, places the clone off-screen, and reads its unclipped
// extent. The original element is never touched.
//
// The pipeline runs against any environment implementing Document and
// Element: a live Chrome page (package browser) or an in-memory document
// (package memdom).
package domclone

import (
	"errors"
	"fmt"
)

// ErrTargetNotFound is returned when a Target cannot be resolved against
// the document. It is the only error condition of the core pipeline.
var ErrTargetNotFound = errors.New("domclone: target not found")

// Target identifies the element an operation works on, either by document
// ID or as an already-resolved Element.
type Target struct {
	id string
	el Element
}

// ByID targets the element with the given document ID. An empty ID never
// resolves.
func ByID(id string) Target { return Target{id: id} }

// OfElement targets an element the caller already holds.
func OfElement(el Element) Target { return Target{el: el} }

func (t Target) String() string {
	switch {
	case t.el != nil:
		return "<" + t.el.Tag() + ">"
	case t.id != "":
		return "#" + t.id
	}
	return "(no target)"
}

// resolve returns the element a target names, or ErrTargetNotFound.
func resolve(doc Document, t Target) (Element, error) {
	if t.el != nil {
		return t.el, nil
	}
	if t.id != "" {
		if el, ok := doc.ElementByID(t.id); ok {
			return el, nil
		}
	}
	return nil, ErrTargetNotFound
}

// Options controls clone placement and final style overrides.
//
// Styles are applied after normalization and placement, so a caller can
// override anything the pipeline wrote, including the normalization
// properties themselves.
type Options struct {
	Placement Placement
	Styles    map[string]string
}

// Dimensions is the measured extent of an attached clone, in CSS pixels.
// Scroll extent is the full content size ignoring clipping; offset extent
// is the laid-out border-box size.
type Dimensions struct {
	ScrollWidth  int `json:"scroll_width"`
	ScrollHeight int `json:"scroll_height"`
	OffsetWidth  int `json:"offset_width"`
	OffsetHeight int `json:"offset_height"`
}

// CloneElement resolves the target, deep-clones it, and normalizes the
// clone: scroll limits removed from every node, placement styles applied,
// then caller styles on top. The clone is returned detached; it belongs to
// no parent and the document is not modified.
func CloneElement(doc Document, t Target, opts Options) (Element, error) {
	src, err := resolve(doc, t)
	if err != nil {
		return nil, err
	}
	clone := src.CloneTree()
	RemoveScrollLimits(clone)
	applyPlacement(clone, opts.Placement)
	for prop, val := range opts.Styles {
		clone.SetStyle(prop, val)
	}
	return clone, nil
}

// Attach clones and normalizes the target as CloneElement does, then
// appends the clone to the document body and returns a handle that owns
// its removal.
func Attach(doc Document, t Target, opts Options) (*Managed, error) {
	clone, err := CloneElement(doc, t, opts)
	if err != nil {
		return nil, err
	}
	body := doc.Body()
	body.AppendChild(clone)
	return &Managed{el: clone, body: body}, nil
}

// Managed is an attached normalized clone. Callers must Release it when
// done; Release is idempotent.
type Managed struct {
	el       Element
	body     Element
	released bool
}

// Element returns the attached clone.
func (m *Managed) Element() Element { return m.el }

// Measure reads the clone's extents. After Release it returns the zero
// Dimensions.
func (m *Managed) Measure() Dimensions {
	if m.released {
		return Dimensions{}
	}
	var d Dimensions
	d.ScrollWidth, d.ScrollHeight = m.el.ScrollExtent()
	d.OffsetWidth, d.OffsetHeight = m.el.OffsetExtent()
	return d
}

// Release detaches the clone from the document body. Safe to call more
// than once, and safe when something else already removed the clone: the
// handle checks containment before detaching.
func (m *Managed) Release() {
	if m.released {
		return
	}
	m.released = true
	if m.body.Contains(m.el) {
		m.el.Detach()
	}
}

// QueryFullDimensions measures the target's full content extent in one
// shot: clone, attach, measure, release. The release is deferred, so no
// clone remains in the document even if measurement panics.
func QueryFullDimensions(doc Document, t Target, opts Options) (Dimensions, error) {
	m, err := Attach(doc, t, opts)
	if err != nil {
		return Dimensions{}, fmt.Errorf("measure %s: %w", t, err)
	}
	defer m.Release()
	return m.Measure(), nil
}
