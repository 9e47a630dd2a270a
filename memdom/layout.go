package memdom

import (
	"strconv"
	"strings"
)

// Layout is block stacking driven by explicit pixel styles: children
// stack vertically, width is the widest child unless set, height is the
// stacked sum unless set, and a pixel max-height clamps the laid-out box
// but never the content extent. Non-pixel lengths (%, em, auto) do not
// participate. display:none collapses the box to zero.
//
// The one relation that matters to the pipeline: a clamped element's
// scroll extent exceeds its offset extent, and clearing the clamp brings
// the two together. Clamps on descendants stay in effect until those
// descendants are themselves normalized, which is exactly why the
// pipeline rewrites every node.

// ScrollExtent is the full content extent, ignoring this element's own
// clamp but honoring the laid-out boxes of its children.
func (e *Element) ScrollExtent() (int, int) { return e.scrollW(), e.scrollH() }

// OffsetExtent is the laid-out border-box extent.
func (e *Element) OffsetExtent() (int, int) { return e.offsetW(), e.offsetH() }

func (e *Element) hidden() bool { return e.ComputedStyle("display") == "none" }

// naturalH is the explicit pixel height, or the stacked children sum.
func (e *Element) naturalH() int {
	if v, ok := parsePx(e.ComputedStyle("height")); ok {
		return v
	}
	sum := 0
	for _, c := range e.children {
		sum += c.offsetH()
	}
	return sum
}

func (e *Element) offsetH() int {
	if e.hidden() {
		return 0
	}
	h := e.naturalH()
	if mh, ok := parsePx(e.ComputedStyle("max-height")); ok && h > mh {
		h = mh
	}
	return h
}

func (e *Element) scrollH() int {
	if e.hidden() {
		return 0
	}
	h := e.naturalH()
	sum := 0
	for _, c := range e.children {
		sum += c.offsetH()
	}
	if sum > h {
		h = sum
	}
	return h
}

// naturalW is the explicit pixel width, or the widest child.
func (e *Element) naturalW() int {
	if v, ok := parsePx(e.ComputedStyle("width")); ok {
		return v
	}
	w := 0
	for _, c := range e.children {
		if cw := c.offsetW(); cw > w {
			w = cw
		}
	}
	return w
}

func (e *Element) offsetW() int {
	if e.hidden() {
		return 0
	}
	return e.naturalW()
}

func (e *Element) scrollW() int {
	if e.hidden() {
		return 0
	}
	w := e.naturalW()
	for _, c := range e.children {
		if cw := c.offsetW(); cw > w {
			w = cw
		}
	}
	return w
}

// parsePx parses "120px" or a bare integer. Anything else, including
// "none", "auto", and percentages, is not a pixel length.
func parsePx(v string) (int, bool) {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "px")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
