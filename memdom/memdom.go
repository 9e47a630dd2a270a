// Package memdom is an in-memory DOM implementing the domclone
// environment interfaces. It exists so the clone-and-normalize pipeline
// and everything layered on it can run in tests without a browser.
//
// The model is deliberately small: elements carry a tag, attributes,
// ordered inline styles, and children; documents carry a body and a list
// of stylesheets. Layout is block stacking driven by explicit pixel
// styles (width, height, max-height), which is enough to give scroll and
// offset extents real, assertable values. Parse builds a document from
// HTML via x/net/html, including <style> blocks.
package memdom

import (
	"github.com/hazyhaar/domsnap/domclone"
)

// Document is an in-memory document. Implements domclone.Document.
type Document struct {
	root   *Element
	body   *Element
	sheets []domclone.StyleSheet
}

// NewDocument returns a document with an empty html/body skeleton.
func NewDocument() *Document {
	d := &Document{}
	d.root = newElement("html")
	d.body = newElement("body")
	d.root.doc = d
	d.body.doc = d
	d.root.children = append(d.root.children, d.body)
	d.body.parent = d.root
	return d
}

// Body returns the document body.
func (d *Document) Body() domclone.Element { return d.body }

// ElementByID finds the element carrying the given id attribute. An empty
// id never matches.
func (d *Document) ElementByID(id string) (domclone.Element, bool) {
	if id == "" {
		return nil, false
	}
	el := d.root.find(func(e *Element) bool { return e.attrs["id"] == id })
	if el == nil {
		return nil, false
	}
	return el, true
}

// QuerySelector returns the first element matching a simple CSS selector,
// in document order.
func (d *Document) QuerySelector(selector string) (domclone.Element, bool) {
	el := d.root.find(func(e *Element) bool { return e.matches(selector) })
	if el == nil {
		return nil, false
	}
	return el, true
}

// StyleSheets returns the document's stylesheets in document order.
func (d *Document) StyleSheets() []domclone.StyleSheet { return d.sheets }

// AddSheet appends an accessible stylesheet with the given rules.
func (d *Document) AddSheet(rules ...domclone.StyleRule) {
	d.sheets = append(d.sheets, &Sheet{rules: rules})
}

// AddBrokenSheet appends a stylesheet whose Rules call fails, the way a
// cross-origin sheet does in a browser.
func (d *Document) AddBrokenSheet(err error) {
	d.sheets = append(d.sheets, &Sheet{err: err})
}

// CreateElement returns a new detached element owned by this document.
func (d *Document) CreateElement(tag string) *Element {
	el := newElement(tag)
	el.doc = d
	return el
}

// Element is an in-memory DOM element. Implements domclone.Element.
type Element struct {
	doc      *Document
	tag      string
	attrs    map[string]string
	parent   *Element
	children []*Element
	text     string
	styles   inlineStyles
	bound    []string
}

func newElement(tag string) *Element {
	return &Element{tag: tag, attrs: map[string]string{}}
}

// NewElement returns a detached element that belongs to no document.
func NewElement(tag string) *Element { return newElement(tag) }

// Tag returns the lowercase tag name.
func (e *Element) Tag() string { return e.tag }

// SetAttr sets an attribute. Setting "style" replaces all inline styles.
func (e *Element) SetAttr(key, val string) {
	if key == "style" {
		e.styles = parseInlineStyles(val)
		return
	}
	e.attrs[key] = val
}

// Attr returns an attribute value, empty when unset.
func (e *Element) Attr(key string) string { return e.attrs[key] }

// SetText sets the element's direct text content.
func (e *Element) SetText(s string) { e.text = s }

// Text returns the element's direct text content.
func (e *Element) Text() string { return e.text }

// Children returns the element children in document order.
func (e *Element) Children() []domclone.Element {
	out := make([]domclone.Element, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}

// AppendChild attaches child as the last child. The child is detached
// from any previous parent and adopted into this element's document.
// Panics when handed an element from another environment.
func (e *Element) AppendChild(child domclone.Element) {
	c, ok := child.(*Element)
	if !ok {
		panic("memdom: AppendChild requires a memdom element")
	}
	c.Detach()
	c.parent = e
	e.children = append(e.children, c)
	if e.doc != nil {
		c.adopt(e.doc)
	}
}

func (e *Element) adopt(d *Document) {
	e.doc = d
	for _, c := range e.children {
		c.adopt(d)
	}
}

// Detach removes the element from its parent. No-op when parentless.
func (e *Element) Detach() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Contains reports whether other is e or a descendant of e. Elements from
// another environment are never contained.
func (e *Element) Contains(other domclone.Element) bool {
	o, ok := other.(*Element)
	if !ok {
		return false
	}
	for n := o; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// CloneTree deep-copies the element: tag, attributes, text, and inline
// styles. Bound listener names are not copied; clones are inert.
func (e *Element) CloneTree() domclone.Element { return e.cloneTree() }

func (e *Element) cloneTree() *Element {
	c := newElement(e.tag)
	c.doc = e.doc
	c.text = e.text
	for k, v := range e.attrs {
		c.attrs[k] = v
	}
	c.styles = e.styles.clone()
	for _, child := range e.children {
		cc := child.cloneTree()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// Bind records a listener name on the element, modeling live state that
// CloneTree must not carry over.
func (e *Element) Bind(name string) { e.bound = append(e.bound, name) }

// Bound returns the listener names bound to this element.
func (e *Element) Bound() []string { return e.bound }

// Matches reports whether the element matches a simple CSS selector.
func (e *Element) Matches(selector string) bool { return e.matches(selector) }

// find returns the first element in pre-order for which pred is true.
func (e *Element) find(pred func(*Element) bool) *Element {
	if pred(e) {
		return e
	}
	for _, c := range e.children {
		if m := c.find(pred); m != nil {
			return m
		}
	}
	return nil
}
