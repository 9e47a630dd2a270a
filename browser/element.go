package browser

import (
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domsnap/domclone"
)

// JS snippets evaluated with `this` bound to the element. Everything the
// pipeline needs from a node goes through these.
const (
	tagJS           = `() => this.tagName.toLowerCase()`
	setStyleJS      = `(p, v) => { this.style.setProperty(p, v); }`
	computedStyleJS = `(p) => getComputedStyle(this).getPropertyValue(p)`
	cloneTreeJS     = `() => this.cloneNode(true)`
	appendChildJS   = `(child) => { this.appendChild(child); }`
	scrollExtentJS  = `() => ({ w: this.scrollWidth, h: this.scrollHeight })`
	offsetExtentJS  = `() => ({ w: this.offsetWidth, h: this.offsetHeight })`

	inlineStyleJS = `(p) => {
		const st = this.style;
		for (let i = 0; i < st.length; i++) {
			if (st[i] === p) {
				return { set: true, val: st.getPropertyValue(p) };
			}
		}
		return { set: false, val: "" };
	}`

	childrenJS = `(n) => Array.from(n.children)`
)

// Element implements domclone.Element over one remote node. A dead
// element (transport failure during creation) carries a nil rod handle;
// its operations no-op and the failure is on the document's Err.
type Element struct {
	d   *Document
	el  *rod.Element
	tag string
}

// Tag returns the lowercase tag name, cached after the first read.
func (e *Element) Tag() string {
	if e.el == nil {
		return ""
	}
	if e.tag != "" {
		return e.tag
	}
	res, err := e.el.Eval(tagJS)
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: tag: %w", err))
		return ""
	}
	e.tag = res.Value.Str()
	return e.tag
}

// CloneTree deep-clones the node. The clone is detached and belongs to
// the same page; listeners do not survive cloneNode.
func (e *Element) CloneTree() domclone.Element {
	if e.el == nil {
		return &Element{d: e.d}
	}
	cl, err := e.el.ElementByJS(rod.Eval(cloneTreeJS))
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: clone: %w", err))
		return &Element{d: e.d}
	}
	return &Element{d: e.d, el: cl, tag: e.tag}
}

// Children returns the element children in document order.
func (e *Element) Children() []domclone.Element {
	if e.el == nil {
		return nil
	}
	els, err := e.d.page.ElementsByJS(rod.Eval(childrenJS, e.el.Object))
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: children: %w", err))
		return nil
	}
	out := make([]domclone.Element, len(els))
	for i, el := range els {
		out[i] = &Element{d: e.d, el: el}
	}
	return out
}

// SetStyle writes one inline style property.
func (e *Element) SetStyle(prop, value string) {
	if e.el == nil {
		return
	}
	if _, err := e.el.Eval(setStyleJS, prop, value); err != nil {
		e.d.setErr(fmt.Errorf("browser: set style %s: %w", prop, err))
	}
}

// InlineStyle reads one inline style property.
func (e *Element) InlineStyle(prop string) (string, bool) {
	if e.el == nil {
		return "", false
	}
	res, err := e.el.Eval(inlineStyleJS, prop)
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: inline style %s: %w", prop, err))
		return "", false
	}
	if !res.Value.Get("set").Bool() {
		return "", false
	}
	return res.Value.Get("val").Str(), true
}

// ComputedStyle returns the computed value of a property.
func (e *Element) ComputedStyle(prop string) string {
	if e.el == nil {
		return ""
	}
	res, err := e.el.Eval(computedStyleJS, prop)
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: computed style %s: %w", prop, err))
		return ""
	}
	return res.Value.Str()
}

// Matches reports whether the element matches a CSS selector, using the
// browser's native matching.
func (e *Element) Matches(selector string) bool {
	if e.el == nil {
		return false
	}
	ok, err := e.el.Matches(selector)
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: matches %q: %w", selector, err))
		return false
	}
	return ok
}

// AppendChild attaches child as the last child of this element. The
// child must come from the same page.
func (e *Element) AppendChild(child domclone.Element) {
	c, ok := child.(*Element)
	if !ok {
		e.d.setErr(fmt.Errorf("browser: append child: element is not a browser element"))
		return
	}
	if e.el == nil || c.el == nil {
		return
	}
	if _, err := e.el.Eval(appendChildJS, c.el.Object); err != nil {
		e.d.setErr(fmt.Errorf("browser: append child: %w", err))
	}
}

// Detach removes the element from the page.
func (e *Element) Detach() {
	if e.el == nil {
		return
	}
	if err := e.el.Remove(); err != nil {
		e.d.setErr(fmt.Errorf("browser: detach: %w", err))
	}
}

// Contains reports whether other is this element or a descendant.
func (e *Element) Contains(other domclone.Element) bool {
	o, ok := other.(*Element)
	if !ok || e.el == nil || o.el == nil {
		return false
	}
	res, err := e.el.Eval(`(o) => this === o || this.contains(o)`, o.el.Object)
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: contains: %w", err))
		return false
	}
	return res.Value.Bool()
}

// ScrollExtent is the full content extent, ignoring clipping.
func (e *Element) ScrollExtent() (int, int) { return e.extent(scrollExtentJS, "scroll extent") }

// OffsetExtent is the laid-out border-box extent.
func (e *Element) OffsetExtent() (int, int) { return e.extent(offsetExtentJS, "offset extent") }

func (e *Element) extent(js, what string) (int, int) {
	if e.el == nil {
		return 0, 0
	}
	res, err := e.el.Eval(js)
	if err != nil {
		e.d.setErr(fmt.Errorf("browser: %s: %w", what, err))
		return 0, 0
	}
	return res.Value.Get("w").Int(), res.Value.Get("h").Int()
}
