package domclone

// Document is the environment the pipeline runs in. Implementations are
// not safe for concurrent use; the pipeline is synchronous by contract.
type Document interface {
	// ElementByID resolves a document ID. The second return is false when
	// no element carries the ID.
	ElementByID(id string) (Element, bool)
	// Body returns the document body, the attachment point for clones.
	Body() Element
	// StyleSheets lists the document's stylesheets in document order.
	StyleSheets() []StyleSheet
}

// Element is a DOM element the pipeline can clone, restyle, move, and
// measure. Style property names are lowercase; implementations look them
// up case-insensitively on the ASCII range.
//
// Methods are synchronous and infallible. A binding over a remote DOM
// captures whatever context it needs at construction time and reports
// transport failures out of band (see the browser package's sticky Err).
type Element interface {
	// Tag returns the lowercase tag name.
	Tag() string
	// CloneTree returns a deep structural copy: tags, attributes, and
	// inline styles are copied; event listeners and other live state are
	// not. The copy is detached.
	CloneTree() Element
	// Children returns the element children in document order.
	Children() []Element
	// SetStyle writes one inline style property.
	SetStyle(prop, value string)
	// InlineStyle reads one inline style property; the second return is
	// false when the property is not set inline.
	InlineStyle(prop string) (string, bool)
	// ComputedStyle returns the computed value of a property.
	ComputedStyle(prop string) string
	// Matches reports whether the element matches a CSS selector.
	Matches(selector string) bool
	// AppendChild attaches a child as the last child of this element.
	AppendChild(Element)
	// Detach removes the element from its parent. No-op when parentless.
	Detach()
	// Contains reports whether other is this element or a descendant.
	Contains(other Element) bool
	// ScrollExtent is the full content extent, ignoring clipping.
	ScrollExtent() (w, h int)
	// OffsetExtent is the laid-out border-box extent.
	OffsetExtent() (w, h int)
}

// StyleSheet is one document stylesheet.
type StyleSheet interface {
	// Rules returns the sheet's style rules. An error marks the sheet
	// inaccessible (cross-origin, detached); callers skip such sheets.
	Rules() ([]StyleRule, error)
}

// StyleRule is a selector plus the properties its declaration block sets.
type StyleRule struct {
	Selector string
	Props    map[string]string
}
