package memdom

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a document from HTML. Element structure, attributes, and
// inline styles are kept; <style> blocks become document stylesheets;
// <script> elements are dropped. Text nodes collapse into their parent's
// direct text content.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	var htmlNode *html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			htmlNode = c
			break
		}
	}
	if htmlNode == nil {
		return nil, fmt.Errorf("memdom: parse: no html element")
	}

	d := &Document{}
	d.root = d.convert(htmlNode)
	if d.body == nil {
		d.body = d.CreateElement("body")
		d.body.parent = d.root
		d.root.children = append(d.root.children, d.body)
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(src string) (*Document, error) {
	return Parse(strings.NewReader(src))
}

// convert maps an x/net/html element node into a memdom element,
// harvesting <style> blocks into document sheets along the way.
func (d *Document) convert(n *html.Node) *Element {
	el := newElement(n.Data)
	el.doc = d
	for _, a := range n.Attr {
		el.SetAttr(a.Key, a.Val)
	}
	if n.DataAtom == atom.Body && d.body == nil {
		d.body = el
	}

	var text []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if t := strings.TrimSpace(c.Data); t != "" {
				text = append(text, t)
			}
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script:
				// dropped
			case atom.Style:
				if rules := parseCSS(nodeText(c)); len(rules) > 0 {
					d.AddSheet(rules...)
				}
			default:
				child := d.convert(c)
				child.parent = el
				el.children = append(el.children, child)
			}
		}
	}
	el.text = strings.Join(text, " ")
	return el
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// OuterHTML renders the element and its subtree, inline styles included.
// Attributes are emitted in sorted order so output is deterministic.
func (e *Element) OuterHTML() string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

func (e *Element) render(sb *strings.Builder) {
	sb.WriteByte('<')
	sb.WriteString(e.tag)

	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(e.attrs[k]))
		sb.WriteByte('"')
	}
	if style := e.styles.String(); style != "" {
		sb.WriteString(` style="`)
		sb.WriteString(html.EscapeString(style))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')

	if voidTags[e.tag] {
		return
	}
	if e.text != "" {
		sb.WriteString(html.EscapeString(e.text))
	}
	for _, c := range e.children {
		c.render(sb)
	}
	sb.WriteString("</")
	sb.WriteString(e.tag)
	sb.WriteByte('>')
}
