package memdom

import (
	"strings"

	"github.com/hazyhaar/domsnap/domclone"
)

// inlineStyles is an ordered property map: insertion order is kept so
// serialized style attributes round-trip stably.
type inlineStyles struct {
	keys []string
	vals map[string]string
}

func (s *inlineStyles) set(prop, val string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	if prop == "" {
		return
	}
	if s.vals == nil {
		s.vals = map[string]string{}
	}
	if _, ok := s.vals[prop]; !ok {
		s.keys = append(s.keys, prop)
	}
	s.vals[prop] = strings.TrimSpace(val)
}

func (s *inlineStyles) get(prop string) (string, bool) {
	v, ok := s.vals[strings.ToLower(prop)]
	return v, ok
}

func (s *inlineStyles) clone() inlineStyles {
	var c inlineStyles
	for _, k := range s.keys {
		c.set(k, s.vals[k])
	}
	return c
}

func (s *inlineStyles) String() string {
	var sb strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(s.vals[k])
	}
	return sb.String()
}

// parseInlineStyles parses a style attribute value ("a: 1; b: 2").
func parseInlineStyles(attr string) inlineStyles {
	var s inlineStyles
	for _, decl := range strings.Split(attr, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		s.set(prop, val)
	}
	return s
}

// SetStyle writes one inline style property.
func (e *Element) SetStyle(prop, value string) { e.styles.set(prop, value) }

// InlineStyle reads one inline style property.
func (e *Element) InlineStyle(prop string) (string, bool) { return e.styles.get(prop) }

// StyleAttr renders the inline styles as a style attribute value.
func (e *Element) StyleAttr() string { return e.styles.String() }

// ComputedStyle resolves a property the way the cascade does: inline
// first, then matching sheet rules in document order with later rules
// winning, then the property's initial value. The overflow shorthand
// feeds overflow-x and overflow-y at each cascade level.
func (e *Element) ComputedStyle(prop string) string {
	prop = strings.ToLower(prop)
	if v, ok := e.cascade(prop); ok {
		return v
	}
	if axis := prop == "overflow-y" || prop == "overflow-x"; axis {
		if v, ok := e.cascade("overflow"); ok {
			return v
		}
	}
	return initialValue(prop)
}

// cascade resolves one exact property name: inline, then sheets.
func (e *Element) cascade(prop string) (string, bool) {
	if v, ok := e.styles.get(prop); ok {
		return v, true
	}
	if e.doc == nil {
		return "", false
	}
	val, found := "", false
	for _, sheet := range e.doc.sheets {
		rules, err := sheet.Rules()
		if err != nil {
			continue
		}
		for _, rule := range rules {
			if !e.matches(rule.Selector) {
				continue
			}
			for name, v := range rule.Props {
				if strings.ToLower(name) == prop {
					val, found = v, true
				}
			}
		}
	}
	return val, found
}

func initialValue(prop string) string {
	switch prop {
	case "max-height", "max-width":
		return "none"
	case "overflow", "overflow-x", "overflow-y":
		return "visible"
	case "display":
		return "block"
	case "position":
		return "static"
	}
	return ""
}

// Sheet is an in-memory stylesheet. A sheet constructed with an error
// models an inaccessible (cross-origin) sheet: Rules fails every time.
type Sheet struct {
	rules []domclone.StyleRule
	err   error
}

// Rules returns the sheet's rules, or the sheet's error when it is
// inaccessible.
func (s *Sheet) Rules() ([]domclone.StyleRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

// parseCSS parses a minimal stylesheet: "sel { prop: val; ... }" blocks,
// comma-separated selector lists, no nesting. @-rules and comments are
// dropped. Good enough for <style> blocks in test fixtures.
func parseCSS(src string) []domclone.StyleRule {
	src = stripCSSComments(src)
	var rules []domclone.StyleRule
	for {
		open := strings.IndexByte(src, '{')
		if open < 0 {
			break
		}
		close := strings.IndexByte(src[open:], '}')
		if close < 0 {
			break
		}
		selPart := strings.TrimSpace(src[:open])
		body := src[open+1 : open+close]
		src = src[open+close+1:]

		if selPart == "" || strings.HasPrefix(selPart, "@") {
			continue
		}
		props := map[string]string{}
		for _, decl := range strings.Split(body, ";") {
			prop, val, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			prop = strings.ToLower(strings.TrimSpace(prop))
			if prop == "" {
				continue
			}
			props[prop] = strings.TrimSpace(val)
		}
		if len(props) == 0 {
			continue
		}
		for _, sel := range strings.Split(selPart, ",") {
			sel = strings.TrimSpace(sel)
			if sel == "" {
				continue
			}
			rule := domclone.StyleRule{Selector: sel, Props: map[string]string{}}
			for k, v := range props {
				rule.Props[k] = v
			}
			rules = append(rules, rule)
		}
	}
	return rules
}

func stripCSSComments(src string) string {
	for {
		start := strings.Index(src, "/*")
		if start < 0 {
			return src
		}
		end := strings.Index(src[start+2:], "*/")
		if end < 0 {
			return src[:start]
		}
		src = src[:start] + src[start+2+end+2:]
	}
}
