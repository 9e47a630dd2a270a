package memdom

import "strings"

// The selector grammar is the simple subset the pipeline needs:
//
//   - tag: "div", "article", "*"
//   - .class, #id, tag.class, tag#id
//   - [attr], [attr=val], tag[attr=val]
//   - descendant combinator: "article .content"
//
// One class and one attribute per compound part; no child/sibling
// combinators, no pseudo-classes.

type simpleSelector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
}

// parseSimpleSelector parses one compound part: "tag.class", "#id",
// "tag[attr=val]", and so on.
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if key, val, ok := strings.Cut(attrPart, "="); ok {
			s.attrKey = key
			s.attrVal = strings.Trim(val, `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}

	if sel == "*" {
		sel = ""
	}
	s.tag = sel
	return s
}

// matchesSimple checks one compound part against one element.
func (e *Element) matchesSimple(s simpleSelector) bool {
	if s.tag != "" && e.tag != s.tag {
		return false
	}
	if s.id != "" && e.attrs["id"] != s.id {
		return false
	}
	if s.class != "" {
		found := false
		for _, c := range strings.Fields(e.attrs["class"]) {
			if c == s.class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.attrKey != "" {
		val, ok := e.attrs[s.attrKey]
		if !ok {
			return false
		}
		if s.attrVal != "" && val != s.attrVal {
			return false
		}
	}
	return true
}

// matches checks a full selector against the element. For descendant
// selectors the last part must match the element itself and the earlier
// parts must match ancestors, outermost first.
func (e *Element) matches(selector string) bool {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return false
	}
	last := parseSimpleSelector(parts[len(parts)-1])
	if !e.matchesSimple(last) {
		return false
	}

	// Walk ancestors matching the remaining parts right to left.
	anc := e.parent
	for i := len(parts) - 2; i >= 0; i-- {
		want := parseSimpleSelector(parts[i])
		for {
			if anc == nil {
				return false
			}
			ok := anc.matchesSimple(want)
			anc = anc.parent
			if ok {
				break
			}
		}
	}
	return true
}
