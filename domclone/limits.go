package domclone

import "strings"

// LimitReport describes whether and how an element's computed style
// limits scrolling. Raw computed values ride along so callers can log or
// display them.
type LimitReport struct {
	// Limited is true when any of the three properties clips content.
	Limited bool `json:"limited"`

	HasMaxHeight bool `json:"has_max_height"`
	HasOverflow  bool `json:"has_overflow"`
	HasOverflowY bool `json:"has_overflow_y"`

	MaxHeight string `json:"max_height"`
	Overflow  string `json:"overflow"`
	OverflowY string `json:"overflow_y"`
}

// QueryScrollLimits reads the computed scroll-limiting properties of the
// target. Read-only: no clone is made and the element is not mutated.
func QueryScrollLimits(doc Document, t Target) (LimitReport, error) {
	el, err := resolve(doc, t)
	if err != nil {
		return LimitReport{}, err
	}
	r := LimitReport{
		MaxHeight: el.ComputedStyle("max-height"),
		Overflow:  el.ComputedStyle("overflow"),
		OverflowY: el.ComputedStyle("overflow-y"),
	}
	r.HasMaxHeight = r.MaxHeight != "" && r.MaxHeight != "none"
	r.HasOverflow = clipsContent(r.Overflow)
	r.HasOverflowY = clipsContent(r.OverflowY)
	r.Limited = r.HasMaxHeight || r.HasOverflow || r.HasOverflowY
	return r, nil
}

// clipsContent reports whether an overflow value hides or scrolls
// content. "visible" and the empty value do not.
func clipsContent(v string) bool {
	switch v {
	case "hidden", "scroll", "auto", "clip":
		return true
	}
	return false
}

// HasStyleSet reports whether prop is set on the target, first by inline
// style, then by any stylesheet rule whose selector matches the element.
// An inline hit short-circuits: stylesheets are not consulted. Sheets
// whose rules cannot be read (cross-origin) are skipped silently; they
// neither fail the call nor count as setting anything.
func HasStyleSet(doc Document, t Target, prop string) (bool, error) {
	el, err := resolve(doc, t)
	if err != nil {
		return false, err
	}
	prop = strings.ToLower(prop)
	if _, ok := el.InlineStyle(prop); ok {
		return true, nil
	}
	for _, sheet := range doc.StyleSheets() {
		rules, err := sheet.Rules()
		if err != nil {
			continue
		}
		for _, rule := range rules {
			if !el.Matches(rule.Selector) {
				continue
			}
			for name := range rule.Props {
				if strings.EqualFold(name, prop) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}
