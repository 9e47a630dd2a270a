package browser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domsnap/domclone"
)

// Document implements domclone.Document over one live page.
//
// The domclone interfaces are infallible, so transport failures during
// pipeline work are recorded on the document instead of returned: after
// a run, Err reports the first failure, the way bufio.Scanner does.
type Document struct {
	page *rod.Page

	mu  sync.Mutex
	err error
}

func newDocument(page *rod.Page) *Document {
	return &Document{page: page}
}

// Err returns the first transport failure recorded during pipeline work,
// nil when everything went through.
func (d *Document) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Document) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
}

// failFast queries without rod's retry sleeper, so a missing element
// reports immediately instead of waiting for one to appear.
func (d *Document) failFast() *rod.Page {
	return d.page.Sleeper(rod.NotFoundSleeper)
}

func notFound(err error) bool {
	var enf *rod.ElementNotFoundError
	return errors.As(err, &enf)
}

// ElementByID resolves a document ID on the live page.
func (d *Document) ElementByID(id string) (domclone.Element, bool) {
	if id == "" {
		return nil, false
	}
	el, err := d.failFast().ElementByJS(rod.Eval(`(id) => document.getElementById(id)`, id))
	if err != nil {
		if !notFound(err) {
			d.setErr(fmt.Errorf("browser: element by id %q: %w", id, err))
		}
		return nil, false
	}
	return &Element{d: d, el: el}, true
}

// QuerySelector resolves a CSS selector to the first matching element.
func (d *Document) QuerySelector(selector string) (domclone.Element, bool) {
	el, err := d.failFast().ElementByJS(rod.Eval(`(s) => document.querySelector(s)`, selector))
	if err != nil {
		if !notFound(err) {
			d.setErr(fmt.Errorf("browser: query %q: %w", selector, err))
		}
		return nil, false
	}
	return &Element{d: d, el: el}, true
}

// Body returns the document body. On transport failure it returns a dead
// element whose operations no-op, and records the error.
func (d *Document) Body() domclone.Element {
	el, err := d.failFast().ElementByJS(rod.Eval(`() => document.body`))
	if err != nil {
		d.setErr(fmt.Errorf("browser: body: %w", err))
		return &Element{d: d}
	}
	return &Element{d: d, el: el}
}

// styleSheetsJS snapshots every sheet in one round trip. Sheets that
// refuse cssRules access (cross-origin) come back with ok=false.
const styleSheetsJS = `() => {
	const out = [];
	for (const sheet of document.styleSheets) {
		const entry = { ok: true, error: "", rules: [] };
		try {
			for (const rule of sheet.cssRules) {
				if (!rule.selectorText || !rule.style) continue;
				const props = {};
				for (const name of rule.style) {
					props[name] = rule.style.getPropertyValue(name);
				}
				entry.rules.push({ selector: rule.selectorText, props: props });
			}
		} catch (e) {
			entry.ok = false;
			entry.error = String(e);
		}
		out.push(entry);
	}
	return out;
}`

// StyleSheets snapshots the page's stylesheets. The snapshot is taken at
// call time; later page mutations are not reflected.
func (d *Document) StyleSheets() []domclone.StyleSheet {
	res, err := d.page.Eval(styleSheetsJS)
	if err != nil {
		d.setErr(fmt.Errorf("browser: stylesheets: %w", err))
		return nil
	}
	var sheets []domclone.StyleSheet
	for _, entry := range res.Value.Arr() {
		if !entry.Get("ok").Bool() {
			sheets = append(sheets, &Sheet{err: fmt.Errorf("browser: sheet inaccessible: %s", entry.Get("error").Str())})
			continue
		}
		var rules []domclone.StyleRule
		for _, r := range entry.Get("rules").Arr() {
			rule := domclone.StyleRule{
				Selector: r.Get("selector").Str(),
				Props:    map[string]string{},
			}
			for name, v := range r.Get("props").Map() {
				rule.Props[name] = v.Str()
			}
			rules = append(rules, rule)
		}
		sheets = append(sheets, &Sheet{rules: rules})
	}
	return sheets
}

// Sheet is a snapshot of one page stylesheet.
type Sheet struct {
	rules []domclone.StyleRule
	err   error
}

// Rules returns the snapshot rules, or the access error for an
// inaccessible sheet.
func (s *Sheet) Rules() ([]domclone.StyleRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}
