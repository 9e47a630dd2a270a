package domclone_test

import (
	"fmt"
	"testing"

	"github.com/hazyhaar/domsnap/domclone"
)

// spyElement records every SetStyle call in a shared log so traversal
// order and visit counts are observable.
type spyElement struct {
	name string
	kids []*spyElement
	log  *[]string
}

func newSpyTree(log *[]string, name string, kids ...*spyElement) *spyElement {
	return &spyElement{name: name, kids: kids, log: log}
}

func (s *spyElement) Tag() string { return s.name }
func (s *spyElement) SetStyle(prop, value string) {
	*s.log = append(*s.log, s.name+" "+prop+"="+value)
}
func (s *spyElement) Children() []domclone.Element {
	out := make([]domclone.Element, len(s.kids))
	for i, k := range s.kids {
		out[i] = k
	}
	return out
}
func (s *spyElement) CloneTree() domclone.Element       { return s }
func (s *spyElement) InlineStyle(string) (string, bool) { return "", false }
func (s *spyElement) ComputedStyle(string) string       { return "" }
func (s *spyElement) Matches(string) bool               { return false }
func (s *spyElement) AppendChild(domclone.Element)      {}
func (s *spyElement) Detach()                           {}
func (s *spyElement) Contains(domclone.Element) bool    { return false }
func (s *spyElement) ScrollExtent() (int, int)          { return 0, 0 }
func (s *spyElement) OffsetExtent() (int, int)          { return 0, 0 }

func TestRemoveScrollLimits_PreOrderExactlyOnce(t *testing.T) {
	var log []string
	//      root
	//     /    \
	//    a      b
	//   / \      \
	//  a1  a2     b1
	tree := newSpyTree(&log, "root",
		newSpyTree(&log, "a",
			newSpyTree(&log, "a1"),
			newSpyTree(&log, "a2"),
		),
		newSpyTree(&log, "b",
			newSpyTree(&log, "b1"),
		),
	)

	domclone.RemoveScrollLimits(tree)

	wantOrder := []string{"root", "a", "a1", "a2", "b", "b1"}
	wantProps := []string{"max-height=none", "overflow=visible", "overflow-y=visible"}

	if len(log) != len(wantOrder)*len(wantProps) {
		t.Fatalf("writes: got %d, want %d\nlog: %v", len(log), len(wantOrder)*len(wantProps), log)
	}
	for i, node := range wantOrder {
		for j, prop := range wantProps {
			want := node + " " + prop
			if got := log[i*len(wantProps)+j]; got != want {
				t.Fatalf("write %d: got %q, want %q", i*len(wantProps)+j, got, want)
			}
		}
	}
}

func TestRemoveScrollLimits_SingleAndNil(t *testing.T) {
	var log []string
	domclone.RemoveScrollLimits(newSpyTree(&log, "solo"))
	if len(log) != 3 {
		t.Errorf("single node writes: got %d, want 3", len(log))
	}

	domclone.RemoveScrollLimits(nil) // must not panic
}

func TestRemoveScrollLimits_DeepChain(t *testing.T) {
	// A chain far deeper than any goroutine stack would enjoy
	// recursing through.
	var log []string
	const depth = 200000
	leaf := newSpyTree(&log, fmt.Sprintf("n%d", depth-1))
	node := leaf
	for i := depth - 2; i >= 0; i-- {
		node = newSpyTree(&log, fmt.Sprintf("n%d", i), node)
	}

	domclone.RemoveScrollLimits(node)

	if len(log) != depth*3 {
		t.Fatalf("writes: got %d, want %d", len(log), depth*3)
	}
	if log[0] != "n0 max-height=none" {
		t.Errorf("first write: got %q", log[0])
	}
	if log[len(log)-1] != fmt.Sprintf("n%d overflow-y=visible", depth-1) {
		t.Errorf("last write: got %q", log[len(log)-1])
	}
}
