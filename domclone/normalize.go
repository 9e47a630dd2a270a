package domclone

// Placement controls where an attached clone lands.
type Placement int

const (
	// PlaceOffScreen parks the clone outside the viewport. The default.
	PlaceOffScreen Placement = iota
	// PlaceVisible lets the clone render in normal flow.
	PlaceVisible
	// PlaceUnset writes no placement styles at all.
	PlaceUnset
)

func (p Placement) String() string {
	switch p {
	case PlaceOffScreen:
		return "offscreen"
	case PlaceVisible:
		return "visible"
	case PlaceUnset:
		return "unset"
	}
	return "unknown"
}

// scrollLimitOverrides are written to every node of a normalized subtree.
// Order matters for readability only; the properties are independent.
var scrollLimitOverrides = [...][2]string{
	{"max-height", "none"},
	{"overflow", "visible"},
	{"overflow-y", "visible"},
}

// RemoveScrollLimits rewrites the scroll-limiting inline styles on every
// element of the subtree rooted at root, the root included: max-height
// becomes none, overflow and overflow-y become visible. Other inline
// styles are preserved. Each node is visited exactly once, pre-order,
// via an explicit stack, so arbitrarily deep trees cannot exhaust the
// goroutine stack.
//
// The rewrite is unconditional and in place. Callers normalizing a live
// element rather than a clone own the visual consequences; nothing is
// recorded for restoration.
func RemoveScrollLimits(root Element) {
	if root == nil {
		return
	}
	stack := []Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, kv := range scrollLimitOverrides {
			el.SetStyle(kv[0], kv[1])
		}
		kids := el.Children()
		// Push in reverse so the first child is processed next.
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// applyPlacement writes the placement styles for p onto el. Runs after
// normalization and before caller styles.
func applyPlacement(el Element, p Placement) {
	switch p {
	case PlaceOffScreen:
		el.SetStyle("position", "absolute")
		el.SetStyle("top", "-9999px")
		el.SetStyle("left", "-9999px")
		el.SetStyle("z-index", "-1")
	case PlaceVisible:
		el.SetStyle("position", "static")
		el.SetStyle("display", "block")
	case PlaceUnset:
	}
}
