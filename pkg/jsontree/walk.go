package jsontree

// Action tells Walk what to do after visiting an object member
type Action int

const (
	// Descend continues into the member's value (if it is a container)
	Descend Action = iota
	// SkipSubtree leaves the member's value unvisited and moves to the next member
	SkipSubtree
	// SkipSiblings leaves the member's value and the rest of its object
	// unvisited and resumes with the object's parent
	SkipSiblings
	// Stop ends the walk
	Stop
)

// VisitFunc is called for every object member reached by Walk
type VisitFunc func(key string, v *Value) Action

type frame struct {
	v    *Value
	next int
}

// Walk performs a pre-order, depth-first traversal of root. Object members
// are visited in document order and each member's subtree is fully walked
// before its next sibling. Array elements are walked in sequence.
//
// An explicit stack is used so pathological nesting cannot overflow the
// goroutine stack.
func Walk(root *Value, visit VisitFunc) {
	if !root.IsContainer() {
		return
	}

	stack := []frame{{v: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		var child *Value
		switch top.v.kind {
		case Object:
			if top.next >= len(top.v.members) {
				stack = stack[:len(stack)-1]
				continue
			}
			m := top.v.members[top.next]
			top.next++

			switch visit(m.Key, m.Value) {
			case Stop:
				return
			case SkipSubtree:
				continue
			case SkipSiblings:
				stack = stack[:len(stack)-1]
				continue
			}
			child = m.Value
		case Array:
			if top.next >= len(top.v.items) {
				stack = stack[:len(stack)-1]
				continue
			}
			child = top.v.items[top.next]
			top.next++
		default:
			stack = stack[:len(stack)-1]
			continue
		}

		if child.IsContainer() {
			stack = append(stack, frame{v: child})
		}
	}
}

// Search returns the first object or array stored under key, in Walk order.
// A match whose value is a scalar ends the search of the object holding it;
// its later members are not searched and the walk resumes in the parent.
func Search(root *Value, key string) (*Value, bool) {
	var found *Value
	Walk(root, func(k string, v *Value) Action {
		if k != key {
			return Descend
		}
		if !v.IsContainer() {
			return SkipSiblings
		}
		found = v
		return Stop
	})
	return found, found != nil
}

// Collect returns every string stored under key, in Walk order, never
// entering a subtree reached through skipKey.
func Collect(root *Value, key, skipKey string) []string {
	var out []string
	Walk(root, func(k string, v *Value) Action {
		if k == skipKey {
			return SkipSubtree
		}
		if k == key {
			if s, ok := v.Str(); ok && s != "" {
				out = append(out, s)
			}
		}
		return Descend
	})
	return out
}
