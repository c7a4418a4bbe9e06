package expr

import "sort"

// Walk visits n and every node below it in depth-first order. Returning
// false from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Call:
		for _, a := range n.args {
			Walk(a, fn)
		}
	case *Conditional:
		Walk(n.def, fn)
		for _, b := range n.branches {
			Walk(b.When, fn)
			Walk(b.Then, fn)
		}
	}
}

// References returns the sorted, deduplicated names of every variable
// referenced below n.
func References(n Node) []string {
	seen := make(map[string]struct{})
	Walk(n, func(m Node) bool {
		if ref, ok := m.(*VariableRef); ok {
			seen[ref.name] = struct{}{}
		}
		return true
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
