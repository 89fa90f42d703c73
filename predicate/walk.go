package predicate

// Walk visits p and its children depth first, pre-order. Returning false
// from fn skips the children of that node.
func Walk(p Predicate, fn func(Predicate) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch n := p.(type) {
	case *And:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Or:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Not:
		Walk(n.Arg, fn)
	}
}

// Fields lists the distinct field names referenced by p, in the order
// first seen.
func Fields(p Predicate) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(f Field) {
		if !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	Walk(p, func(n Predicate) bool {
		switch n := n.(type) {
		case *Compare:
			add(n.Field)
		case *FieldCompare:
			add(n.Left)
			add(n.Right)
		case *Between:
			add(n.Field)
		case *In:
			add(n.Field)
		case *Match:
			add(n.Field)
		}
		return true
	})
	return names
}

// Size is the number of nodes in p.
func Size(p Predicate) int {
	size := 0
	Walk(p, func(Predicate) bool {
		size++
		return true
	})
	return size
}
