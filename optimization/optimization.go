// Package optimization rewrites compiled predicates into cheaper,
// equivalent ones.
package optimization

import (
	"errors"

	"github.com/lytics/qlpredicate/predicate"
)

var (
	// MaxDepth specifies the depth at which we are certain the predicate is
	// malformed or cyclic.
	MaxDepth = 1000

	ErrMaxDepth = errors.New("optimization: hit max depth")
)

// OptimizeBooleanNodes returns a rewritten copy of p:
//   - the children of every and/or are ordered by number of nodes, smallest
//     first, so the cheaper test short circuits the other
//   - match-all operands are folded (x and * = x, x or * = *)
//   - double negation is removed
//
// Leaf predicates are shared with p, they are immutable.
func OptimizeBooleanNodes(p predicate.Predicate) (predicate.Predicate, error) {
	out, _, err := optimizeDepth(p, 0)
	return out, err
}

func optimizeDepth(p predicate.Predicate, depth int) (predicate.Predicate, uint64, error) {
	if depth > MaxDepth {
		return nil, 0, ErrMaxDepth
	}
	switch n := p.(type) {
	case *predicate.And:
		left, right, size, err := optimizePair(n.Left, n.Right, depth)
		if err != nil {
			return nil, 0, err
		}
		switch {
		case left.Kind() == predicate.KindMatchAll:
			return right, size - 1, nil
		case right.Kind() == predicate.KindMatchAll:
			return left, size - 1, nil
		}
		return predicate.NewAnd(left, right), size + 1, nil
	case *predicate.Or:
		left, right, size, err := optimizePair(n.Left, n.Right, depth)
		if err != nil {
			return nil, 0, err
		}
		if left.Kind() == predicate.KindMatchAll || right.Kind() == predicate.KindMatchAll {
			return predicate.MatchAll, 1, nil
		}
		return predicate.NewOr(left, right), size + 1, nil
	case *predicate.Not:
		arg, size, err := optimizeDepth(n.Arg, depth+1)
		if err != nil {
			return nil, 0, err
		}
		if inner, ok := arg.(*predicate.Not); ok {
			return inner.Arg, size - 1, nil
		}
		return predicate.NewNot(arg), size + 1, nil
	}
	return p, 1, nil
}

// optimizePair optimizes both operands and orders them smallest first.
func optimizePair(a, b predicate.Predicate, depth int) (predicate.Predicate, predicate.Predicate, uint64, error) {
	left, lsize, err := optimizeDepth(a, depth+1)
	if err != nil {
		return nil, nil, 0, err
	}
	right, rsize, err := optimizeDepth(b, depth+1)
	if err != nil {
		return nil, nil, 0, err
	}
	if rsize < lsize {
		left, right = right, left
	}
	return left, right, lsize + rsize, nil
}
