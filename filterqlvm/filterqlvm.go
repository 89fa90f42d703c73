// Package filterqlvm compiles filter expressions against a schema and
// evaluates them over in-memory records.
package filterqlvm

import (
	u "github.com/araddon/gou"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/filterqlvm/compiler"
	"github.com/lytics/qlpredicate/optimization"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
)

// Option configures a FilterVM.
type Option func(*FilterVM)

// WithCompilerOptions passes options to every compile.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(vm *FilterVM) { vm.compilerOpts = append(vm.compilerOpts, opts...) }
}

// WithOptimization reorders compiled predicates so cheap tests run first.
func WithOptimization() Option {
	return func(vm *FilterVM) { vm.optimize = true }
}

// FilterVM compiles (and caches) expressions and runs them against records.
type FilterVM struct {
	compiler     *compiler.DirectCompiler
	compilerOpts []compiler.Option
	optimize     bool
}

// NewFilterVM creates a new vm.
func NewFilterVM(opts ...Option) *FilterVM {
	vm := &FilterVM{}
	for _, opt := range opts {
		opt(vm)
	}
	vm.compiler = compiler.NewDirectCompiler(vm.compilerOpts...)
	return vm
}

// Compile an expression; a nil expression matches everything.
func (vm *FilterVM) Compile(node expr.Node, s *schema.Schema) (predicate.Predicate, error) {
	p, err := vm.compiler.Compile(node, s)
	if err != nil {
		return nil, err
	}
	if !vm.optimize || p.Kind() == predicate.KindMatchAll {
		return p, nil
	}
	op, err := optimization.OptimizeBooleanNodes(p)
	if err != nil {
		u.Warnf("could not optimize %s: %v", p, err)
		return p, nil
	}
	return op, nil
}

// Matches compiles node and evaluates it against a single record.
func (vm *FilterVM) Matches(node expr.Node, s *schema.Schema, r predicate.Record) (bool, error) {
	p, err := vm.Compile(node, s)
	if err != nil {
		return false, err
	}
	return p.Eval(r), nil
}

// Filter returns the records accepted by node, in input order.
func (vm *FilterVM) Filter(node expr.Node, s *schema.Schema, recs []predicate.Record) ([]predicate.Record, error) {
	p, err := vm.Compile(node, s)
	if err != nil {
		return nil, err
	}
	if p.Kind() == predicate.KindMatchAll {
		return recs, nil
	}
	out := make([]predicate.Record, 0, len(recs))
	for _, r := range recs {
		if p.Eval(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CacheLen is the number of cached predicates.
func (vm *FilterVM) CacheLen() int { return vm.compiler.Len() }
