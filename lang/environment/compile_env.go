// Package environment implements the lexical environment runtime: the
// stack of declarative and object environments that back variable
// resolution, the compile-time environment descriptors the compiler
// produces, and the binding locator / resolver protocol that lets most
// variable references be resolved to an integer index at compile time
// while still supporting the late-arriving bindings introduced by direct
// eval and the dynamic shadowing introduced by with.
package environment

import "golang.org/x/exp/slices"

// CompileTimeEnvironment mirrors, at compile time, the shape of a runtime
// Environment: the set of names it binds and whether it is a function
// environment. The compiler builds a chain of these (one per lexical
// scope) and the Call/Construct engine later mirrors that chain as
// runtime Environments.
type CompileTimeEnvironment struct {
	outer    *CompileTimeEnvironment
	fn       bool
	index    int // position of this environment in CodeBlock.CompileEnvironments
	order    []string
	bindings map[string]bindingInfo
	varNames map[string]bool // subset of order that are `var`-style (function-scoped) bindings
}

type bindingInfo struct {
	index     int
	immutable bool
}

// NewCompileTimeEnvironment creates a root compile-time environment (no
// outer scope), used for the global/script-level scope.
func NewCompileTimeEnvironment(isFunction bool) *CompileTimeEnvironment {
	return &CompileTimeEnvironment{
		fn:       isFunction,
		bindings: make(map[string]bindingInfo),
	}
}

// NewChild creates a nested compile-time environment whose outer scope is
// cte.
func (cte *CompileTimeEnvironment) NewChild(isFunction bool) *CompileTimeEnvironment {
	return &CompileTimeEnvironment{
		outer:    cte,
		fn:       isFunction,
		bindings: make(map[string]bindingInfo),
	}
}

// Outer returns the enclosing compile-time environment, or nil for a root
// environment.
func (cte *CompileTimeEnvironment) Outer() *CompileTimeEnvironment { return cte.outer }

// IsFunction reports whether this compile-time environment corresponds to
// a function environment (as opposed to a block/with/catch scope).
func (cte *CompileTimeEnvironment) IsFunction() bool { return cte.fn }

// Index returns the position assigned to this environment within its
// owning CodeBlock.CompileEnvironments, set by SetIndex at the time the
// compiler appends it to that list.
func (cte *CompileTimeEnvironment) Index() int { return cte.index }

// SetIndex records the position assigned to this environment within its
// owning CodeBlock.CompileEnvironments.
func (cte *CompileTimeEnvironment) SetIndex(i int) { cte.index = i }

// NumBindings returns the number of bindings declared directly in this
// environment.
func (cte *CompileTimeEnvironment) NumBindings() int { return len(cte.order) }

// HasLexBinding reports whether name is declared directly in this
// environment (regardless of var/let/const).
func (cte *CompileTimeEnvironment) HasLexBinding(name string) bool {
	_, ok := cte.bindings[name]
	return ok
}

// GetBinding returns the (environmentIndex, bindingIndex) pair for name if
// it is declared in this environment or an outer one, walking outward
// through every outer environment (function boundaries included) up to the
// root, to mirror the lexical scoping rule that a reference always targets
// the nearest enclosing declaration.
func (cte *CompileTimeEnvironment) GetBinding(name string) (envIndex, bindingIndex int, ok bool) {
	for e := cte; e != nil; e = e.outer {
		if bi, found := e.bindings[name]; found {
			return e.index, bi.index, true
		}
	}
	return 0, 0, false
}

// VarBindingIndices returns the binding indices, in declaration order, of
// the bindings in this environment that were declared with DeclareVar
// (function-scoped `var` bindings promoted to this environment). These
// must be pre-initialized to undefined by push_function, per invariant 2.
func (cte *CompileTimeEnvironment) VarBindingIndices() []int {
	var out []int
	for i, name := range cte.order {
		if cte.varNames[name] {
			out = append(out, i)
		}
	}
	return out
}

// DeclareLexical adds a new let/const-style binding to this environment.
// It returns the assigned binding index. It panics if name is already
// declared directly in this environment (a compiler invariant violation:
// redeclaration errors must be caught by an earlier static-semantics
// pass, not here).
func (cte *CompileTimeEnvironment) DeclareLexical(name string, immutable bool) int {
	if _, ok := cte.bindings[name]; ok {
		panic("environment: duplicate lexical declaration of " + name)
	}
	idx := len(cte.order)
	cte.order = append(cte.order, name)
	cte.bindings[name] = bindingInfo{index: idx, immutable: immutable}
	return idx
}

// DeclareVar adds (or reuses) a function-scoped `var` binding. Unlike
// DeclareLexical, redeclaring the same name is not an error: `var` may be
// declared multiple times within the same function.
func (cte *CompileTimeEnvironment) DeclareVar(name string) int {
	if bi, ok := cte.bindings[name]; ok {
		return bi.index
	}
	idx := len(cte.order)
	cte.order = append(cte.order, name)
	cte.bindings[name] = bindingInfo{index: idx}
	if cte.varNames == nil {
		cte.varNames = make(map[string]bool)
	}
	cte.varNames[name] = true
	return idx
}

// IndexOf returns the position of name within cte.order, or -1. Exposed
// for bookkeeping callers (disassembly, tests) that want a stable
// enumeration; implemented with slices.Index per the teacher's use of
// golang.org/x/exp/slices for this kind of lookup.
func (cte *CompileTimeEnvironment) IndexOf(name string) int {
	return slices.Index(cte.order, name)
}

// Names returns the declared names in declaration order. Callers must not
// modify the returned slice.
func (cte *CompileTimeEnvironment) Names() []string { return cte.order }

// IsImmutable reports whether the binding named name, declared directly in
// this environment, is immutable (a const binding).
func (cte *CompileTimeEnvironment) IsImmutable(name string) bool {
	return cte.bindings[name].immutable
}
