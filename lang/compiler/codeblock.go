// Package compiler implements the small, explicitly-scoped front end that
// turns an already-built ast.Program into a CodeBlock: the immutable
// bytecode-function record the Call/Construct Engine and the eval front
// end are built against. It is not a full ECMAScript parser (that stays
// an external collaborator per spec); it performs resolution (assigning
// environment.Locator values to identifiers) and bytecode emission in a
// single pass over a pre-built tree.
package compiler

import (
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/object"
)

// ThisMode classifies a function's `this` handling as the compiler
// records it. The Call Engine in lang/machine does not read it: a call
// binds the supplied `this` value unchanged, and an arrow function
// inherits `this` because it never gets a function environment of its own.
type ThisMode uint8

const (
	// ThisLexical marks a function that never binds its own `this` (arrow
	// functions): it is inherited from the enclosing scope.
	ThisLexical ThisMode = iota
	// ThisStrict marks a strict-mode function: the supplied `this` is used
	// verbatim, with no coercion or global-object substitution.
	ThisStrict
	// ThisGlobal marks a sloppy-mode function. No substitution is applied
	// for it either: null/undefined are not replaced by the global object
	// and primitives are not boxed.
	ThisGlobal
)

// Param is one formal parameter of a CodeBlock.
type Param struct {
	Name       string
	HasDefault bool
	Rest       bool
}

// Params is the formal parameter list of a CodeBlock.
type Params struct {
	List []Param
}

// IsSimple reports whether every parameter is a plain identifier with no
// default value and no rest marker, matching ast.FuncSignature.IsSimple.
// The Call Engine does not consult it: it always builds an unmapped
// arguments object and never pushes a separate parameter environment.
func (p Params) IsSimple() bool {
	for _, prm := range p.List {
		if prm.Rest || prm.HasDefault {
			return false
		}
	}
	return true
}

// CodeBlock is the immutable, compiled representation of a function body
// or a top-level script/eval body (§3). Once returned by CompileProgram
// it is never mutated.
type CodeBlock struct {
	Name     string
	Length   int // declared formal arity, not counting rest/default params
	Strict   bool
	ThisMode ThisMode
	Params   Params

	Code     []Instruction
	Literals []object.Value
	Names    []string // property/binding names referenced by name-indexed instructions

	// PrivateNames holds the class-private identifiers (#x) this CodeBlock
	// references; validity checking of private names inside eval bodies is
	// not implemented.
	PrivateNames []string

	Bindings    []environment.Locator
	NumBindings int

	Functions []*CodeBlock

	ArgumentsBinding *environment.Locator

	CompileEnvironments []*environment.CompileTimeEnvironment

	IsClassConstructor         bool
	ClassFieldInitializerName  string
	IsDerivedConstructor       bool

	// FunctionEnvironmentPushLocation is the instruction index at which the
	// function environment is pushed; relevant only when parameters
	// contain expressions (ParametersEnvBindings is set), since in that
	// case parameter defaults evaluate in their own environment pushed
	// before the function environment.
	FunctionEnvironmentPushLocation int

	// ParametersEnvBindings, when non-nil, is the binding count of a
	// separate parameter environment pushed ahead of the function
	// environment (non-simple parameter lists).
	ParametersEnvBindings *int

	IsGenerator bool
	IsAsync     bool
	IsArrow     bool
	IsMethod    bool
}

// FunctionCompileEnvironment returns the last entry of
// CompileEnvironments, the environment that is the function's own body
// scope, per §3's "the last is the function env".
func (cb *CodeBlock) FunctionCompileEnvironment() *environment.CompileTimeEnvironment {
	if len(cb.CompileEnvironments) == 0 {
		return nil
	}
	return cb.CompileEnvironments[len(cb.CompileEnvironments)-1]
}
