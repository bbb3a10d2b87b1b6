// Package eval implements both eval entry points of §4.6: compile an
// already-built ast.Program as an eval body and run it, exactly as a host
// that has already lexed/parsed the source string into that tree would
// drive `eval(src)`/`(0, eval)(src)` -- this package never sees or
// produces source text itself (see lang/astbuild's package doc comment on
// why no lexer/parser exists in this module).
//
// PerformEval is indirect eval: it always runs against the thread's
// global scope, regardless of where in the call graph it is invoked from.
// PerformDirectEval runs in place instead, against whatever scope is live
// on th.Stack at the point of the call -- its own lexical environment,
// `this` value, new.target and strict-mode context -- which is what
// distinguishes `eval(src)` (direct, when the call expression's callee is
// literally the `eval` binding) from `(0, eval)(src)` or `var e = eval;
// e(src)` (indirect, by construction, per §4.6 step 2's free-identifier
// check). This module has no parser to drive that check from a decoded
// CallExpr's callee shape at an EVAL opcode (see DESIGN.md for why no
// EVAL opcode exists), so callers reach PerformDirectEval directly,
// exactly as lang/machine's own tests build ASTs directly rather than
// through source text.
package eval

import (
	"fmt"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/machine"
	"github.com/mna/esvm/lang/object"
)

// PerformEval compiles prog as an eval body against th's global
// environment and runs it. It mirrors boa's perform_eval in structure
// (compile against the target scope, widen that scope's runtime slots to
// match what the compile pass declared into it, run, and only ever touch
// that one environment). The caller's environments above the global one
// are detached while the body runs and reattached on return, success or
// error alike; the new global bindings the body declared stay in place.
//
// The returned value is the eval body's completion value only insofar as
// prog ends with an explicit ReturnStmt: CompileProgram does not track
// the implicit per-statement completion value real eval semantics give
// every statement (a bare ExprStmt's value is always popped and
// discarded by the compiler, see DESIGN.md), so a program relying on
// "falling off the end" to yield its last expression's value will get
// undefined instead.
func PerformEval(th *machine.Thread, prog *ast.Program) (object.Value, error) {
	globalEnv := th.Stack.At(0).CompileEnvironment()
	if globalEnv == nil {
		return nil, fmt.Errorf("eval: thread has no global compile-time environment")
	}

	if name, ok := hasCollidingVar(prog, globalEnv); ok {
		return nil, fmt.Errorf("SyntaxError: identifier %q has already been declared", name)
	}

	cb, err := compiler.CompileProgram(prog, globalEnv, prog.Strict, true)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}

	callerEnvs := th.Stack.PopToGlobal()
	defer th.Stack.Extend(callerEnvs)

	th.Stack.ExtendOuterFunctionEnvironment()
	return machine.RunEval(th, cb)
}

// PerformDirectEval compiles and runs prog as a direct eval body: unlike
// PerformEval, it never jumps to the global environment. Its var/function
// declarations hoist into the nearest enclosing function (or global)
// environment currently live on th.Stack -- found dynamically via
// environment.Stack.NearestFunctionEnvironmentIndex, exactly the
// "variable environment" §4.6 describes -- and it runs with no new
// environment pushed at all, so machine.run's existing dynamic lookups
// (stack.GetThisEnvironment for THIS/NEWTARGET, environment.FindRuntimeBinding's
// innermost-to-outermost walk for free identifiers) see straight through
// to whatever `this`, new.target and `with` object environments the
// calling scope already has in place, with no extra plumbing needed here.
//
// callerStrict is the strict-mode status of the calling code. This
// package has no Go-level call frame to read that from the way
// original_source/boa_engine's Context::eval reads it off the active
// Vm::frame (esvm has no lexer/parser and so no such frame reaches this
// package -- see DESIGN.md); callers that synthesize a direct-eval call
// (as lang/machine's own tests do for class/super, by constructing the
// AST directly) supply it explicitly. CompileProgram still ORs it with
// prog.Strict, so an eval body that would itself turn on strict mode
// (a leading "use strict" directive) is honored regardless.
//
// Per §4.6's early-error rule, a var declaration inside prog that
// collides with an existing let/const/class binding between the call
// site and the nearest function boundary (inclusive) is a SyntaxError
// raised before anything is compiled or run -- e.g. `(function(){ let y =
// 2; return eval("var y = 3; y"); })()` must throw naming y, never
// silently shadow or reassign it.
func PerformDirectEval(th *machine.Thread, prog *ast.Program, callerStrict bool) (object.Value, error) {
	if name, collides := th.Stack.HasLexBindingUntilFunctionEnvironment(ast.TopLevelVarDeclaredNames(prog)); collides {
		return nil, fmt.Errorf("SyntaxError: identifier %q has already been declared", name)
	}

	envBase := th.Stack.NearestFunctionEnvironmentIndex()
	outerEnv := th.Stack.At(envBase).CompileEnvironment()
	if outerEnv == nil {
		return nil, fmt.Errorf("eval: nearest function environment has no compile-time environment")
	}

	cb, err := compiler.CompileProgram(prog, outerEnv, callerStrict, true)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}

	th.Stack.ExtendOuterFunctionEnvironment()
	return machine.RunDirectEval(th, cb, envBase)
}

func hasCollidingVar(prog *ast.Program, env *environment.CompileTimeEnvironment) (string, bool) {
	for _, name := range ast.TopLevelVarDeclaredNames(prog) {
		if env.HasLexBinding(name) {
			return name, true
		}
	}
	return "", false
}
