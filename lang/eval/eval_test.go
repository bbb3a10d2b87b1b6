package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/eval"
	"github.com/mna/esvm/lang/machine"
	"github.com/mna/esvm/lang/object"
	"github.com/mna/esvm/lang/token"
)

// `var greeting = "hi"; return greeting;` -- indirect eval both returns
// the explicit completion value and leaves the var declaration behind as
// a real global binding, checked here by running a second, independent
// eval that reads it back.
func TestPerformEvalCompletionValueAndGlobalLeak(t *testing.T) {
	globalEnv := environment.NewCompileTimeEnvironment(true)
	th := machine.NewThread(globalEnv)

	prog1 := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{
			Name: &ast.Ident{Name: "greeting"},
			Init: &ast.Literal{Kind: ast.LiteralString, String: "hi"},
		}}},
		&ast.ReturnStmt{Arg: &ast.Ident{Name: "greeting"}},
	}}
	result, err := eval.PerformEval(th, prog1)
	require.NoError(t, err)
	require.Equal(t, object.String("hi"), result)

	prog2 := &ast.Program{Body: []ast.Stmt{
		&ast.ReturnStmt{Arg: &ast.BinOpExpr{
			Left:  &ast.Ident{Name: "greeting"},
			Type:  token.PLUS,
			Right: &ast.Literal{Kind: ast.LiteralString, String: "!"},
		}},
	}}
	result2, err := eval.PerformEval(th, prog2)
	require.NoError(t, err)
	require.Equal(t, object.String("hi!"), result2)
}

// `(function(){ let y = 2; return eval("var y = 3; y"); })()` -- a direct
// eval body's hoisted `var y` collides with the calling function's own
// `let y`, which must throw a SyntaxError naming y before anything runs
// rather than silently shadowing or reassigning it. Simulated at the
// Go level the same way lang/machine's own tests construct call frames
// directly instead of through parsed source (this module has no parser).
func TestPerformDirectEvalRejectsVarRedeclaringOuterLet(t *testing.T) {
	globalEnv := environment.NewCompileTimeEnvironment(true)
	th := machine.NewThread(globalEnv)

	fnEnv := environment.NewCompileTimeEnvironment(true)
	fnEnv.DeclareLexical("y", false)
	th.Stack.PushFunction(fnEnv.NumBindings(), fnEnv, object.Undefined{}, true, nil, nil, false)

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{
			Name: &ast.Ident{Name: "y"},
			Init: &ast.Literal{Kind: ast.LiteralNumber, Number: 3},
		}}},
		&ast.ReturnStmt{Arg: &ast.Ident{Name: "y"}},
	}}
	_, err := eval.PerformDirectEval(th, prog, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SyntaxError")
	require.Contains(t, err.Error(), "y")
}

// `new (function(){ return eval("new.target"); })()` -- a direct eval
// body run in place sees the calling function's own new.target, since
// NEWTARGET resolves dynamically via environment.Stack.GetThisEnvironment
// rather than through any eval-specific plumbing.
func TestPerformDirectEvalSeesCallerNewTarget(t *testing.T) {
	globalEnv := environment.NewCompileTimeEnvironment(true)
	th := machine.NewThread(globalEnv)

	ctor := object.New(nil)
	fnEnv := environment.NewCompileTimeEnvironment(true)
	th.Stack.PushFunction(fnEnv.NumBindings(), fnEnv, object.Undefined{}, true, nil, ctor, false)

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ReturnStmt{Arg: &ast.NewTargetExpr{}},
	}}
	result, err := eval.PerformDirectEval(th, prog, false)
	require.NoError(t, err)
	require.Same(t, ctor, result)
}

// `with ({x:1}) { eval("x") }` -- a direct eval body run in place resolves
// a free identifier through the `with` object environment still sitting
// on the stack at the call site, the same innermost-to-outermost walk any
// other code gets (see lang/environment's FindRuntimeBinding).
func TestPerformDirectEvalResolvesThroughWithObject(t *testing.T) {
	globalEnv := environment.NewCompileTimeEnvironment(true)
	th := machine.NewThread(globalEnv)

	withObj := object.New(nil)
	require.NoError(t, withObj.SetOwnProperty("x", object.Number(1)))
	th.Stack.PushObject(withObj)

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ReturnStmt{Arg: &ast.Ident{Name: "x"}},
	}}
	result, err := eval.PerformDirectEval(th, prog, false)
	require.NoError(t, err)
	require.Equal(t, object.Number(1), result)
}
