package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/machine"
	"github.com/mna/esvm/lang/object"
	"github.com/mna/esvm/lang/token"
)

func compileAndRun(t *testing.T, prog *ast.Program) object.Value {
	t.Helper()
	globalEnv := environment.NewCompileTimeEnvironment(true)
	cb, err := compiler.CompileProgram(prog, globalEnv, false, false)
	require.NoError(t, err)

	th := machine.NewThread(globalEnv)
	fnObj := machine.NewFunctionValue(th, cb)
	result, err := fnObj.Callable.Call(object.Undefined{}, nil)
	require.NoError(t, err)
	return result
}

// `var x = 1 + 2; return x;`
func TestRunReturnsVarBindingValue(t *testing.T) {
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{
				Name: &ast.Ident{Name: "x"},
				Init: &ast.BinOpExpr{
					Left:  &ast.Literal{Kind: ast.LiteralNumber, Number: 1},
					Type:  token.PLUS,
					Right: &ast.Literal{Kind: ast.LiteralNumber, Number: 2},
				},
			}}},
			&ast.ReturnStmt{Arg: &ast.Ident{Name: "x"}},
		},
	}
	result := compileAndRun(t, prog)
	require.Equal(t, object.Number(3), result)
}

// `function add(a, b) { return a + b; } return add(2, 3);`
func TestCallEngineInvokesFunctionDeclaration(t *testing.T) {
	addFn := &ast.FuncExpr{
		Name: &ast.Ident{Name: "add"},
		Sig: &ast.FuncSignature{Params: []*ast.Param{
			{Name: &ast.Ident{Name: "a"}},
			{Name: &ast.Ident{Name: "b"}},
		}},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Arg: &ast.BinOpExpr{
				Left:  &ast.Ident{Name: "a"},
				Type:  token.PLUS,
				Right: &ast.Ident{Name: "b"},
			}},
		}},
	}
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.FuncDeclStmt{Fn: addFn},
			&ast.ReturnStmt{Arg: &ast.CallExpr{
				Callee: &ast.Ident{Name: "add"},
				Args: []ast.Expr{
					&ast.Literal{Kind: ast.LiteralNumber, Number: 2},
					&ast.Literal{Kind: ast.LiteralNumber, Number: 3},
				},
			}},
		},
	}
	result := compileAndRun(t, prog)
	require.Equal(t, object.Number(5), result)
}

// Calling an arrow function with `new` must fail, matching §4.5's
// Constructable gate on ordinary (non-class, non-method) functions being
// satisfied while non-constructor callables (arrows, methods) reject it.
func TestArrowFunctionIsNotAConstructor(t *testing.T) {
	arrowFn := &ast.FuncExpr{
		Arrow: true,
		Sig:   &ast.FuncSignature{},
		Body:  &ast.BlockStmt{},
	}
	globalEnv := environment.NewCompileTimeEnvironment(true)
	th := machine.NewThread(globalEnv)
	arrowObj := machine.NewFunctionValue(th, compileArrow(t, th, globalEnv, arrowFn))
	ctor, ok := arrowObj.Callable.(object.Constructable)
	require.True(t, ok, "Function always implements Constructable; Construct itself must reject arrows")
	_, err := ctor.Construct(nil, arrowObj)
	require.Error(t, err)
}

func compileArrow(t *testing.T, th *machine.Thread, globalEnv *environment.CompileTimeEnvironment, fn *ast.FuncExpr) *compiler.CodeBlock {
	t.Helper()
	prog := &ast.Program{Body: []ast.Stmt{&ast.ExprStmt{Expr: fn}}}
	cb, err := compiler.CompileProgram(prog, globalEnv, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, cb.Functions)
	return cb.Functions[0]
}

// `class Point { constructor(x) { this.x = x; } getX() { return this.x; } }`
// followed by `var p = new Point(5); return p.getX();` -- exercises
// MAKECLASS, the instance prototype's method wiring, and Construct's
// `this`-binding.
func TestClassConstructorAndMethodDispatch(t *testing.T) {
	cls := &ast.ClassExpr{
		Name: &ast.Ident{Name: "Point"},
		Body: &ast.ClassBody{
			Methods: []*ast.ClassMember{
				{
					IsConstructor: true,
					Fn: &ast.FuncExpr{
						Sig: &ast.FuncSignature{Params: []*ast.Param{{Name: &ast.Ident{Name: "x"}}}},
						Body: &ast.BlockStmt{Stmts: []ast.Stmt{
							&ast.ExprStmt{Expr: &ast.AssignExpr{
								Left:  &ast.DotExpr{Left: &ast.ThisExpr{}, Name: "x"},
								Right: &ast.Ident{Name: "x"},
							}},
						}},
					},
				},
				{
					Name: "getX",
					Fn: &ast.FuncExpr{
						Sig: &ast.FuncSignature{},
						Body: &ast.BlockStmt{Stmts: []ast.Stmt{
							&ast.ReturnStmt{Arg: &ast.DotExpr{Left: &ast.ThisExpr{}, Name: "x"}},
						}},
					},
				},
			},
		},
	}
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.ClassDeclStmt{Class: cls},
			&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{
				Name: &ast.Ident{Name: "p"},
				Init: &ast.CallExpr{
					New:    1,
					Callee: &ast.Ident{Name: "Point"},
					Args:   []ast.Expr{&ast.Literal{Kind: ast.LiteralNumber, Number: 5}},
				},
			}}},
			&ast.ReturnStmt{Arg: &ast.CallExpr{
				Callee: &ast.DotExpr{Left: &ast.Ident{Name: "p"}, Name: "getX"},
			}},
		},
	}
	result := compileAndRun(t, prog)
	require.Equal(t, object.Number(5), result)
}

// `class Animal { constructor(name) { this.name = name; } }
//  class Dog extends Animal { constructor(name) { super(name); } bark() { return this.name; } }
//  return new Dog("Rex").bark();`
//
// Exercises the derived-constructor path of Construct (§4.5 step 4): no
// explicit return from the constructor body, so the instance Construct
// hands back must come from CALL_SUPER's `this` binding, not the
// hardcoded-failure path a plain (non-derived) constructor never reaches.
func TestDerivedClassConstructorBindsThisThroughSuper(t *testing.T) {
	animal := &ast.ClassExpr{
		Name: &ast.Ident{Name: "Animal"},
		Body: &ast.ClassBody{
			Methods: []*ast.ClassMember{
				{
					IsConstructor: true,
					Fn: &ast.FuncExpr{
						Sig: &ast.FuncSignature{Params: []*ast.Param{{Name: &ast.Ident{Name: "name"}}}},
						Body: &ast.BlockStmt{Stmts: []ast.Stmt{
							&ast.ExprStmt{Expr: &ast.AssignExpr{
								Left:  &ast.DotExpr{Left: &ast.ThisExpr{}, Name: "name"},
								Right: &ast.Ident{Name: "name"},
							}},
						}},
					},
				},
			},
		},
	}
	dog := &ast.ClassExpr{
		Name:      &ast.Ident{Name: "Dog"},
		SuperExpr: &ast.Ident{Name: "Animal"},
		Body: &ast.ClassBody{
			Methods: []*ast.ClassMember{
				{
					IsConstructor: true,
					Fn: &ast.FuncExpr{
						Sig: &ast.FuncSignature{Params: []*ast.Param{{Name: &ast.Ident{Name: "name"}}}},
						Body: &ast.BlockStmt{Stmts: []ast.Stmt{
							&ast.ExprStmt{Expr: &ast.CallExpr{
								Callee: &ast.SuperExpr{},
								Args:   []ast.Expr{&ast.Ident{Name: "name"}},
							}},
						}},
					},
				},
				{
					Name: "bark",
					Fn: &ast.FuncExpr{
						Sig: &ast.FuncSignature{},
						Body: &ast.BlockStmt{Stmts: []ast.Stmt{
							&ast.ReturnStmt{Arg: &ast.DotExpr{Left: &ast.ThisExpr{}, Name: "name"}},
						}},
					},
				},
			},
		},
	}
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.ClassDeclStmt{Class: animal},
			&ast.ClassDeclStmt{Class: dog},
			&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{
				Name: &ast.Ident{Name: "d"},
				Init: &ast.CallExpr{
					New:    1,
					Callee: &ast.Ident{Name: "Dog"},
					Args:   []ast.Expr{&ast.Literal{Kind: ast.LiteralString, String: "Rex"}},
				},
			}}},
			&ast.ReturnStmt{Arg: &ast.CallExpr{
				Callee: &ast.DotExpr{Left: &ast.Ident{Name: "d"}, Name: "bark"},
			}},
		},
	}
	result := compileAndRun(t, prog)
	require.Equal(t, object.String("Rex"), result)
}

// `function* g() { yield 1; yield 2; return 3; } var it = g(); return it;`
// followed by three `it.next()` calls from the Go test driver, exercising
// the full suspend/resume cycle: calling a generator function must not run
// its body at all (only g() itself runs, returning a suspended object with
// no side effects yet), and each next() call must drive execution up to the
// following YIELD (or to the final RETURN) and back, producing the standard
// {value, done} pairs {1,false}, {2,false}, {3,true} and then {undefined,true}
// forever after (§4.4 step 10, §9).
func TestGeneratorYieldsThenCompletes(t *testing.T) {
	genFn := &ast.FuncExpr{
		Name:      &ast.Ident{Name: "g"},
		Generator: true,
		Sig:       &ast.FuncSignature{},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.YieldExpr{Arg: &ast.Literal{Kind: ast.LiteralNumber, Number: 1}}},
			&ast.ExprStmt{Expr: &ast.YieldExpr{Arg: &ast.Literal{Kind: ast.LiteralNumber, Number: 2}}},
			&ast.ReturnStmt{Arg: &ast.Literal{Kind: ast.LiteralNumber, Number: 3}},
		}},
	}
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.FuncDeclStmt{Fn: genFn},
			&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{
				Name: &ast.Ident{Name: "it"},
				Init: &ast.CallExpr{Callee: &ast.Ident{Name: "g"}},
			}}},
			&ast.ReturnStmt{Arg: &ast.Ident{Name: "it"}},
		},
	}
	result := compileAndRun(t, prog)
	it, ok := result.(*object.Object)
	require.True(t, ok, "calling a generator function must return a suspended iterator object, not run its body")

	next := func(args ...object.Value) *object.Object {
		t.Helper()
		nextVal, ok := it.Get("next")
		require.True(t, ok)
		nextObj, ok := nextVal.(*object.Object)
		require.True(t, ok)
		r, err := nextObj.Callable.Call(it, args)
		require.NoError(t, err)
		ro, ok := r.(*object.Object)
		require.True(t, ok)
		return ro
	}
	getField := func(o *object.Object, name string) object.Value {
		v, ok := o.Get(name)
		require.True(t, ok)
		return v
	}

	r1 := next()
	require.Equal(t, object.Number(1), getField(r1, "value"))
	require.Equal(t, object.Boolean(false), getField(r1, "done"))

	r2 := next()
	require.Equal(t, object.Number(2), getField(r2, "value"))
	require.Equal(t, object.Boolean(false), getField(r2, "done"))

	r3 := next()
	require.Equal(t, object.Number(3), getField(r3, "value"))
	require.Equal(t, object.Boolean(true), getField(r3, "done"))

	r4 := next()
	require.Equal(t, object.Undefined{}, getField(r4, "value"))
	require.Equal(t, object.Boolean(true), getField(r4, "done"))
}
