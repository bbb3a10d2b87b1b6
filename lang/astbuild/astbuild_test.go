package astbuild_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/astbuild"
)

func TestBuildProgramVarDeclAndReturn(t *testing.T) {
	src := []byte(`{
		"body": [
			{"type": "VarDeclStmt", "varKind": "let", "decls": [
				{"name": "x", "init": {"type": "BinOp", "op": "+",
					"left": {"type": "Literal", "kind": "number", "number": 1},
					"right": {"type": "Literal", "kind": "number", "number": 2}}}
			]},
			{"type": "ReturnStmt", "arg": {"type": "Ident", "name": "x"}}
		]
	}`)

	prog, err := astbuild.BuildProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)

	decl, ok := prog.Body[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	require.Equal(t, ast.DeclLet, decl.Kind)
	require.Len(t, decl.Decls, 1)
	require.Equal(t, "x", decl.Decls[0].Name.Name)

	ret, ok := prog.Body[1].(*ast.ReturnStmt)
	require.True(t, ok)
	ident, ok := ret.Arg.(*ast.Ident)
	require.True(t, ok)
	require.Equal(t, "x", ident.Name)
}

func TestBuildProgramRejectsUnknownNodeType(t *testing.T) {
	_, err := astbuild.BuildProgram([]byte(`{"body": [{"type": "Mystery"}]}`))
	require.Error(t, err)
}

func TestBuildProgramFunctionDeclAndCall(t *testing.T) {
	src := []byte(`{
		"body": [
			{"type": "FuncDeclStmt", "name": "add",
				"params": [{"name": "a"}, {"name": "b"}],
				"body": [
					{"type": "ReturnStmt", "arg": {"type": "BinOp", "op": "+",
						"left": {"type": "Ident", "name": "a"},
						"right": {"type": "Ident", "name": "b"}}}
				]},
			{"type": "ReturnStmt", "arg": {"type": "Call",
				"callee": {"type": "Ident", "name": "add"},
				"args": [
					{"type": "Literal", "kind": "number", "number": 2},
					{"type": "Literal", "kind": "number", "number": 3}
				]}}
		]
	}`)

	prog, err := astbuild.BuildProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)

	decl, ok := prog.Body[0].(*ast.FuncDeclStmt)
	require.True(t, ok)
	require.Equal(t, "add", decl.Fn.Name.Name)
	require.Len(t, decl.Fn.Sig.Params, 2)
}
