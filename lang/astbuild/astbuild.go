// Package astbuild is the minimal expression/statement builder API named
// by the CLI front end's scope note: since the lexer/parser stays out of
// scope (an external collaborator referenced only by pre/post condition),
// something has to turn a file on disk into an *ast.Program for the
// `esvm run`/`disasm`/`eval` commands to drive compiler.CompileProgram
// against. This package reads a small JSON tree -- one node per
// expression/statement kind the compiler understands -- and builds the
// corresponding ast.Node graph directly; it is not, and is not meant to
// become, an ECMAScript grammar.
package astbuild

import (
	"encoding/json"
	"fmt"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/token"
)

// node is the wire shape every JSON node starts with: a discriminator
// plus every field any node kind might use, left zero when unused.
type node struct {
	Type string `json:"type"`

	// Program / BlockStmt
	Strict bool   `json:"strict,omitempty"`
	Body   []node `json:"body,omitempty"`

	// Ident
	Name string `json:"name,omitempty"`

	// Literal
	Kind   string  `json:"kind,omitempty"` // "undefined", "null", "bool", "number", "string"
	Bool   bool    `json:"bool,omitempty"`
	Number float64 `json:"number,omitempty"`
	String string  `json:"string,omitempty"`

	// DotExpr / ObjectExpr property key
	Key string `json:"key,omitempty"`

	// DotExpr/IndexExpr/UnaryOpExpr/ParenExpr target
	Left  *node `json:"left,omitempty"`
	Right *node `json:"right,omitempty"`

	// IndexExpr
	Index *node `json:"index,omitempty"`

	// CallExpr
	Callee *node  `json:"callee,omitempty"`
	Args   []node `json:"args,omitempty"`
	New    bool   `json:"new,omitempty"`

	// BinOpExpr / UnaryOpExpr / AssignExpr operator
	Op string `json:"op,omitempty"`

	// ArrayExpr
	Items []node `json:"items,omitempty"`

	// ObjectExpr
	Props []objectProp `json:"props,omitempty"`

	// FuncExpr / FuncDeclStmt
	Params    []param `json:"params,omitempty"`
	Arrow     bool    `json:"arrow,omitempty"`
	Async     bool    `json:"async,omitempty"`
	Generator bool    `json:"generator,omitempty"`

	// VarDeclStmt
	VarKind string       `json:"varKind,omitempty"` // "var", "let", "const"
	Decls   []declarator `json:"decls,omitempty"`

	// IfStmt / WhileStmt / ForStmt
	Cond *node `json:"cond,omitempty"`
	Then *node `json:"then,omitempty"`
	Else *node `json:"else,omitempty"`
	Init *node `json:"init,omitempty"`
	Post *node `json:"post,omitempty"`

	// ReturnStmt / ThrowStmt / ExprStmt
	Arg  *node `json:"arg,omitempty"`
	Expr *node `json:"expr,omitempty"`

	// TryStmt
	Block        *node  `json:"block,omitempty"`
	CatchParam   string `json:"catchParam,omitempty"`
	CatchBlock   *node  `json:"catchBlock,omitempty"`
	FinallyBlock *node  `json:"finallyBlock,omitempty"`
}

type objectProp struct {
	Key   string `json:"key"`
	Value node   `json:"value"`
}

type param struct {
	Name    string `json:"name"`
	Default *node  `json:"default,omitempty"`
	Rest    bool   `json:"rest,omitempty"`
}

type declarator struct {
	Name string `json:"name"`
	Init *node  `json:"init,omitempty"`
}

// BuildProgram parses src as the JSON node tree described in this
// package's doc comment and builds the corresponding *ast.Program. Every
// position is the zero token.Pos: this builder exists to drive the
// compiler, not to produce source-mapped diagnostics.
func BuildProgram(src []byte) (*ast.Program, error) {
	var root node
	if err := json.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("astbuild: invalid JSON: %w", err)
	}
	if root.Type != "" && root.Type != "Program" {
		return nil, fmt.Errorf("astbuild: root node must be a Program, got %q", root.Type)
	}
	stmts, err := buildStmts(root.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Body: stmts, Strict: root.Strict}, nil
}

func buildStmts(nodes []node) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(nodes))
	for _, n := range nodes {
		s, err := buildStmt(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func buildBlock(n *node) (*ast.BlockStmt, error) {
	if n == nil {
		return &ast.BlockStmt{}, nil
	}
	stmts, err := buildStmts(n.Body)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Stmts: stmts}, nil
}

func buildStmt(n node) (ast.Stmt, error) {
	switch n.Type {
	case "ExprStmt":
		e, err := buildExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: e}, nil
	case "BlockStmt":
		return buildBlock(&n)
	case "VarDeclStmt":
		kind, err := varDeclKind(n.VarKind)
		if err != nil {
			return nil, err
		}
		decls := make([]*ast.Declarator, 0, len(n.Decls))
		for _, d := range n.Decls {
			var init ast.Expr
			if d.Init != nil {
				init, err = buildExpr(d.Init)
				if err != nil {
					return nil, err
				}
			}
			decls = append(decls, &ast.Declarator{Name: &ast.Ident{Name: d.Name}, Init: init})
		}
		return &ast.VarDeclStmt{Kind: kind, Decls: decls}, nil
	case "FuncDeclStmt":
		fn, err := buildFuncExpr(n)
		if err != nil {
			return nil, err
		}
		return &ast.FuncDeclStmt{Fn: fn}, nil
	case "IfStmt":
		cond, err := buildExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := buildBlock(n.Then)
		if err != nil {
			return nil, err
		}
		var elseStmt ast.Stmt
		if n.Else != nil {
			elseStmt, err = buildStmt(*n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ast.IfStmt{Cond: cond, Then: then, Else: elseStmt}, nil
	case "WhileStmt":
		cond, err := buildExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := buildBlock(n.Then)
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body}, nil
	case "ForStmt":
		var initStmt ast.Stmt
		var err error
		if n.Init != nil {
			initStmt, err = buildStmt(*n.Init)
			if err != nil {
				return nil, err
			}
		}
		var cond, post ast.Expr
		if n.Cond != nil {
			if cond, err = buildExpr(n.Cond); err != nil {
				return nil, err
			}
		}
		if n.Post != nil {
			if post, err = buildExpr(n.Post); err != nil {
				return nil, err
			}
		}
		body, err := buildBlock(n.Then)
		if err != nil {
			return nil, err
		}
		return &ast.ForStmt{Init: initStmt, Cond: cond, Post: post, Body: body}, nil
	case "ReturnStmt":
		var arg ast.Expr
		var err error
		if n.Arg != nil {
			arg, err = buildExpr(n.Arg)
			if err != nil {
				return nil, err
			}
		}
		return &ast.ReturnStmt{Arg: arg}, nil
	case "ThrowStmt":
		arg, err := buildExpr(n.Arg)
		if err != nil {
			return nil, err
		}
		return &ast.ThrowStmt{Arg: arg}, nil
	case "TryStmt":
		block, err := buildBlock(n.Block)
		if err != nil {
			return nil, err
		}
		ts := &ast.TryStmt{Block: block}
		if n.CatchBlock != nil {
			cb, err := buildBlock(n.CatchBlock)
			if err != nil {
				return nil, err
			}
			ts.CatchBlock = cb
			if n.CatchParam != "" {
				ts.CatchParam = &ast.Ident{Name: n.CatchParam}
			}
		}
		if n.FinallyBlock != nil {
			fb, err := buildBlock(n.FinallyBlock)
			if err != nil {
				return nil, err
			}
			ts.FinallyBlock = fb
		}
		return ts, nil
	default:
		return nil, fmt.Errorf("astbuild: unsupported statement type %q", n.Type)
	}
}

func varDeclKind(s string) (ast.DeclKind, error) {
	switch s {
	case "", "var":
		return ast.DeclVar, nil
	case "let":
		return ast.DeclLet, nil
	case "const":
		return ast.DeclConst, nil
	default:
		return 0, fmt.Errorf("astbuild: unknown var decl kind %q", s)
	}
}

func buildFuncExpr(n node) (*ast.FuncExpr, error) {
	params := make([]*ast.Param, 0, len(n.Params))
	for _, p := range n.Params {
		var def ast.Expr
		if p.Default != nil {
			d, err := buildExpr(p.Default)
			if err != nil {
				return nil, err
			}
			def = d
		}
		params = append(params, &ast.Param{Name: &ast.Ident{Name: p.Name}, Default: def, Rest: p.Rest})
	}
	body, err := buildBlock(&n)
	if err != nil {
		return nil, err
	}
	var name *ast.Ident
	if n.Name != "" {
		name = &ast.Ident{Name: n.Name}
	}
	return &ast.FuncExpr{
		Name:      name,
		Sig:       &ast.FuncSignature{Params: params},
		Body:      body,
		Arrow:     n.Arrow,
		Async:     n.Async,
		Generator: n.Generator,
		Strict:    n.Strict,
	}, nil
}

func buildExpr(n *node) (ast.Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("astbuild: expected expression, got none")
	}
	switch n.Type {
	case "Ident":
		return &ast.Ident{Name: n.Name}, nil
	case "Literal":
		return buildLiteral(*n)
	case "This":
		return &ast.ThisExpr{}, nil
	case "NewTarget":
		return &ast.NewTargetExpr{}, nil
	case "Paren":
		inner, err := buildExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Expr: inner}, nil
	case "Dot":
		left, err := buildExpr(n.Left)
		if err != nil {
			return nil, err
		}
		return &ast.DotExpr{Left: left, Name: n.Key}, nil
	case "Index":
		left, err := buildExpr(n.Left)
		if err != nil {
			return nil, err
		}
		idx, err := buildExpr(n.Index)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{Prefix: left, Index: idx}, nil
	case "Call":
		callee, err := buildExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		args, err := buildExprs(n.Args)
		if err != nil {
			return nil, err
		}
		call := &ast.CallExpr{Callee: callee, Args: args}
		if n.New {
			call.New = 1 // any non-zero token.Pos marks a `new` expression
		}
		return call, nil
	case "BinOp":
		left, err := buildExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := buildExpr(n.Right)
		if err != nil {
			return nil, err
		}
		tok, err := binOpToken(n.Op)
		if err != nil {
			return nil, err
		}
		return &ast.BinOpExpr{Left: left, Type: tok, Right: right}, nil
	case "UnaryOp":
		right, err := buildExpr(n.Right)
		if err != nil {
			return nil, err
		}
		tok, err := unaryOpToken(n.Op)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOpExpr{Type: tok, Right: right}, nil
	case "Assign":
		left, err := buildExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := buildExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Left: left, Right: right}, nil
	case "Array":
		items, err := buildExprs(n.Items)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayExpr{Items: items}, nil
	case "Object":
		props := make([]ast.ObjectProp, 0, len(n.Props))
		for _, p := range n.Props {
			v, err := buildExpr(&p.Value)
			if err != nil {
				return nil, err
			}
			props = append(props, ast.ObjectProp{Key: p.Key, Value: v})
		}
		return &ast.ObjectExpr{Props: props}, nil
	case "Func":
		return buildFuncExpr(*n)
	case "Yield":
		var arg ast.Expr
		if n.Arg != nil {
			var err error
			arg, err = buildExpr(n.Arg)
			if err != nil {
				return nil, err
			}
		}
		return &ast.YieldExpr{Arg: arg}, nil
	default:
		return nil, fmt.Errorf("astbuild: unsupported expression type %q", n.Type)
	}
}

func buildExprs(nodes []node) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := buildExpr(&n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func buildLiteral(n node) (*ast.Literal, error) {
	switch n.Kind {
	case "undefined":
		return &ast.Literal{Kind: ast.LiteralUndefined}, nil
	case "null":
		return &ast.Literal{Kind: ast.LiteralNull}, nil
	case "bool":
		return &ast.Literal{Kind: ast.LiteralBool, Bool: n.Bool}, nil
	case "number":
		return &ast.Literal{Kind: ast.LiteralNumber, Number: n.Number}, nil
	case "string":
		return &ast.Literal{Kind: ast.LiteralString, String: n.String}, nil
	default:
		return nil, fmt.Errorf("astbuild: unknown literal kind %q", n.Kind)
	}
}

var binOpTokens = map[string]token.Token{
	"+": token.PLUS, "-": token.MINUS, "*": token.STAR, "/": token.SLASH, "%": token.PERCENT,
	"==": token.EQEQ, "!=": token.NOTEQ,
	"<": token.LT, "<=": token.LE, ">": token.GT, ">=": token.GE,
	"&": token.AMP, "|": token.PIPE, "^": token.CIRCUMFLEX,
	"<<": token.LTLT, ">>": token.GTGT,
}

func binOpToken(s string) (token.Token, error) {
	if t, ok := binOpTokens[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("astbuild: unknown binary operator %q", s)
}

var unaryOpTokens = map[string]token.Token{
	"-": token.UMINUS, "+": token.UPLUS, "~": token.UTILDE, "typeof": token.POUND,
}

func unaryOpToken(s string) (token.Token, error) {
	if t, ok := unaryOpTokens[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("astbuild: unknown unary operator %q", s)
}
