package ast

import "github.com/mna/esvm/lang/token"

// LiteralKind distinguishes the primitive literal forms.
type LiteralKind uint8

const (
	LiteralUndefined LiteralKind = iota
	LiteralNull
	LiteralBool
	LiteralNumber
	LiteralString
)

type (
	// Ident is an identifier expression. Binding is filled in by the compiler
	// with the environment.Locator it resolved the identifier to; it is typed
	// as any here to avoid an import cycle.
	Ident struct {
		Start, End token.Pos
		Name       string
		Binding    any
	}

	// Literal is a literal value: undefined, null, a boolean, a number or a
	// string.
	Literal struct {
		Start, End token.Pos
		Kind       LiteralKind
		Bool       bool
		Number     float64
		String     string
	}

	// ThisExpr represents the `this` keyword.
	ThisExpr struct{ Start, End token.Pos }

	// NewTargetExpr represents `new.target`.
	NewTargetExpr struct{ Start, End token.Pos }

	// SuperExpr represents the bare `super` keyword, only valid as the callee
	// of a CallExpr (a super call) or as the left side of a DotExpr/IndexExpr
	// (a super property reference).
	SuperExpr struct{ Start, End token.Pos }

	// ParenExpr is a parenthesized expression, kept distinct so IsAssignable
	// and IsValidStmt-style checks can unwrap it like the source language
	// requires.
	ParenExpr struct {
		Lparen, Rparen token.Pos
		Expr           Expr
	}

	// DotExpr represents a property access, e.g. `x.y` or `super.y`.
	DotExpr struct {
		Left Expr
		Dot  token.Pos
		Name string
		End  token.Pos
	}

	// IndexExpr represents a computed member access, e.g. `x[y]`.
	IndexExpr struct {
		Prefix Expr
		Lbrack token.Pos
		Index  Expr
		Rbrack token.Pos
	}

	// CallExpr represents a function call, e.g. `x(y, z)`, `new x(y)` when New
	// is set, or `super(y)` when Callee is a *SuperExpr.
	CallExpr struct {
		Callee Expr
		New    token.Pos // non-zero if this is a `new` expression
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}

	// BinOpExpr represents a binary expression, e.g. `x + y`.
	BinOpExpr struct {
		Left  Expr
		Type  token.Token
		Op    token.Pos
		Right Expr
	}

	// UnaryOpExpr represents a unary expression, e.g. `-x`.
	UnaryOpExpr struct {
		Op    token.Pos
		Type  token.Token
		Right Expr
	}

	// AssignExpr represents an assignment expression, e.g. `x = y`.
	AssignExpr struct {
		Left  Expr
		Eq    token.Pos
		Right Expr
	}

	// ArrayExpr represents an array literal, e.g. `[x, y]`.
	ArrayExpr struct {
		Lbrack token.Pos
		Items  []Expr
		Rbrack token.Pos
	}

	// ObjectProp is a single `key: value` entry of an ObjectExpr.
	ObjectProp struct {
		Key   string
		Value Expr
	}

	// ObjectExpr represents an object literal, e.g. `{x: 1, y: 2}`.
	ObjectExpr struct {
		Lbrace token.Pos
		Props  []ObjectProp
		Rbrace token.Pos
	}

	// Param is a single formal parameter, optionally with a default value
	// expression and/or marked as a rest parameter.
	Param struct {
		Name    *Ident
		Default Expr
		Rest    bool
	}

	// FuncSignature is the parameter list shared by function/method/arrow
	// declarations and expressions.
	FuncSignature struct {
		Params []*Param
	}

	// FuncExpr represents a function expression, including arrow functions
	// (Arrow == true) and methods (Method == true).
	FuncExpr struct {
		Start     token.Pos
		Name      *Ident // nil for anonymous expressions and arrows
		Sig       *FuncSignature
		Body      *BlockStmt
		End       token.Pos
		Arrow     bool
		Async     bool
		Generator bool
		Method    bool
		Strict    bool // inherited or declared via a body-level directive
	}

	// ClassMember is a single method of a ClassBody.
	ClassMember struct {
		Name          string
		Fn            *FuncExpr
		Static        bool
		IsConstructor bool
	}

	// ClassField is a single field declaration of a ClassBody.
	ClassField struct {
		Name   string
		Init   Expr
		Static bool
	}

	// ClassBody is the member list of a class declaration/expression.
	ClassBody struct {
		Fields  []*ClassField
		Methods []*ClassMember
	}

	// ClassExpr represents a class expression.
	ClassExpr struct {
		Start     token.Pos
		Name      *Ident // nil for anonymous class expressions
		SuperExpr Expr   // nil if there is no `extends` clause
		Body      *ClassBody
		End       token.Pos
	}

	// YieldExpr represents `yield arg` inside a generator function body.
	// Delegation (`yield* iterable`) is not supported (see DESIGN.md):
	// Arg is nil for a bare `yield` with no operand.
	YieldExpr struct {
		Start token.Pos
		Arg   Expr
		End   token.Pos
	}
)

// IsSimple reports whether every parameter is a plain identifier with no
// default value and no rest marker, matching the spec's
// `CodeBlock.params.is_simple`.
func (s *FuncSignature) IsSimple() bool {
	for _, p := range s.Params {
		if p.Rest || p.Default != nil {
			return false
		}
	}
	return true
}

func (n *Ident) exprNode()         {}
func (n *Literal) exprNode()       {}
func (n *ThisExpr) exprNode()      {}
func (n *NewTargetExpr) exprNode() {}
func (n *SuperExpr) exprNode()     {}
func (n *ParenExpr) exprNode()     {}
func (n *DotExpr) exprNode()       {}
func (n *IndexExpr) exprNode()     {}
func (n *CallExpr) exprNode()      {}
func (n *BinOpExpr) exprNode()     {}
func (n *UnaryOpExpr) exprNode()   {}
func (n *AssignExpr) exprNode()    {}
func (n *ArrayExpr) exprNode()     {}
func (n *ObjectExpr) exprNode()    {}
func (n *FuncExpr) exprNode()      {}
func (n *ClassExpr) exprNode()     {}
func (n *YieldExpr) exprNode()     {}

func (n *Ident) Span() (token.Pos, token.Pos)         { return n.Start, n.End }
func (n *Literal) Span() (token.Pos, token.Pos)       { return n.Start, n.End }
func (n *ThisExpr) Span() (token.Pos, token.Pos)      { return n.Start, n.End }
func (n *NewTargetExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *SuperExpr) Span() (token.Pos, token.Pos)     { return n.Start, n.End }
func (n *ParenExpr) Span() (token.Pos, token.Pos)     { return n.Lparen, n.Rparen }
func (n *DotExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	return start, n.End
}
func (n *IndexExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Prefix.Span()
	return start, n.Rbrack
}
func (n *CallExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Callee.Span()
	return start, n.Rparen
}
func (n *BinOpExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Right.Span()
	return start, end
}
func (n *UnaryOpExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Right.Span()
	return n.Op, end
}
func (n *AssignExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Right.Span()
	return start, end
}
func (n *ArrayExpr) Span() (token.Pos, token.Pos) { return n.Lbrack, n.Rbrack }
func (n *ObjectExpr) Span() (token.Pos, token.Pos) { return n.Lbrace, n.Rbrace }
func (n *FuncExpr) Span() (token.Pos, token.Pos)   { return n.Start, n.End }
func (n *ClassExpr) Span() (token.Pos, token.Pos)  { return n.Start, n.End }
func (n *YieldExpr) Span() (token.Pos, token.Pos)  { return n.Start, n.End }

func (n *Ident) Walk(v Visitor)         {}
func (n *Literal) Walk(v Visitor)       {}
func (n *ThisExpr) Walk(v Visitor)      {}
func (n *NewTargetExpr) Walk(v Visitor) {}
func (n *SuperExpr) Walk(v Visitor)     {}
func (n *ParenExpr) Walk(v Visitor)     { Walk(v, n.Expr) }
func (n *DotExpr) Walk(v Visitor)       { Walk(v, n.Left) }
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.Prefix)
	Walk(v, n.Index)
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *BinOpExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *UnaryOpExpr) Walk(v Visitor) { Walk(v, n.Right) }
func (n *AssignExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *ArrayExpr) Walk(v Visitor) {
	for _, it := range n.Items {
		Walk(v, it)
	}
}
func (n *ObjectExpr) Walk(v Visitor) {
	for _, p := range n.Props {
		Walk(v, p.Value)
	}
}
func (n *FuncExpr) Walk(v Visitor) {
	if n.Name != nil {
		Walk(v, n.Name)
	}
	for _, p := range n.Sig.Params {
		if p.Default != nil {
			Walk(v, p.Default)
		}
	}
	Walk(v, n.Body)
}
func (n *ClassExpr) Walk(v Visitor) {
	if n.SuperExpr != nil {
		Walk(v, n.SuperExpr)
	}
	for _, f := range n.Body.Fields {
		if f.Init != nil {
			Walk(v, f.Init)
		}
	}
	for _, m := range n.Body.Methods {
		Walk(v, m.Fn)
	}
}
func (n *YieldExpr) Walk(v Visitor) {
	if n.Arg != nil {
		Walk(v, n.Arg)
	}
}
