// Package ast defines the abstract syntax tree consumed by the compiler
// (which also resolves identifiers) and the eval front end. The lexer/parser that produces these
// trees from source text is an external collaborator of this module: only
// the node shapes and the handful of static-semantics queries the core
// depends on (Contains, ContainsArguments, TopLevelVarDeclaredNames) live
// here.
package ast

import "github.com/mna/esvm/lang/token"

// A Node is any node of the abstract syntax tree.
type Node interface {
	// Span returns the start and end position of the node.
	Span() (start, end token.Pos)

	// Walk dispatches to v.Visit for each direct child of the node, used by
	// the Walk package-level function to recursively traverse a tree.
	Walk(v Visitor)
}

// An Expr is a Node that represents an expression.
type Expr interface {
	Node
	exprNode()
}

// A Stmt is a Node that represents a statement.
type Stmt interface {
	Node

	// IsLoop returns true if the statement is a loop construct (for,
	// for-in/for-of, while).
	IsLoop() bool
	stmtNode()
}

// Program is the root of a parsed and resolved script or eval body.
type Program struct {
	Start, End token.Pos
	Body       []Stmt
	Strict     bool // true if the body begins with a "use strict" directive
}

func (p *Program) Span() (token.Pos, token.Pos) { return p.Start, p.End }
func (p *Program) Walk(v Visitor) {
	for _, s := range p.Body {
		Walk(v, s)
	}
}
