package ast

import "github.com/mna/esvm/lang/token"

// DeclKind distinguishes the three declaration forms a VarDeclStmt or
// ForInStmt binding can introduce.
type DeclKind uint8

const (
	// DeclNone marks a ForInStmt whose Name refers to an existing binding
	// rather than introducing a new one.
	DeclNone DeclKind = iota
	DeclVar
	DeclLet
	DeclConst
)

type (
	// ExprStmt is an expression used as a statement.
	ExprStmt struct {
		Expr Expr
		End  token.Pos
	}

	// BlockStmt is a brace-delimited sequence of statements; it introduces a
	// new lexical block.
	BlockStmt struct {
		Lbrace token.Pos
		Stmts  []Stmt
		Rbrace token.Pos
	}

	// Declarator is a single `name = init` entry of a VarDeclStmt.
	Declarator struct {
		Name *Ident
		Init Expr // nil if no initializer
	}

	// VarDeclStmt is a `var`/`let`/`const` declaration statement.
	VarDeclStmt struct {
		Start token.Pos
		Kind  DeclKind
		Decls []*Declarator
		End   token.Pos
	}

	// FuncDeclStmt is a function declaration statement.
	FuncDeclStmt struct {
		Fn *FuncExpr
	}

	// ClassDeclStmt is a class declaration statement.
	ClassDeclStmt struct {
		Class *ClassExpr
	}

	// IfStmt represents an if/else statement.
	IfStmt struct {
		Start token.Pos
		Cond  Expr
		Then  *BlockStmt
		Else  Stmt // nil, *BlockStmt or *IfStmt (else if)
	}

	// WhileStmt represents a while loop.
	WhileStmt struct {
		Start token.Pos
		Cond  Expr
		Body  *BlockStmt
	}

	// ForStmt represents a classic three-part for loop. Init may be a
	// *VarDeclStmt or an *ExprStmt; Post is an expression statement.
	ForStmt struct {
		Start token.Pos
		Init  Stmt
		Cond  Expr
		Post  Expr
		Body  *BlockStmt
	}

	// ForInStmt represents a for-in/for-of style loop. New bindings are
	// introduced for Name for each iteration when Decl is not DeclNone.
	ForInStmt struct {
		Start token.Pos
		Decl  DeclKind // DeclNone if Name refers to an existing binding
		Name  *Ident
		Of    bool // for-of vs for-in
		Right Expr
		Body  *BlockStmt
	}

	// ReturnStmt represents a return statement.
	ReturnStmt struct {
		Start token.Pos
		Arg   Expr // nil for bare `return`
	}

	// ThrowStmt represents a throw statement.
	ThrowStmt struct {
		Start token.Pos
		Arg   Expr
	}

	// BreakStmt represents a break statement, optionally labeled.
	BreakStmt struct {
		Start token.Pos
		Label string
	}

	// ContinueStmt represents a continue statement, optionally labeled.
	ContinueStmt struct {
		Start token.Pos
		Label string
	}

	// LabeledStmt attaches a label to a statement.
	LabeledStmt struct {
		Label string
		Stmt  Stmt
	}

	// WithStmt represents a `with (obj) body` statement: it pushes an object
	// environment wrapping Obj around the execution of Body.
	WithStmt struct {
		Start token.Pos
		Obj   Expr
		Body  *BlockStmt
	}

	// TryStmt represents a try/catch/finally statement.
	TryStmt struct {
		Start        token.Pos
		Block        *BlockStmt
		CatchParam   *Ident // nil if there is no catch clause, or catch has no binding
		CatchBlock   *BlockStmt
		FinallyBlock *BlockStmt
	}
)

func (n *ExprStmt) stmtNode()      {}
func (n *BlockStmt) stmtNode()     {}
func (n *VarDeclStmt) stmtNode()   {}
func (n *FuncDeclStmt) stmtNode()  {}
func (n *ClassDeclStmt) stmtNode() {}
func (n *IfStmt) stmtNode()        {}
func (n *WhileStmt) stmtNode()     {}
func (n *ForStmt) stmtNode()       {}
func (n *ForInStmt) stmtNode()     {}
func (n *ReturnStmt) stmtNode()    {}
func (n *ThrowStmt) stmtNode()     {}
func (n *BreakStmt) stmtNode()     {}
func (n *ContinueStmt) stmtNode()  {}
func (n *LabeledStmt) stmtNode()   {}
func (n *WithStmt) stmtNode()      {}
func (n *TryStmt) stmtNode()       {}

func (n *ExprStmt) IsLoop() bool      { return false }
func (n *BlockStmt) IsLoop() bool     { return false }
func (n *VarDeclStmt) IsLoop() bool   { return false }
func (n *FuncDeclStmt) IsLoop() bool  { return false }
func (n *ClassDeclStmt) IsLoop() bool { return false }
func (n *IfStmt) IsLoop() bool        { return false }
func (n *WhileStmt) IsLoop() bool     { return true }
func (n *ForStmt) IsLoop() bool       { return true }
func (n *ForInStmt) IsLoop() bool     { return true }
func (n *ReturnStmt) IsLoop() bool    { return false }
func (n *ThrowStmt) IsLoop() bool     { return false }
func (n *BreakStmt) IsLoop() bool     { return false }
func (n *ContinueStmt) IsLoop() bool  { return false }
func (n *LabeledStmt) IsLoop() bool   { return n.Stmt.IsLoop() }
func (n *WithStmt) IsLoop() bool      { return false }
func (n *TryStmt) IsLoop() bool       { return false }

func (n *ExprStmt) Span() (token.Pos, token.Pos) {
	start, _ := n.Expr.Span()
	return start, n.End
}
func (n *BlockStmt) Span() (token.Pos, token.Pos) { return n.Lbrace, n.Rbrace }
func (n *VarDeclStmt) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *FuncDeclStmt) Span() (token.Pos, token.Pos) { return n.Fn.Span() }
func (n *ClassDeclStmt) Span() (token.Pos, token.Pos) { return n.Class.Span() }
func (n *IfStmt) Span() (token.Pos, token.Pos) {
	end, _ := n.Then.Span()
	if n.Else != nil {
		_, end = n.Else.Span()
	}
	return n.Start, end
}
func (n *WhileStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Body.Span()
	return n.Start, end
}
func (n *ForStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Body.Span()
	return n.Start, end
}
func (n *ForInStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Body.Span()
	return n.Start, end
}
func (n *ReturnStmt) Span() (token.Pos, token.Pos) {
	end := n.Start
	if n.Arg != nil {
		_, end = n.Arg.Span()
	}
	return n.Start, end
}
func (n *ThrowStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Arg.Span()
	return n.Start, end
}
func (n *BreakStmt) Span() (token.Pos, token.Pos)    { return n.Start, n.Start }
func (n *ContinueStmt) Span() (token.Pos, token.Pos) { return n.Start, n.Start }
func (n *LabeledStmt) Span() (token.Pos, token.Pos)  { return n.Stmt.Span() }
func (n *WithStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Body.Span()
	return n.Start, end
}
func (n *TryStmt) Span() (token.Pos, token.Pos) {
	end, _ := n.Block.Span()
	if n.FinallyBlock != nil {
		_, end = n.FinallyBlock.Span()
	} else if n.CatchBlock != nil {
		_, end = n.CatchBlock.Span()
	}
	return n.Start, end
}

func (n *ExprStmt) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *BlockStmt) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *VarDeclStmt) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d.Name)
		if d.Init != nil {
			Walk(v, d.Init)
		}
	}
}
func (n *FuncDeclStmt) Walk(v Visitor)  { Walk(v, n.Fn) }
func (n *ClassDeclStmt) Walk(v Visitor) { Walk(v, n.Class) }
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (n *ForStmt) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	if n.Post != nil {
		Walk(v, n.Post)
	}
	Walk(v, n.Body)
}
func (n *ForInStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	Walk(v, n.Right)
	Walk(v, n.Body)
}
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Arg != nil {
		Walk(v, n.Arg)
	}
}
func (n *ThrowStmt) Walk(v Visitor)    { Walk(v, n.Arg) }
func (n *BreakStmt) Walk(v Visitor)    {}
func (n *ContinueStmt) Walk(v Visitor) {}
func (n *LabeledStmt) Walk(v Visitor)  { Walk(v, n.Stmt) }
func (n *WithStmt) Walk(v Visitor) {
	Walk(v, n.Obj)
	Walk(v, n.Body)
}
func (n *TryStmt) Walk(v Visitor) {
	Walk(v, n.Block)
	if n.CatchParam != nil {
		Walk(v, n.CatchParam)
	}
	if n.CatchBlock != nil {
		Walk(v, n.CatchBlock)
	}
	if n.FinallyBlock != nil {
		Walk(v, n.FinallyBlock)
	}
}
