package ast

// ContainsSymbol identifies a syntactic construct that Contains searches
// for without descending into the body of a nested ordinary function or
// class, matching the ECMAScript static semantics of the same name.
type ContainsSymbol uint8

const (
	// NewTarget matches a NewTargetExpr.
	NewTarget ContainsSymbol = iota
	// SuperProperty matches a DotExpr or IndexExpr whose left/prefix is a
	// *SuperExpr.
	SuperProperty
	// SuperCall matches a CallExpr whose Callee is a *SuperExpr.
	SuperCall
)

// Contains reports whether node syntactically contains an occurrence of
// symbol, without crossing into the body of a nested non-arrow function or
// class: those introduce their own `this`/`new.target`/`super` binding, so
// an occurrence inside them does not belong to the enclosing one. Arrow
// function bodies are transparent to this query since arrows inherit these
// bindings from their enclosing scope.
func Contains(node Node, symbol ContainsSymbol) bool {
	if node == nil {
		return false
	}
	found := false
	Walk(containsVisitor(symbol, &found), node)
	return found
}

func containsVisitor(symbol ContainsSymbol, found *bool) Visitor {
	var v VisitorFunc
	v = func(n Node, dir VisitDirection) Visitor {
		if *found || dir != VisitEnter {
			if *found {
				return nil
			}
			return v
		}
		switch n := n.(type) {
		case *NewTargetExpr:
			if symbol == NewTarget {
				*found = true
			}
		case *DotExpr:
			if symbol == SuperProperty {
				if _, ok := n.Left.(*SuperExpr); ok {
					*found = true
				}
			}
		case *IndexExpr:
			if symbol == SuperProperty {
				if _, ok := n.Prefix.(*SuperExpr); ok {
					*found = true
				}
			}
		case *CallExpr:
			if symbol == SuperCall {
				if _, ok := n.Callee.(*SuperExpr); ok {
					*found = true
				}
			}
		case *FuncExpr:
			if !n.Arrow {
				return nil
			}
		case *ClassExpr:
			return nil
		}
		if *found {
			return nil
		}
		return v
	}
	return v
}

// ContainsArguments reports whether node syntactically references the
// `arguments` object, i.e. an Ident named "arguments" that is not shadowed
// by crossing into a nested non-arrow function. Like Contains, arrow
// bodies are transparent since arrows inherit `arguments` from their
// enclosing ordinary function.
func ContainsArguments(node Node) bool {
	if node == nil {
		return false
	}
	found := false
	var v VisitorFunc
	v = func(n Node, dir VisitDirection) Visitor {
		if found || dir != VisitEnter {
			if found {
				return nil
			}
			return v
		}
		switch n := n.(type) {
		case *Ident:
			if n.Name == "arguments" {
				found = true
			}
		case *FuncExpr:
			if !n.Arrow {
				return nil
			}
		case *ClassExpr:
			return nil
		}
		if found {
			return nil
		}
		return v
	}
	Walk(v, node)
	return found
}

// TopLevelVarDeclaredNames collects the names introduced by `var`
// declarations and function declarations directly in node's statement
// list, not descending into nested function/class bodies or into block
// statements' own function declarations (those are block-scoped). It is
// used by eval to compute the set of bindings that must be instantiated
// in the variable environment before the body runs.
func TopLevelVarDeclaredNames(node Node) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var walkStmts func(stmts []Stmt)
	walkStmts = func(stmts []Stmt) {
		for _, s := range stmts {
			walkStmt(s, add, walkStmts)
		}
	}
	// Function declarations count only at the top level of the list;
	// walkStmt ignores the ones nested in blocks.
	walkTop := func(stmts []Stmt) {
		for _, s := range stmts {
			if fd, ok := s.(*FuncDeclStmt); ok {
				add(fd.Fn.Name.Name)
				continue
			}
			walkStmt(s, add, walkStmts)
		}
	}
	switch n := node.(type) {
	case *Program:
		walkTop(n.Body)
	case *BlockStmt:
		walkTop(n.Stmts)
	}
	return names
}

func walkStmt(s Stmt, add func(string), walkStmts func([]Stmt)) {
	switch s := s.(type) {
	case *VarDeclStmt:
		if s.Kind == DeclVar {
			for _, d := range s.Decls {
				add(d.Name.Name)
			}
		}
	case *IfStmt:
		walkStmts([]Stmt{s.Then})
		if s.Else != nil {
			walkStmts([]Stmt{s.Else})
		}
	case *WhileStmt:
		walkStmts([]Stmt{s.Body})
	case *ForStmt:
		if decl, ok := s.Init.(*VarDeclStmt); ok && decl.Kind == DeclVar {
			for _, d := range decl.Decls {
				add(d.Name.Name)
			}
		}
		walkStmts([]Stmt{s.Body})
	case *ForInStmt:
		if s.Decl == DeclVar {
			add(s.Name.Name)
		}
		walkStmts([]Stmt{s.Body})
	case *LabeledStmt:
		walkStmt(s.Stmt, add, walkStmts)
	case *WithStmt:
		walkStmts([]Stmt{s.Body})
	case *TryStmt:
		walkStmts(s.Block.Stmts)
		if s.CatchBlock != nil {
			walkStmts(s.CatchBlock.Stmts)
		}
		if s.FinallyBlock != nil {
			walkStmts(s.FinallyBlock.Stmts)
		}
	case *BlockStmt:
		walkStmts(s.Stmts)
	}
}
