package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a indented, human-readable rendering of node to w, one line
// per node. The golden-file test in dump_test.go compares its output
// against testdata/*.want.
func Dump(w io.Writer, node Node) {
	dump(w, node, 0)
}

func dump(w io.Writer, node Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *Program:
		fmt.Fprintf(w, "%sProgram strict=%v\n", indent, n.Strict)
		for _, s := range n.Body {
			dump(w, s, depth+1)
		}
	case *BlockStmt:
		fmt.Fprintf(w, "%sBlockStmt\n", indent)
		for _, s := range n.Stmts {
			dump(w, s, depth+1)
		}
	case *ExprStmt:
		fmt.Fprintf(w, "%sExprStmt\n", indent)
		dump(w, n.Expr, depth+1)
	case *VarDeclStmt:
		fmt.Fprintf(w, "%sVarDeclStmt kind=%d\n", indent, n.Kind)
		for _, d := range n.Decls {
			fmt.Fprintf(w, "%s  %s\n", indent, d.Name.Name)
			if d.Init != nil {
				dump(w, d.Init, depth+2)
			}
		}
	case *FuncDeclStmt:
		dump(w, n.Fn, depth)
	case *ClassDeclStmt:
		dump(w, n.Class, depth)
	case *IfStmt:
		fmt.Fprintf(w, "%sIfStmt\n", indent)
		dump(w, n.Cond, depth+1)
		dump(w, n.Then, depth+1)
		if n.Else != nil {
			dump(w, n.Else, depth+1)
		}
	case *WhileStmt:
		fmt.Fprintf(w, "%sWhileStmt\n", indent)
		dump(w, n.Cond, depth+1)
		dump(w, n.Body, depth+1)
	case *ForStmt:
		fmt.Fprintf(w, "%sForStmt\n", indent)
		dump(w, n.Body, depth+1)
	case *ForInStmt:
		fmt.Fprintf(w, "%sForInStmt of=%v\n", indent, n.Of)
		dump(w, n.Right, depth+1)
		dump(w, n.Body, depth+1)
	case *ReturnStmt:
		fmt.Fprintf(w, "%sReturnStmt\n", indent)
		if n.Arg != nil {
			dump(w, n.Arg, depth+1)
		}
	case *ThrowStmt:
		fmt.Fprintf(w, "%sThrowStmt\n", indent)
		dump(w, n.Arg, depth+1)
	case *BreakStmt:
		fmt.Fprintf(w, "%sBreakStmt label=%q\n", indent, n.Label)
	case *ContinueStmt:
		fmt.Fprintf(w, "%sContinueStmt label=%q\n", indent, n.Label)
	case *LabeledStmt:
		fmt.Fprintf(w, "%sLabeledStmt label=%q\n", indent, n.Label)
		dump(w, n.Stmt, depth+1)
	case *WithStmt:
		fmt.Fprintf(w, "%sWithStmt\n", indent)
		dump(w, n.Obj, depth+1)
		dump(w, n.Body, depth+1)
	case *TryStmt:
		fmt.Fprintf(w, "%sTryStmt\n", indent)
		dump(w, n.Block, depth+1)
		if n.CatchBlock != nil {
			dump(w, n.CatchBlock, depth+1)
		}
		if n.FinallyBlock != nil {
			dump(w, n.FinallyBlock, depth+1)
		}
	case *Ident:
		fmt.Fprintf(w, "%sIdent %s\n", indent, n.Name)
	case *Literal:
		fmt.Fprintf(w, "%sLiteral kind=%d\n", indent, n.Kind)
	case *ThisExpr:
		fmt.Fprintf(w, "%sThisExpr\n", indent)
	case *NewTargetExpr:
		fmt.Fprintf(w, "%sNewTargetExpr\n", indent)
	case *SuperExpr:
		fmt.Fprintf(w, "%sSuperExpr\n", indent)
	case *ParenExpr:
		dump(w, n.Expr, depth)
	case *DotExpr:
		fmt.Fprintf(w, "%sDotExpr .%s\n", indent, n.Name)
		dump(w, n.Left, depth+1)
	case *IndexExpr:
		fmt.Fprintf(w, "%sIndexExpr\n", indent)
		dump(w, n.Prefix, depth+1)
		dump(w, n.Index, depth+1)
	case *CallExpr:
		fmt.Fprintf(w, "%sCallExpr new=%v\n", indent, n.New != 0)
		dump(w, n.Callee, depth+1)
		for _, a := range n.Args {
			dump(w, a, depth+1)
		}
	case *BinOpExpr:
		fmt.Fprintf(w, "%sBinOpExpr %s\n", indent, n.Type)
		dump(w, n.Left, depth+1)
		dump(w, n.Right, depth+1)
	case *UnaryOpExpr:
		fmt.Fprintf(w, "%sUnaryOpExpr %s\n", indent, n.Type)
		dump(w, n.Right, depth+1)
	case *AssignExpr:
		fmt.Fprintf(w, "%sAssignExpr\n", indent)
		dump(w, n.Left, depth+1)
		dump(w, n.Right, depth+1)
	case *ArrayExpr:
		fmt.Fprintf(w, "%sArrayExpr\n", indent)
		for _, it := range n.Items {
			dump(w, it, depth+1)
		}
	case *ObjectExpr:
		fmt.Fprintf(w, "%sObjectExpr\n", indent)
		for _, p := range n.Props {
			fmt.Fprintf(w, "%s  %s:\n", indent, p.Key)
			dump(w, p.Value, depth+2)
		}
	case *FuncExpr:
		name := "<anonymous>"
		if n.Name != nil {
			name = n.Name.Name
		}
		fmt.Fprintf(w, "%sFuncExpr %s arrow=%v async=%v generator=%v\n", indent, name, n.Arrow, n.Async, n.Generator)
		dump(w, n.Body, depth+1)
	case *ClassExpr:
		name := "<anonymous>"
		if n.Name != nil {
			name = n.Name.Name
		}
		fmt.Fprintf(w, "%sClassExpr %s\n", indent, name)
		for _, m := range n.Body.Methods {
			dump(w, m.Fn, depth+1)
		}
	case *YieldExpr:
		fmt.Fprintf(w, "%sYieldExpr\n", indent)
		if n.Arg != nil {
			dump(w, n.Arg, depth+1)
		}
	default:
		fmt.Fprintf(w, "%s<unknown node>\n", indent)
	}
}
