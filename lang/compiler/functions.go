package compiler

import (
	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/interner"
	"github.com/mna/esvm/lang/object"
	"github.com/mna/esvm/lang/token"
)

// compileFunctionExpr compiles fn into a fresh CodeBlock appended to the
// enclosing compiler's cb.Functions, and returns its index there.
// isMethod marks method/constructor bodies (no own `prototype` property,
// §4.3's TemplateArrowOrMethod); isDerivedCtor additionally marks a
// derived class constructor, whose `this` starts uninitialized until a
// super() call runs (§4.4 step 5, environment.ThisUninitialized).
func (c *compiler) compileFunctionExpr(fn *ast.FuncExpr, isMethod bool, isDerivedCtor bool) (int, error) {
	child := &compiler{strict: c.strict || fn.Strict, names: interner.New("arguments", "this")}
	child.cb = &CodeBlock{
		Name:                 funcName(fn),
		Strict:               child.strict,
		IsGenerator:          fn.Generator,
		IsAsync:              fn.Async,
		IsArrow:              fn.Arrow,
		IsMethod:             isMethod || fn.Method,
		IsDerivedConstructor: isDerivedCtor,
	}
	switch {
	case fn.Arrow:
		child.cb.ThisMode = ThisLexical
	case child.strict:
		child.cb.ThisMode = ThisStrict
	default:
		child.cb.ThisMode = ThisGlobal
	}

	child.functionEnv = child.newEnv(c.cur, true)
	child.cur = child.functionEnv

	var params []Param
	length := 0
	countingLength := true
	for _, p := range fn.Sig.Params {
		child.functionEnv.DeclareVar(p.Name.Name)
		hasDefault := p.Default != nil
		params = append(params, Param{Name: p.Name.Name, HasDefault: hasDefault, Rest: p.Rest})
		if p.Rest || hasDefault {
			countingLength = false
		} else if countingLength {
			length++
		}
	}
	child.cb.Params = Params{List: params}
	child.cb.Length = length

	// Arrow functions have no `arguments` object of their own (an
	// unqualified reference inside one resolves through the lexical
	// environment chain to an enclosing function's, handled naturally by
	// resolveRead walking outward); every other function gets one. The
	// machine always builds the unmapped form, whatever Params.IsSimple
	// reports: writes to named parameters are not reflected in it.
	if !fn.Arrow {
		if _, _, exists := child.functionEnv.GetBinding("arguments"); !exists {
			idx := child.functionEnv.DeclareVar("arguments")
			loc := environment.NewDeclarativeLocator("arguments", child.functionEnv.Index(), idx)
			child.cb.ArgumentsBinding = &loc
		}
	}

	// Default parameter values are evaluated by a guard sequence at the
	// top of the body rather than by the machine's argument-binding step:
	// the machine always pre-populates every declared parameter slot
	// (with undefined for a missing trailing argument), and this sequence
	// overwrites a slot still holding undefined with its default
	// expression's value.
	for _, p := range fn.Sig.Params {
		if p.Default == nil {
			continue
		}
		envIdx, bindIdx, _ := child.functionEnv.GetBinding(p.Name.Name)
		loc := environment.NewDeclarativeLocator(p.Name.Name, envIdx, bindIdx)
		child.emit(GETBINDING, child.bindingSlot(loc), 0)
		child.emit(UNDEFINED, 0, 0)
		child.emit(BINARY, int32(token.EQEQ), 0)
		skip := child.emit(JMPFALSE, 0, 0)
		if err := child.compileExpr(p.Default); err != nil {
			return 0, err
		}
		child.emit(SETBINDING, child.bindingSlot(loc), 0)
		child.patch(skip, child.here())
	}

	for _, name := range ast.TopLevelVarDeclaredNames(fn.Body) {
		child.functionEnv.DeclareVar(name)
	}
	if err := child.compileStmtsIn(fn.Body.Stmts, child.functionEnv); err != nil {
		return 0, err
	}
	child.cb.NumBindings = child.functionEnv.NumBindings()
	// A function body that falls off the end returns undefined.
	child.emit(UNDEFINED, 0, 0)
	child.emit(RETURN, 0, 0)

	c.cb.Functions = append(c.cb.Functions, child.cb)
	return len(c.cb.Functions) - 1, nil
}

func funcName(fn *ast.FuncExpr) string {
	if fn.Name != nil {
		return fn.Name.Name
	}
	return ""
}

// compileClassExpr emits the MAKECLASS stack sequence documented in
// opcode.go: the superclass value, then each non-constructor method as a
// (name, function) pair, then the constructor's own CodeBlock index.
func (c *compiler) compileClassExpr(cls *ast.ClassExpr) error {
	if cls.SuperExpr != nil {
		if err := c.compileExpr(cls.SuperExpr); err != nil {
			return err
		}
	} else {
		c.emit(UNDEFINED, 0, 0)
	}

	isDerived := cls.SuperExpr != nil
	var ctorFn *ast.FuncExpr
	methodCount := 0
	for _, m := range cls.Body.Methods {
		if m.IsConstructor {
			ctorFn = m.Fn
			continue
		}
		methodCount++
	}
	if ctorFn == nil {
		// No explicit constructor: synthesize an empty one. A derived
		// class's implicit constructor is supposed to forward its
		// arguments to super(...args); without array-spread support in
		// this AST, that forwarding is not implemented, so a derived class
		// relying on the implicit constructor must call super() itself
		// via an explicit (even empty-bodied) constructor.
		ctorFn = &ast.FuncExpr{Sig: &ast.FuncSignature{}, Body: &ast.BlockStmt{}}
	}
	injectFieldInitializers(ctorFn, cls.Body.Fields, isDerived)

	ctorIdx, err := c.compileFunctionExpr(ctorFn, true, isDerived)
	if err != nil {
		return err
	}
	c.cb.Functions[ctorIdx].IsClassConstructor = true
	if cls.Name != nil {
		c.cb.Functions[ctorIdx].Name = cls.Name.Name
	}

	for _, m := range cls.Body.Methods {
		if m.IsConstructor {
			continue
		}
		c.emit(CONSTANT, c.addLiteral(object.String(m.Name)), 0)
		idx, err := c.compileFunctionExpr(m.Fn, true, false)
		if err != nil {
			return err
		}
		c.emit(MAKEFUNC, int32(idx), 0)
	}

	c.emit(MAKECLASS, int32(ctorIdx), int32(methodCount))
	return nil
}

// injectFieldInitializers rewrites ctorFn's body to assign each instance
// field, expressed as `this.name = init` statements. In a derived class
// these ideally run immediately after the super() call rather than at
// the end of the constructor; pinpointing that call would require
// scanning the (possibly synthesized) body for a super CallExpr, so they
// are appended at the end of a derived constructor's body instead.
func injectFieldInitializers(ctorFn *ast.FuncExpr, fields []*ast.ClassField, isDerived bool) {
	var stmts []ast.Stmt
	for _, f := range fields {
		if f.Static {
			continue
		}
		init := f.Init
		if init == nil {
			init = &ast.Literal{Kind: ast.LiteralUndefined}
		}
		stmts = append(stmts, &ast.ExprStmt{Expr: &ast.AssignExpr{
			Left:  &ast.DotExpr{Left: &ast.ThisExpr{}, Name: f.Name},
			Right: init,
		}})
	}
	if len(stmts) == 0 {
		return
	}
	if isDerived {
		ctorFn.Body.Stmts = append(append([]ast.Stmt{}, ctorFn.Body.Stmts...), stmts...)
	} else {
		ctorFn.Body.Stmts = append(stmts, ctorFn.Body.Stmts...)
	}
}
