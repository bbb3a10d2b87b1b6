package compiler

import (
	"fmt"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/interner"
	"github.com/mna/esvm/lang/object"
)

// CompileProgram turns prog into a CodeBlock, resolving every identifier
// reference to an environment.Locator along the way. outerCompileEnv is
// the compile-time environment of the lexical scope prog is nested in
// (nil for a top-level script), strict reflects whether prog inherits
// strict mode from its caller, and isEval marks a body compiled for
// direct or indirect eval rather than a function or script body: an
// eval program hoists its top-level `var`/function declarations into
// outerCompileEnv itself instead of a fresh function environment,
// mirroring §4.6's treatment of var_scope.
func CompileProgram(prog *ast.Program, outerCompileEnv *environment.CompileTimeEnvironment, strict bool, isEval bool) (*CodeBlock, error) {
	strict = strict || prog.Strict

	c := &compiler{strict: strict, names: interner.New("arguments", "this")}
	if isEval {
		if outerCompileEnv == nil {
			panic("compiler: eval compilation requires an outer compile environment")
		}
		c.cb = &CodeBlock{Name: "eval", Strict: strict, ThisMode: ThisGlobal}
		c.functionEnv = outerCompileEnv
		c.cur = outerCompileEnv
	} else {
		c.cb = &CodeBlock{Name: "", Strict: strict, ThisMode: ThisGlobal}
		c.functionEnv = c.newEnv(outerCompileEnv, true)
		c.cur = c.functionEnv
	}

	for _, name := range ast.TopLevelVarDeclaredNames(prog) {
		c.functionEnv.DeclareVar(name)
	}
	if err := c.compileStmtsIn(prog.Body, c.functionEnv); err != nil {
		return nil, err
	}
	c.cb.NumBindings = c.functionEnv.NumBindings()
	return c.cb, nil
}

// compiler holds the mutable state of a single CodeBlock's compilation
// pass: one compiler exists per function (or script/eval) body, with a
// fresh child spawned for each nested function/method/class constructor.
type compiler struct {
	cb          *CodeBlock
	functionEnv *environment.CompileTimeEnvironment // this CodeBlock's own body scope
	cur         *environment.CompileTimeEnvironment // innermost active lexical scope
	strict      bool
	loops       []loopCtx

	// names deduplicates the property/binding names addName interns into
	// cb.Names, so that repeated references to the same name (a property
	// read inside a loop, say) share one Names slot instead of growing it
	// on every occurrence.
	names *interner.Interner
}

type loopCtx struct {
	label         string
	continueJumps []int
	breakJumps    []int
}

type lexName struct {
	name      string
	immutable bool
	fn        bool // a function declaration's name
}

// newEnv creates a new CompileTimeEnvironment (root or child of outer),
// appends it to the CodeBlock's environment list and assigns it the
// resulting index, per CodeBlock.CompileEnvironments' documented
// ordering contract.
func (c *compiler) newEnv(outer *environment.CompileTimeEnvironment, isFunction bool) *environment.CompileTimeEnvironment {
	var env *environment.CompileTimeEnvironment
	if outer == nil {
		env = environment.NewCompileTimeEnvironment(isFunction)
	} else {
		env = outer.NewChild(isFunction)
	}
	c.cb.CompileEnvironments = append(c.cb.CompileEnvironments, env)
	env.SetIndex(len(c.cb.CompileEnvironments) - 1)
	return env
}

func (c *compiler) emit(op Opcode, a, b int32) int {
	c.cb.Code = append(c.cb.Code, Instruction{Op: op, A: a, B: b})
	return len(c.cb.Code) - 1
}

func (c *compiler) patch(idx int, target int) {
	c.cb.Code[idx].A = int32(target)
}

func (c *compiler) here() int { return len(c.cb.Code) }

func (c *compiler) addLiteral(v object.Value) int32 {
	for i, existing := range c.cb.Literals {
		if existing == v {
			return int32(i)
		}
	}
	c.cb.Literals = append(c.cb.Literals, v)
	return int32(len(c.cb.Literals) - 1)
}

// addName interns name (via c.names, adapted from the teacher's symbol
// table) and returns its index into cb.Names, assigning a fresh one the
// first time name is seen. Interner.Sym is 1-based; cb.Names is 0-based
// and mirrors every name the interner holds in Sym order, including the
// well-known names the interner was created with, so a name's index is
// always its Sym minus one.
func (c *compiler) addName(name string) int32 {
	sym := c.names.Intern(name)
	for len(c.cb.Names) < c.names.Len() {
		c.cb.Names = append(c.cb.Names, c.names.Lookup(interner.Sym(len(c.cb.Names)+1)))
	}
	return int32(sym) - 1
}

// collectLexicalNames returns the let/const/function-declared names
// introduced directly at the top level of stmts (not recursing into
// nested blocks or functions), which must be bound before any statement
// of the list executes so that forward references observe the temporal
// dead zone rather than resolving to an outer or global binding.
func collectLexicalNames(stmts []ast.Stmt) []lexName {
	var out []lexName
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.VarDeclStmt:
			if st.Kind != ast.DeclVar {
				for _, d := range st.Decls {
					out = append(out, lexName{name: d.Name.Name, immutable: st.Kind == ast.DeclConst})
				}
			}
		case *ast.FuncDeclStmt:
			out = append(out, lexName{name: st.Fn.Name.Name, fn: true})
		case *ast.ClassDeclStmt:
			out = append(out, lexName{name: st.Class.Name.Name})
		}
	}
	return out
}

func (c *compiler) compileStmtsIn(stmts []ast.Stmt, env *environment.CompileTimeEnvironment) error {
	for _, ln := range collectLexicalNames(stmts) {
		if ln.fn && env.HasLexBinding(ln.name) {
			// A function declaration at the top level of a function, script
			// or eval body is already declared here as a var binding (see
			// ast.TopLevelVarDeclaredNames); it keeps that binding.
			continue
		}
		env.DeclareLexical(ln.name, ln.immutable)
	}
	for _, s := range stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// resolveRead returns the locator used to read name from the current
// scope, a plain global reference if no compile-time binding covers it.
func (c *compiler) resolveRead(name string) environment.Locator {
	if envIdx, bindIdx, ok := c.cur.GetBinding(name); ok {
		return environment.NewDeclarativeLocator(name, envIdx, bindIdx)
	}
	return environment.NewGlobalLocator(name)
}

// resolveWrite is like resolveRead, but returns a locator that always
// raises on write if name addresses a const binding.
func (c *compiler) resolveWrite(name string) environment.Locator {
	for e := c.cur; e != nil; e = e.Outer() {
		if e.HasLexBinding(name) {
			if e.IsImmutable(name) {
				return environment.NewMutateImmutableLocator(name)
			}
			envIdx, bindIdx, _ := e.GetBinding(name)
			return environment.NewDeclarativeLocator(name, envIdx, bindIdx)
		}
	}
	return environment.NewGlobalLocator(name)
}

func (c *compiler) pushLoop(label string) {
	c.loops = append(c.loops, loopCtx{label: label})
}

func (c *compiler) popLoop(continueTarget, breakTarget int) {
	lc := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, idx := range lc.continueJumps {
		c.patch(idx, continueTarget)
	}
	for _, idx := range lc.breakJumps {
		c.patch(idx, breakTarget)
	}
}

func (c *compiler) findLoop(label string) (*loopCtx, error) {
	for i := len(c.loops) - 1; i >= 0; i-- {
		if label == "" || c.loops[i].label == label {
			return &c.loops[i], nil
		}
	}
	if label == "" {
		return nil, fmt.Errorf("SyntaxError: illegal break/continue statement outside a loop")
	}
	return nil, fmt.Errorf("SyntaxError: undefined label %q", label)
}

// compileStmt emits bytecode for one statement. It never leaves a value
// on the operand stack.
func (c *compiler) compileStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpr(st.Expr); err != nil {
			return err
		}
		c.emit(POP, 0, 0)
		return nil

	case *ast.BlockStmt:
		return c.compileBlock(st)

	case *ast.VarDeclStmt:
		return c.compileVarDecl(st)

	case *ast.FuncDeclStmt:
		idx, err := c.compileFunctionExpr(st.Fn, false, false)
		if err != nil {
			return err
		}
		c.emit(MAKEFUNC, int32(idx), 0)
		return c.emitBindingWrite(st.Fn.Name.Name)

	case *ast.ClassDeclStmt:
		if err := c.compileClassExpr(st.Class); err != nil {
			return err
		}
		return c.emitBindingWrite(st.Class.Name.Name)

	case *ast.IfStmt:
		return c.compileIf(st)

	case *ast.WhileStmt:
		return c.compileWhile(st, "")

	case *ast.ForStmt:
		return c.compileFor(st, "")

	case *ast.ForInStmt:
		return c.compileForIn(st, "")

	case *ast.ReturnStmt:
		if st.Arg != nil {
			if err := c.compileExpr(st.Arg); err != nil {
				return err
			}
		} else {
			c.emit(UNDEFINED, 0, 0)
		}
		c.emit(RETURN, 0, 0)
		return nil

	case *ast.ThrowStmt:
		if err := c.compileExpr(st.Arg); err != nil {
			return err
		}
		c.emit(THROW, 0, 0)
		return nil

	case *ast.BreakStmt:
		lc, err := c.findLoop(st.Label)
		if err != nil {
			return err
		}
		idx := c.emit(JMP, 0, 0)
		lc.breakJumps = append(lc.breakJumps, idx)
		return nil

	case *ast.ContinueStmt:
		lc, err := c.findLoop(st.Label)
		if err != nil {
			return err
		}
		idx := c.emit(JMP, 0, 0)
		lc.continueJumps = append(lc.continueJumps, idx)
		return nil

	case *ast.LabeledStmt:
		switch inner := st.Stmt.(type) {
		case *ast.WhileStmt:
			return c.compileWhile(inner, st.Label)
		case *ast.ForStmt:
			return c.compileFor(inner, st.Label)
		case *ast.ForInStmt:
			return c.compileForIn(inner, st.Label)
		default:
			return c.compileStmt(st.Stmt)
		}

	case *ast.WithStmt:
		return c.compileWith(st)

	case *ast.TryStmt:
		return c.compileTry(st)

	default:
		return fmt.Errorf("compiler: unsupported statement type %T", s)
	}
}

// emitBindingWrite resolves name for a write and emits the instructions
// to pop the top-of-stack value into it, used for the implicit
// initialization performed by function/class declarations.
func (c *compiler) emitBindingWrite(name string) error {
	loc := c.resolveWrite(name)
	if err := loc.ThrowIfImmutable(); err != nil {
		return err
	}
	return c.emitWriteLocator(loc)
}

// bindingSlot appends loc to the CodeBlock's binding table and returns
// its index, the value GETBINDING/SETBINDING instructions carry as
// operand A. Keeping locators in a side table rather than packed into
// the instruction's two int32 operands lets a locator carry its Name
// alongside its (environmentIndex, bindingIndex) pair, which the
// disassembler and FindRuntimeBinding both need.
func (c *compiler) bindingSlot(loc environment.Locator) int32 {
	c.cb.Bindings = append(c.cb.Bindings, loc)
	return int32(len(c.cb.Bindings) - 1)
}

func (c *compiler) emitWriteLocator(loc environment.Locator) error {
	switch loc.Kind {
	case environment.LocMutateImmutable:
		return fmt.Errorf("TypeError: Assignment to constant variable %q", loc.Name)
	case environment.LocSilent:
		c.emit(POP, 0, 0)
	default:
		c.emit(SETBINDING, c.bindingSlot(loc), 0)
	}
	return nil
}

func (c *compiler) compileBlock(block *ast.BlockStmt) error {
	prev := c.cur
	child := c.newEnv(c.cur, false)
	c.cur = child
	c.emit(PUSHBLOCKENV, int32(child.Index()), 0)
	err := c.compileStmtsIn(block.Stmts, child)
	c.emit(POPENV, 0, 0)
	c.cur = prev
	return err
}

func (c *compiler) compileVarDecl(st *ast.VarDeclStmt) error {
	for _, d := range st.Decls {
		if d.Init == nil {
			continue
		}
		if err := c.compileExpr(d.Init); err != nil {
			return err
		}
		var loc environment.Locator
		if st.Kind == ast.DeclVar {
			envIdx, bindIdx, ok := c.cur.GetBinding(d.Name.Name)
			if !ok {
				loc = environment.NewGlobalLocator(d.Name.Name)
			} else {
				loc = environment.NewDeclarativeLocator(d.Name.Name, envIdx, bindIdx)
			}
		} else {
			loc = c.resolveWrite(d.Name.Name)
		}
		if err := c.emitWriteLocator(loc); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileIf(st *ast.IfStmt) error {
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	jmpFalse := c.emit(JMPFALSE, 0, 0)
	if err := c.compileStmt(st.Then); err != nil {
		return err
	}
	if st.Else == nil {
		c.patch(jmpFalse, c.here())
		return nil
	}
	jmpEnd := c.emit(JMP, 0, 0)
	c.patch(jmpFalse, c.here())
	if err := c.compileStmt(st.Else); err != nil {
		return err
	}
	c.patch(jmpEnd, c.here())
	return nil
}

func (c *compiler) compileWhile(st *ast.WhileStmt, label string) error {
	c.pushLoop(label)
	start := c.here()
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	exitJmp := c.emit(JMPFALSE, 0, 0)
	if err := c.compileStmt(st.Body); err != nil {
		return err
	}
	c.emit(JMP, int32(start), 0)
	c.patch(exitJmp, c.here())
	c.popLoop(start, c.here())
	return nil
}

func (c *compiler) compileFor(st *ast.ForStmt, label string) error {
	prev := c.cur
	var child *environment.CompileTimeEnvironment
	if init, ok := st.Init.(*ast.VarDeclStmt); ok && init.Kind != ast.DeclVar {
		child = c.newEnv(c.cur, false)
		c.cur = child
		c.emit(PUSHBLOCKENV, int32(child.Index()), 0)
		for _, d := range init.Decls {
			child.DeclareLexical(d.Name.Name, init.Kind == ast.DeclConst)
		}
	}

	if st.Init != nil {
		if err := c.compileStmt(st.Init); err != nil {
			return err
		}
	}

	c.pushLoop(label)
	start := c.here()
	var exitJmp int
	hasCond := st.Cond != nil
	if hasCond {
		if err := c.compileExpr(st.Cond); err != nil {
			return err
		}
		exitJmp = c.emit(JMPFALSE, 0, 0)
	}
	if err := c.compileStmt(st.Body); err != nil {
		return err
	}
	continueTarget := c.here()
	if st.Post != nil {
		if err := c.compileExpr(st.Post); err != nil {
			return err
		}
		c.emit(POP, 0, 0)
	}
	c.emit(JMP, int32(start), 0)
	end := c.here()
	if hasCond {
		c.patch(exitJmp, end)
	}
	c.popLoop(continueTarget, end)

	if child != nil {
		c.emit(POPENV, 0, 0)
		c.cur = prev
	}
	return nil
}

func (c *compiler) compileForIn(st *ast.ForInStmt, label string) error {
	if err := c.compileExpr(st.Right); err != nil {
		return err
	}
	// The machine turns the top-of-stack value into an iterator (array or
	// for-in property-name enumerator) the first time it observes it at
	// the loop head below, and keeps the iterator itself in frame-local
	// state rather than on the operand stack; this slot just keeps the
	// source value alive across the loop's lifetime so it can be dropped
	// with a single POP once the loop exits.
	c.emit(DUP, 0, 0)

	prev := c.cur
	var child *environment.CompileTimeEnvironment
	if st.Decl != ast.DeclNone {
		child = c.newEnv(c.cur, false)
		c.cur = child
		child.DeclareLexical(st.Name.Name, st.Decl == ast.DeclConst)
	}

	c.pushLoop(label)
	start := c.here()
	doneJmp := c.emit(JMPFALSE, 0, 0) // condition: machine pushes "has next" as part of the iterator step

	if child != nil {
		c.emit(PUSHBLOCKENV, int32(child.Index()), 0)
	}
	var loc environment.Locator
	if st.Decl == ast.DeclNone {
		loc = c.resolveWrite(st.Name.Name)
	} else {
		envIdx, bindIdx, _ := child.GetBinding(st.Name.Name)
		loc = environment.NewDeclarativeLocator(st.Name.Name, envIdx, bindIdx)
	}
	if err := c.emitWriteLocator(loc); err != nil {
		return err
	}

	if err := c.compileStmt(st.Body); err != nil {
		return err
	}
	if child != nil {
		c.emit(POPENV, 0, 0)
	}
	c.emit(JMP, int32(start), 0)
	end := c.here()
	c.patch(doneJmp, end)
	c.popLoop(start, end)
	c.emit(POP, 0, 0) // drop the iterable/iterator state left by the initial DUP

	c.cur = prev
	return nil
}

func (c *compiler) compileWith(st *ast.WithStmt) error {
	if err := c.compileExpr(st.Obj); err != nil {
		return err
	}
	c.emit(PUSHWITH, 0, 0)
	prev := c.cur
	err := c.compileStmt(st.Body)
	c.emit(POPENV, 0, 0)
	c.cur = prev
	return err
}

func (c *compiler) compileTry(st *ast.TryStmt) error {
	tryIdx := c.emit(TRY, -1, -1)
	if err := c.compileStmt(st.Block); err != nil {
		return err
	}
	c.emit(ENDTRY, 0, 0)
	jmpEnd := c.emit(JMP, 0, 0)

	catchTarget := int32(-1)
	if st.CatchBlock != nil {
		catchTarget = int32(c.here())
		prev := c.cur
		child := c.newEnv(c.cur, false)
		c.cur = child
		c.emit(PUSHBLOCKENV, int32(child.Index()), 0)
		if st.CatchParam != nil {
			child.DeclareLexical(st.CatchParam.Name, false)
			envIdx, bindIdx, _ := child.GetBinding(st.CatchParam.Name)
			loc := environment.NewDeclarativeLocator(st.CatchParam.Name, envIdx, bindIdx)
			c.emit(SETBINDING, c.bindingSlot(loc), 0)
		} else {
			c.emit(POP, 0, 0)
		}
		if err := c.compileStmtsIn(st.CatchBlock.Stmts, child); err != nil {
			return err
		}
		c.emit(POPENV, 0, 0)
		c.cur = prev
	}

	c.patch(jmpEnd, c.here())
	finallyTarget := int32(-1)
	if st.FinallyBlock != nil {
		finallyTarget = int32(c.here())
		if err := c.compileStmt(st.FinallyBlock); err != nil {
			return err
		}
	}
	c.cb.Code[tryIdx].A = catchTarget
	c.cb.Code[tryIdx].B = finallyTarget
	return nil
}
