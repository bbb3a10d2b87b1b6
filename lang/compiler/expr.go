package compiler

import (
	"fmt"

	"github.com/mna/esvm/lang/ast"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/object"
)

// compileExpr emits bytecode that evaluates e and leaves exactly one
// value on the operand stack.
func (c *compiler) compileExpr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.Ident:
		loc := c.resolveRead(ex.Name)
		ex.Binding = loc
		c.emitReadLocator(loc)
		return nil

	case *ast.Literal:
		c.emit(CONSTANT, c.addLiteral(literalValue(ex)), 0)
		return nil

	case *ast.ThisExpr:
		c.emit(THIS, 0, 0)
		return nil

	case *ast.NewTargetExpr:
		c.emit(NEWTARGET, 0, 0)
		return nil

	case *ast.ParenExpr:
		return c.compileExpr(ex.Expr)

	case *ast.DotExpr:
		if _, ok := ex.Left.(*ast.SuperExpr); ok {
			c.emit(GETSUPERPROP, c.addName(ex.Name), 0)
			return nil
		}
		if err := c.compileExpr(ex.Left); err != nil {
			return err
		}
		c.emit(GETPROP, c.addName(ex.Name), 0)
		return nil

	case *ast.IndexExpr:
		if _, ok := ex.Prefix.(*ast.SuperExpr); ok {
			if err := c.compileExpr(ex.Index); err != nil {
				return err
			}
			c.emit(GETSUPERINDEX, 0, 0)
			return nil
		}
		if err := c.compileExpr(ex.Prefix); err != nil {
			return err
		}
		if err := c.compileExpr(ex.Index); err != nil {
			return err
		}
		c.emit(GETINDEX, 0, 0)
		return nil

	case *ast.CallExpr:
		return c.compileCall(ex)

	case *ast.BinOpExpr:
		if err := c.compileExpr(ex.Left); err != nil {
			return err
		}
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		c.emit(BINARY, int32(ex.Type), 0)
		return nil

	case *ast.UnaryOpExpr:
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		c.emit(UNARY, int32(ex.Type), 0)
		return nil

	case *ast.AssignExpr:
		return c.compileAssign(ex)

	case *ast.ArrayExpr:
		for _, item := range ex.Items {
			if err := c.compileExpr(item); err != nil {
				return err
			}
		}
		c.emit(NEWARRAY, int32(len(ex.Items)), 0)
		return nil

	case *ast.ObjectExpr:
		for _, p := range ex.Props {
			c.emit(CONSTANT, c.addLiteral(object.String(p.Key)), 0)
			if err := c.compileExpr(p.Value); err != nil {
				return err
			}
		}
		c.emit(NEWOBJECT, int32(len(ex.Props)), 0)
		return nil

	case *ast.FuncExpr:
		idx, err := c.compileFunctionExpr(ex, false, false)
		if err != nil {
			return err
		}
		c.emit(MAKEFUNC, int32(idx), 0)
		return nil

	case *ast.ClassExpr:
		return c.compileClassExpr(ex)

	case *ast.SuperExpr:
		return fmt.Errorf("SyntaxError: 'super' keyword is only valid inside a class")

	case *ast.YieldExpr:
		if !c.cb.IsGenerator {
			return fmt.Errorf("SyntaxError: 'yield' is only valid inside a generator function")
		}
		if ex.Arg != nil {
			if err := c.compileExpr(ex.Arg); err != nil {
				return err
			}
		} else {
			c.emit(UNDEFINED, 0, 0)
		}
		c.emit(YIELD, 0, 0)
		return nil

	default:
		return fmt.Errorf("compiler: unsupported expression type %T", e)
	}
}

func literalValue(lit *ast.Literal) object.Value {
	switch lit.Kind {
	case ast.LiteralUndefined:
		return object.Undefined{}
	case ast.LiteralNull:
		return object.Null{}
	case ast.LiteralBool:
		return object.Boolean(lit.Bool)
	case ast.LiteralNumber:
		return object.Number(lit.Number)
	case ast.LiteralString:
		return object.String(lit.String)
	default:
		return object.Undefined{}
	}
}

func (c *compiler) emitReadLocator(loc environment.Locator) {
	switch loc.Kind {
	case environment.LocSilent:
		c.emit(UNDEFINED, 0, 0)
	default: // LocDeclarative, LocGlobal, LocObject; reads are never immutable-sentineled
		c.emit(GETBINDING, c.bindingSlot(loc), 0)
	}
}

// compileCall handles plain calls, method calls (implicit `this`),
// `new` expressions and `super(...)` calls, each with its own operand
// stack protocol (see the comments on CALL/CALL_NEW/CALL_SUPER in
// opcode.go).
func (c *compiler) compileCall(ex *ast.CallExpr) error {
	if superExpr, ok := ex.Callee.(*ast.SuperExpr); ok {
		_ = superExpr
		for _, a := range ex.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.emit(CALL_SUPER, int32(len(ex.Args)), 0)
		return nil
	}

	op := CALL
	if ex.New != 0 {
		op = CALL_NEW
	}

	if op == CALL {
		switch callee := ex.Callee.(type) {
		case *ast.DotExpr:
			if _, ok := callee.Left.(*ast.SuperExpr); ok {
				c.emit(THIS, 0, 0)
				c.emit(GETSUPERPROP, c.addName(callee.Name), 0)
			} else {
				if err := c.compileExpr(callee.Left); err != nil {
					return err
				}
				c.emit(DUP, 0, 0)
				c.emit(GETPROP, c.addName(callee.Name), 0)
			}
		case *ast.IndexExpr:
			if _, ok := callee.Prefix.(*ast.SuperExpr); ok {
				c.emit(THIS, 0, 0)
				if err := c.compileExpr(callee.Index); err != nil {
					return err
				}
				c.emit(GETSUPERINDEX, 0, 0)
			} else {
				if err := c.compileExpr(callee.Prefix); err != nil {
					return err
				}
				c.emit(DUP, 0, 0)
				if err := c.compileExpr(callee.Index); err != nil {
					return err
				}
				c.emit(GETINDEX, 0, 0)
			}
		default:
			c.emit(UNDEFINED, 0, 0)
			if err := c.compileExpr(ex.Callee); err != nil {
				return err
			}
		}
	} else {
		if err := c.compileExpr(ex.Callee); err != nil {
			return err
		}
	}

	for _, a := range ex.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.emit(op, int32(len(ex.Args)), 0)
	return nil
}

// compileAssign handles `target = value` for the three assignable target
// shapes the AST supports: a plain identifier, a property access, and a
// computed member access (including their `super` forms).
func (c *compiler) compileAssign(ex *ast.AssignExpr) error {
	switch target := ex.Left.(type) {
	case *ast.Ident:
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		c.emit(DUP, 0, 0)
		loc := c.resolveWrite(target.Name)
		target.Binding = loc
		if err := loc.ThrowIfImmutable(); err != nil {
			return err
		}
		return c.emitWriteLocator(loc)

	case *ast.DotExpr:
		if _, ok := target.Left.(*ast.SuperExpr); ok {
			if err := c.compileExpr(ex.Right); err != nil {
				return err
			}
			c.emit(DUP, 0, 0)
			c.emit(SETSUPERPROP, c.addName(target.Name), 0)
			return nil
		}
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		c.emit(DUP, 0, 0)
		if err := c.compileExpr(target.Left); err != nil {
			return err
		}
		c.emit(SETPROP, c.addName(target.Name), 0)
		return nil

	case *ast.IndexExpr:
		if _, ok := target.Prefix.(*ast.SuperExpr); ok {
			if err := c.compileExpr(ex.Right); err != nil {
				return err
			}
			c.emit(DUP, 0, 0)
			if err := c.compileExpr(target.Index); err != nil {
				return err
			}
			c.emit(SETSUPERINDEX, 0, 0)
			return nil
		}
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		c.emit(DUP, 0, 0)
		if err := c.compileExpr(target.Prefix); err != nil {
			return err
		}
		if err := c.compileExpr(target.Index); err != nil {
			return err
		}
		c.emit(SETINDEX, 0, 0)
		return nil

	default:
		return fmt.Errorf("SyntaxError: invalid assignment target %T", ex.Left)
	}
}
